/*
store.go - Persistence interfaces for the compliance engine

PURPOSE:
  Defines the boundary between the rule logic and the record store.
  Implementations can use SQLite, PostgreSQL, or memory; the engine only
  sees these interfaces.

APPEND-ONLY CONTRACT:
  The snapshot log is append-only: AppendSnapshot is the only write and
  there is no update or delete. History is the input to forecasting and
  trend alerts, so it must never be rewritten.

CONFLICTS:
  AppendSnapshot may return ErrPersistenceConflict on concurrent writes;
  the engine retries it under the per-organization lock. Grace period
  upserts share the same convention.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - compliance/store: in-memory store for tests and demos

SEE ALSO:
  - engine.go: the only writer
*/
package compliance

import "context"

// =============================================================================
// STORE INTERFACES
// =============================================================================

// OrganizationStore persists organization records.
type OrganizationStore interface {
	GetOrganization(ctx context.Context, id OrganizationID) (*Organization, error)
	SaveOrganization(ctx context.Context, org Organization) error
	ListOrganizations(ctx context.Context) ([]Organization, error)
}

// EmployeeStore persists the employee ledger.
type EmployeeStore interface {
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)
	ListEmployees(ctx context.Context, orgID OrganizationID) ([]Employee, error)
	SaveEmployee(ctx context.Context, e Employee) error
}

// SnapshotStore persists the append-only compliance history.
type SnapshotStore interface {
	// AppendSnapshot adds a snapshot. This is the ONLY write operation;
	// snapshots are never updated or deleted.
	AppendSnapshot(ctx context.Context, s ComplianceSnapshot) error

	// History returns snapshots for an organization ordered by as-of date
	// ascending, optionally bounded below.
	History(ctx context.Context, orgID OrganizationID, since *Date) ([]ComplianceSnapshot, error)

	// LatestSnapshot returns the most recent snapshot, or nil.
	LatestSnapshot(ctx context.Context, orgID OrganizationID) (*ComplianceSnapshot, error)
}

// GracePeriodStore persists grace periods. Past periods are retained for
// audit; only the most recent active one is authoritative.
type GracePeriodStore interface {
	ActiveGracePeriod(ctx context.Context, orgID OrganizationID) (*GracePeriod, error)
	UpsertGracePeriod(ctx context.Context, g GracePeriod) error
	GracePeriodHistory(ctx context.Context, orgID OrganizationID) ([]GracePeriod, error)
}

// Store is the full persistence surface the engine needs.
type Store interface {
	OrganizationStore
	EmployeeStore
	SnapshotStore
	GracePeriodStore
}
