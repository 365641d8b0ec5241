/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements compliance.Store using SQLite. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  compliance.OrganizationStore: Certified firm records
  compliance.EmployeeStore:     Workforce records with residency attributes
  compliance.SnapshotStore:     Append-only compliance snapshot log
  compliance.GracePeriodStore:  Grace period state and audit history

APPEND-ONLY ENFORCEMENT:
  The snapshot log is append-only:
  - No UPDATE statements on compliance_snapshots
  - No DELETE statements on compliance_snapshots
  - A duplicate snapshot ID surfaces as ErrPersistenceConflict, which the
    engine treats as a retryable write conflict

KEY TABLES:
  organizations:        Certified firms with threshold and principal office
  employees:            Workforce records (residency facts pre-resolved)
  compliance_snapshots: Immutable log of compliance verdicts
  grace_periods:        Grace windows, retained after deactivation for audit

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/compliance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := compliance.NewEngine(store, provider, policy)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - compliance/store.go: Interface definitions
  - compliance/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/zoneline/compliance-engine/compliance"
)

// Store implements compliance.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

var _ compliance.Store = (*Store)(nil)

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Organizations (certified firms)
	CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		threshold TEXT NOT NULL DEFAULT '0',
		certified_at TEXT NOT NULL,
		principal_office_in_zone BOOLEAN NOT NULL DEFAULT FALSE,
		principal_office_zone TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Employees (workforce records with residency attributes)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		hire_date TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		qualifying_resident BOOLEAN NOT NULL DEFAULT FALSE,
		zone_type TEXT NOT NULL DEFAULT '',
		residency_start TEXT,
		legacy_employee BOOLEAN NOT NULL DEFAULT FALSE,
		at_risk_redesignation BOOLEAN NOT NULL DEFAULT FALSE,
		last_verified TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_organization
		ON employees(organization_id);

	-- Compliance snapshots (append-only log)
	CREATE TABLE IF NOT EXISTS compliance_snapshots (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		as_of TEXT NOT NULL,
		total_employees INTEGER NOT NULL,
		qualifying INTEGER NOT NULL,
		pending INTEGER NOT NULL,
		legacy_count INTEGER NOT NULL,
		percent TEXT NOT NULL,
		raw_status TEXT NOT NULL,
		status TEXT NOT NULL,
		grace_period_active BOOLEAN NOT NULL DEFAULT FALSE,
		grace_period_ends TEXT,
		taken_at TEXT NOT NULL
	);

	-- Hot path: history reads and latest-snapshot lookups
	CREATE INDEX IF NOT EXISTS idx_snapshots_org_as_of
		ON compliance_snapshots(organization_id, as_of ASC);

	-- Grace periods (deactivated rows retained for audit)
	CREATE TABLE IF NOT EXISTS grace_periods (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		trigger_kind TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		active BOOLEAN NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_grace_periods_org
		ON grace_periods(organization_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ORGANIZATION STORE
// =============================================================================

// SaveOrganization inserts or updates an organization.
func (s *Store) SaveOrganization(ctx context.Context, org compliance.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO organizations
		(id, name, threshold, certified_at, principal_office_in_zone, principal_office_zone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			threshold = excluded.threshold,
			certified_at = excluded.certified_at,
			principal_office_in_zone = excluded.principal_office_in_zone,
			principal_office_zone = excluded.principal_office_zone
	`

	_, err := s.db.ExecContext(ctx, query,
		string(org.ID),
		org.Name,
		org.Threshold.String(),
		formatDate(org.CertifiedAt),
		org.PrincipalOfficeInZone,
		string(org.PrincipalOfficeZone),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save organization: %w", err)
	}
	return nil
}

// GetOrganization retrieves an organization by ID.
func (s *Store) GetOrganization(ctx context.Context, id compliance.OrganizationID) (*compliance.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		org         compliance.Organization
		idStr       string
		threshold   string
		certifiedAt string
		zone        string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, threshold, certified_at, principal_office_in_zone, principal_office_zone
		 FROM organizations WHERE id = ?`,
		string(id),
	).Scan(&idStr, &org.Name, &threshold, &certifiedAt, &org.PrincipalOfficeInZone, &zone)

	if err == sql.ErrNoRows {
		return nil, compliance.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	org.ID = compliance.OrganizationID(idStr)
	org.Threshold, _ = decimal.NewFromString(threshold)
	org.CertifiedAt = parseDate(certifiedAt)
	org.PrincipalOfficeZone = compliance.ZoneType(zone)
	return &org, nil
}

// ListOrganizations returns all organizations ordered by ID.
func (s *Store) ListOrganizations(ctx context.Context) ([]compliance.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, threshold, certified_at, principal_office_in_zone, principal_office_zone
		 FROM organizations ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []compliance.Organization
	for rows.Next() {
		var (
			org         compliance.Organization
			idStr       string
			threshold   string
			certifiedAt string
			zone        string
		)
		if err := rows.Scan(&idStr, &org.Name, &threshold, &certifiedAt, &org.PrincipalOfficeInZone, &zone); err != nil {
			return nil, err
		}
		org.ID = compliance.OrganizationID(idStr)
		org.Threshold, _ = decimal.NewFromString(threshold)
		org.CertifiedAt = parseDate(certifiedAt)
		org.PrincipalOfficeZone = compliance.ZoneType(zone)
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, e compliance.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees
		(id, organization_id, name, address, hire_date, active, qualifying_resident,
		 zone_type, residency_start, legacy_employee, at_risk_redesignation, last_verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			organization_id = excluded.organization_id,
			name = excluded.name,
			address = excluded.address,
			hire_date = excluded.hire_date,
			active = excluded.active,
			qualifying_resident = excluded.qualifying_resident,
			zone_type = excluded.zone_type,
			residency_start = excluded.residency_start,
			legacy_employee = excluded.legacy_employee,
			at_risk_redesignation = excluded.at_risk_redesignation,
			last_verified = excluded.last_verified
	`

	_, err := s.db.ExecContext(ctx, query,
		string(e.ID),
		string(e.OrganizationID),
		e.Name,
		e.Address,
		formatDate(e.HireDate),
		e.Active,
		e.QualifyingResident,
		string(e.ZoneType),
		formatDatePtr(e.ResidencyStart),
		e.LegacyEmployee,
		e.AtRiskRedesignation,
		formatDatePtr(e.LastVerified),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id compliance.EmployeeID) (*compliance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, name, address, hire_date, active, qualifying_resident,
		       zone_type, residency_start, legacy_employee, at_risk_redesignation, last_verified
		FROM employees WHERE id = ?
	`

	rows, err := s.db.QueryContext(ctx, query, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, compliance.ErrEmployeeNotFound
	}
	e, err := scanEmployee(rows)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployees returns an organization's employees ordered by ID.
func (s *Store) ListEmployees(ctx context.Context, orgID compliance.OrganizationID) ([]compliance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, name, address, hire_date, active, qualifying_resident,
		       zone_type, residency_start, legacy_employee, at_risk_redesignation, last_verified
		FROM employees
		WHERE organization_id = ?
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, string(orgID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []compliance.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func scanEmployee(rows *sql.Rows) (compliance.Employee, error) {
	var (
		e              compliance.Employee
		idStr          string
		orgID          string
		hireDate       string
		zone           string
		residencyStart sql.NullString
		lastVerified   sql.NullString
	)

	err := rows.Scan(
		&idStr, &orgID, &e.Name, &e.Address, &hireDate, &e.Active,
		&e.QualifyingResident, &zone, &residencyStart,
		&e.LegacyEmployee, &e.AtRiskRedesignation, &lastVerified,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan employee: %w", err)
	}

	e.ID = compliance.EmployeeID(idStr)
	e.OrganizationID = compliance.OrganizationID(orgID)
	e.HireDate = parseDate(hireDate)
	e.ZoneType = compliance.ZoneType(zone)
	e.ResidencyStart = parseDatePtr(residencyStart)
	e.LastVerified = parseDatePtr(lastVerified)
	return e, nil
}

// =============================================================================
// SNAPSHOT STORE - Append-only
// =============================================================================

// AppendSnapshot adds a snapshot to the log. A duplicate ID means another
// writer already recorded this run; the caller retries with a fresh ID.
func (s *Store) AppendSnapshot(ctx context.Context, snap compliance.ComplianceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO compliance_snapshots
		(id, organization_id, as_of, total_employees, qualifying, pending, legacy_count,
		 percent, raw_status, status, grace_period_active, grace_period_ends, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		snap.ID,
		string(snap.OrganizationID),
		formatDate(snap.AsOf),
		snap.TotalEmployees,
		snap.Qualifying,
		snap.Pending,
		snap.LegacyCount,
		snap.Percent.String(),
		string(snap.RawStatus),
		string(snap.Status),
		snap.GracePeriodActive,
		formatDatePtr(snap.GracePeriodEnds),
		snap.TakenAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return compliance.ErrPersistenceConflict
		}
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	return nil
}

// History returns an organization's snapshots ordered by as-of date.
// A nil since returns the full log.
func (s *Store) History(ctx context.Context, orgID compliance.OrganizationID, since *compliance.Date) ([]compliance.ComplianceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, as_of, total_employees, qualifying, pending, legacy_count,
		       percent, raw_status, status, grace_period_active, grace_period_ends, taken_at
		FROM compliance_snapshots
		WHERE organization_id = ?
	`
	args := []any{string(orgID)}
	if since != nil {
		query += " AND as_of >= ?"
		args = append(args, formatDate(*since))
	}
	query += " ORDER BY as_of ASC, taken_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []compliance.ComplianceSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// LatestSnapshot returns the most recent snapshot, or nil when none exist.
func (s *Store) LatestSnapshot(ctx context.Context, orgID compliance.OrganizationID) (*compliance.ComplianceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, as_of, total_employees, qualifying, pending, legacy_count,
		       percent, raw_status, status, grace_period_active, grace_period_ends, taken_at
		FROM compliance_snapshots
		WHERE organization_id = ?
		ORDER BY as_of DESC, taken_at DESC
		LIMIT 1
	`

	rows, err := s.db.QueryContext(ctx, query, string(orgID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	snap, err := scanSnapshot(rows)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func scanSnapshot(rows *sql.Rows) (compliance.ComplianceSnapshot, error) {
	var (
		snap      compliance.ComplianceSnapshot
		orgID     string
		asOf      string
		percent   string
		rawStatus string
		status    string
		graceEnds sql.NullString
		takenAt   string
	)

	err := rows.Scan(
		&snap.ID, &orgID, &asOf,
		&snap.TotalEmployees, &snap.Qualifying, &snap.Pending, &snap.LegacyCount,
		&percent, &rawStatus, &status,
		&snap.GracePeriodActive, &graceEnds, &takenAt,
	)
	if err != nil {
		return snap, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	snap.OrganizationID = compliance.OrganizationID(orgID)
	snap.AsOf = parseDate(asOf)
	snap.Percent, _ = decimal.NewFromString(percent)
	snap.RawStatus = compliance.ComplianceStatus(rawStatus)
	snap.Status = compliance.ComplianceStatus(status)
	snap.GracePeriodEnds = parseDatePtr(graceEnds)
	snap.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
	return snap, nil
}

// =============================================================================
// GRACE PERIOD STORE
// =============================================================================

// ActiveGracePeriod returns the active grace period, or nil when none.
func (s *Store) ActiveGracePeriod(ctx context.Context, orgID compliance.OrganizationID) (*compliance.GracePeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, trigger_kind, start_date, end_date, active
		FROM grace_periods
		WHERE organization_id = ? AND active = TRUE
		ORDER BY end_date DESC
		LIMIT 1
	`

	rows, err := s.db.QueryContext(ctx, query, string(orgID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	g, err := scanGracePeriod(rows)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// UpsertGracePeriod inserts or updates a grace period.
func (s *Store) UpsertGracePeriod(ctx context.Context, g compliance.GracePeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO grace_periods (id, organization_id, trigger_kind, start_date, end_date, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			trigger_kind = excluded.trigger_kind,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			active = excluded.active
	`

	_, err := s.db.ExecContext(ctx, query,
		g.ID,
		string(g.OrganizationID),
		string(g.Trigger),
		formatDate(g.Start),
		formatDate(g.End),
		g.Active,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save grace period: %w", err)
	}
	return nil
}

// GracePeriodHistory returns all grace periods for an organization,
// including deactivated ones, ordered by start date.
func (s *Store) GracePeriodHistory(ctx context.Context, orgID compliance.OrganizationID) ([]compliance.GracePeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, trigger_kind, start_date, end_date, active
		FROM grace_periods
		WHERE organization_id = ?
		ORDER BY start_date ASC, end_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(orgID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []compliance.GracePeriod
	for rows.Next() {
		g, err := scanGracePeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, g)
	}
	return periods, rows.Err()
}

func scanGracePeriod(rows *sql.Rows) (compliance.GracePeriod, error) {
	var (
		g       compliance.GracePeriod
		orgID   string
		trigger string
		start   string
		end     string
	)

	err := rows.Scan(&g.ID, &orgID, &trigger, &start, &end, &g.Active)
	if err != nil {
		return g, fmt.Errorf("failed to scan grace period: %w", err)
	}

	g.OrganizationID = compliance.OrganizationID(orgID)
	g.Trigger = compliance.GraceTrigger(trigger)
	g.Start = parseDate(start)
	g.End = parseDate(end)
	return g, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"compliance_snapshots", "grace_periods", "employees", "organizations"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func formatDate(d compliance.Date) string {
	return d.String()
}

func formatDatePtr(d *compliance.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDate(s string) compliance.Date {
	d, _ := compliance.ParseDate(s)
	return d
}

func parseDatePtr(s sql.NullString) *compliance.Date {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := compliance.ParseDate(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
