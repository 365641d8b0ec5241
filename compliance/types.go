/*
Package compliance provides the core eligibility and forecasting engine.

PURPOSE:
  This package contains the rule logic for a residency-based federal
  contracting eligibility program: which employees count toward the
  organization's residency percentage, whether the organization meets its
  threshold, how temporary exceptions (legacy carve-outs, 90-day
  qualification windows, grace periods) interact, and how hypothetical
  workforce changes would shift the outcome.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: workforce record with residency and carve-out attributes
  - Organization: certified firm with threshold and principal office
  - ComplianceSnapshot: immutable point-in-time compliance verdict
  - GracePeriod: bounded window during which status is forced compliant
  - EligibilityResult: per-employee outcome of the qualification rules

DESIGN PRINCIPLES:
  1. Immutability: snapshots are appended, never mutated
  2. Precision: decimal.Decimal for percentages, no float drift at the
     threshold boundary
  3. Purity: evaluation and calculation are functions of their inputs and
     an explicit as-of date, enabling deterministic replay and simulation
  4. Type safety: distinct ID types for organizations and employees

SEE ALSO:
  - eligibility.go: per-employee qualification rules
  - calculator.go: organization-level aggregation
  - grace.go: grace period state machine
  - forecast.go: trend projection over snapshot history
*/
package compliance

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OrganizationID string
type EmployeeID string

// ZoneType identifies the kind of designated zone an address falls in.
// Concrete values live in the program package; the engine only needs
// equality and the empty value.
type ZoneType string

const ZoneNone ZoneType = ""

// =============================================================================
// EMPLOYEE - Workforce record with residency attributes
// =============================================================================

// Employee is a single workforce record. Residency attributes are
// pre-resolved facts (the geocoding oracle lives outside the engine).
type Employee struct {
	ID             EmployeeID
	OrganizationID OrganizationID
	Name           string
	Address        string
	HireDate       Date
	Active         bool

	// Residency attributes
	QualifyingResident bool
	ZoneType           ZoneType // ZoneNone when not resident
	ResidencyStart     *Date    // nil when not resident or unknown

	// LegacyEmployee marks the carve-out for employees who resided in a
	// zone at certification time but whose zone was later redesignated
	// away. They keep counting without current residency.
	LegacyEmployee bool

	// AtRiskRedesignation flags employees whose zone is slated to lose
	// its designation.
	AtRiskRedesignation bool

	// LastVerified records a manual residency verification. It allows a
	// low-confidence provider fact to be trusted; the engine never
	// upgrades confidence on its own.
	LastVerified *Date
}

// =============================================================================
// ORGANIZATION - Certified firm
// =============================================================================

type Organization struct {
	ID   OrganizationID
	Name string

	// Threshold is the minimum qualifying percentage (points, 0-100).
	// Zero means "use the policy default".
	Threshold decimal.Decimal

	// CertifiedAt anchors legacy eligibility and rejects as-of dates
	// that precede certification.
	CertifiedAt Date

	PrincipalOfficeInZone bool
	PrincipalOfficeZone   ZoneType
}

// EffectiveThreshold returns the organization threshold, falling back to
// the policy default when unset.
func (o Organization) EffectiveThreshold(p Policy) decimal.Decimal {
	if o.Threshold.IsZero() {
		return p.Threshold
	}
	return o.Threshold
}

// =============================================================================
// ELIGIBILITY - Per-employee qualification outcome
// =============================================================================

type EligibilityReason string

const (
	ReasonInactive          EligibilityReason = "inactive"
	ReasonLegacy            EligibilityReason = "legacy"
	ReasonQualifiedResident EligibilityReason = "qualified_resident"
	ReasonPending90Day      EligibilityReason = "pending_90_day"
	ReasonNonResident       EligibilityReason = "non_resident"
)

// EligibilityResult is the outcome of evaluating one employee at a date.
type EligibilityResult struct {
	EmployeeID EmployeeID
	Counts     bool
	Reason     EligibilityReason

	// DaysResident is the qualifying-residency tenure at the as-of date.
	// Meaningful for qualified_resident and pending_90_day only.
	DaysResident int
}

// =============================================================================
// COMPLIANCE SNAPSHOT - Immutable point-in-time verdict
// =============================================================================

type ComplianceStatus string

const (
	StatusCompliant ComplianceStatus = "compliant"
	StatusWarning   ComplianceStatus = "warning"
	StatusCritical  ComplianceStatus = "critical"
)

// ComplianceSnapshot is created each time the calculator runs and is never
// mutated. The per-organization snapshot log is the historical series the
// forecaster consumes.
type ComplianceSnapshot struct {
	ID             string
	OrganizationID OrganizationID
	AsOf           Date

	TotalEmployees int // active only
	Qualifying     int
	Pending        int // resident but inside the 90-day window
	LegacyCount    int

	Percent decimal.Decimal

	// RawStatus is the status before any grace-period override.
	RawStatus ComplianceStatus
	Status    ComplianceStatus

	GracePeriodActive bool
	GracePeriodEnds   *Date

	TakenAt time.Time
}

// =============================================================================
// GRACE PERIOD
// =============================================================================

type GraceTrigger string

const (
	TriggerRedesignation GraceTrigger = "redesignation"
	TriggerThresholdMiss GraceTrigger = "threshold_miss"
)

// GracePeriod is a bounded window during which the organization is treated
// as compliant despite a raw percentage below threshold. At most one is
// logically active per organization; history is retained for audit.
type GracePeriod struct {
	ID             string
	OrganizationID OrganizationID
	Trigger        GraceTrigger
	Start          Date
	End            Date
	Active         bool
}

// Covers reports whether the period is active at the given date.
func (g GracePeriod) Covers(asOf Date) bool {
	return g.Active && asOf.BeforeOrEqual(g.End) && asOf.AfterOrEqual(g.Start)
}

// =============================================================================
// HELPERS
// =============================================================================

var hundred = decimal.NewFromInt(100)

// PercentOf computes 100 * qualifying / total, with the zero-employee case
// pinned to 0 rather than NaN. A zero-employee organization is
// non-compliant, not vacuously compliant.
func PercentOf(qualifying, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(qualifying)).Mul(hundred).Div(decimal.NewFromInt(int64(total)))
}
