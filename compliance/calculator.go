/*
calculator.go - Organization-level compliance aggregation

PURPOSE:
  Rolls per-employee eligibility results up into the organization's
  percentage and status. This is the one place threshold arithmetic
  happens; everything upstream is per-employee, everything downstream
  (grace tracking, alerts, forecasting) consumes the snapshot.

STATUS LADDER:
  compliant  percent >= threshold AND principal office in a zone
  warning    percent >= threshold - buffer
  critical   everything else (including the zero-employee organization)

GRACE OVERRIDE:
  An active grace period forces compliant regardless of the raw
  percentage. The snapshot keeps both: RawStatus records what the numbers
  say, Status records the verdict after the override, so history stays
  honest about why an organization was compliant.

PURITY:
  Compute has no side effects. Appending the snapshot to the history log
  is the engine's job (engine.go), under the per-organization lock.

SEE ALSO:
  - eligibility.go: the per-employee rules
  - grace.go: grace period lifecycle
  - engine.go: the stateful wrapper that persists results
*/
package compliance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Calculator aggregates evaluated employees into a compliance snapshot.
type Calculator struct {
	Policy Policy
}

// Compute evaluates every employee and produces the snapshot at asOf.
// Returns ErrInvalidInput if asOf precedes the certification anchor.
func (c Calculator) Compute(org Organization, employees []Employee, asOf Date, grace *GracePeriod) (ComplianceSnapshot, []EligibilityResult, error) {
	if asOf.Before(org.CertifiedAt) {
		return ComplianceSnapshot{}, nil, &InvalidInputError{
			Field:  "as_of",
			Reason: "precedes certification date " + org.CertifiedAt.String(),
		}
	}

	ev := Evaluator{Policy: c.Policy}
	results := ev.EvaluateAll(employees, asOf)

	var total, qualifying, pending, legacy int
	for i, e := range employees {
		if !e.Active {
			continue
		}
		total++
		switch results[i].Reason {
		case ReasonLegacy:
			qualifying++
			legacy++
		case ReasonQualifiedResident:
			qualifying++
		case ReasonPending90Day:
			pending++
		}
	}

	percent := PercentOf(qualifying, total)
	threshold := org.EffectiveThreshold(c.Policy)

	raw := StatusCritical
	switch {
	case percent.GreaterThanOrEqual(threshold) && org.PrincipalOfficeInZone:
		raw = StatusCompliant
	case percent.GreaterThanOrEqual(threshold.Sub(c.Policy.WarningBuffer)):
		raw = StatusWarning
	}

	snapshot := ComplianceSnapshot{
		ID:             uuid.NewString(),
		OrganizationID: org.ID,
		AsOf:           asOf,
		TotalEmployees: total,
		Qualifying:     qualifying,
		Pending:        pending,
		LegacyCount:    legacy,
		Percent:        percent,
		RawStatus:      raw,
		Status:         raw,
		TakenAt:        time.Now().UTC(),
	}

	if grace != nil && grace.Covers(asOf) {
		snapshot.Status = StatusCompliant
		snapshot.GracePeriodActive = true
		end := grace.End
		snapshot.GracePeriodEnds = &end
	}

	return snapshot, results, nil
}

// StatusFor maps a bare percentage onto the status ladder, ignoring the
// principal-office requirement. Used by the forecaster, which projects
// percentages but cannot project office moves.
func (c Calculator) StatusFor(percent, threshold decimal.Decimal) ComplianceStatus {
	switch {
	case percent.GreaterThanOrEqual(threshold):
		return StatusCompliant
	case percent.GreaterThanOrEqual(threshold.Sub(c.Policy.WarningBuffer)):
		return StatusWarning
	default:
		return StatusCritical
	}
}
