/*
alerts.go - Actionable warning derivation

PURPOSE:
  Turns calculator and grace tracker outputs into warnings a compliance
  officer can act on before a violation happens, rather than a report of
  one that already did.

ALERT TYPES:
  threshold_breach_imminent       percentage sits within the configured
                                  margin above threshold and the last two
                                  snapshots trend downward
  pending_residency_near_complete an employee inside the 90-day window is
                                  within the lead time of qualifying
  legacy_cap_exceeded             legacy employees exceed the cap fraction
                                  of qualifying employees
  grace_period_expiring           the active grace window ends within the
                                  configured lead window

DETERMINISM:
  Output order is severity (highest first), then employee/organization id.
  Same inputs, same alerts, same order - tests rely on it.

SEE ALSO:
  - policy.go: the margins and lead times
  - engine.go: GenerateAlerts surface method
*/
package compliance

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

type AlertType string

const (
	AlertThresholdBreachImminent      AlertType = "threshold_breach_imminent"
	AlertPendingResidencyNearComplete AlertType = "pending_residency_near_complete"
	AlertLegacyCapExceeded            AlertType = "legacy_cap_exceeded"
	AlertGracePeriodExpiring          AlertType = "grace_period_expiring"
)

// AlertSeverity orders alerts; higher is more urgent.
type AlertSeverity int

const (
	SeverityInfo AlertSeverity = iota + 1
	SeverityWarning
	SeverityCritical
)

func (s AlertSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Alert is one actionable warning.
type Alert struct {
	Type           AlertType
	Severity       AlertSeverity
	OrganizationID OrganizationID
	EmployeeID     EmployeeID // empty for organization-level alerts
	Message        string
	AsOf           Date
}

// AlertGenerator derives alerts from a snapshot and its context.
type AlertGenerator struct {
	Policy Policy
}

// Generate derives all alerts for one organization at asOf. The history
// must be ordered oldest-first and include the current snapshot's
// predecessors; trend detection needs at least two points.
func (g AlertGenerator) Generate(org Organization, snapshot ComplianceSnapshot, history []ComplianceSnapshot, employees []Employee, grace *GracePeriod, asOf Date) []Alert {
	var alerts []Alert

	alerts = append(alerts, g.breachImminent(org, snapshot, history, asOf)...)
	alerts = append(alerts, g.pendingNearComplete(org, employees, asOf)...)
	alerts = append(alerts, g.legacyCapExceeded(org, snapshot, asOf)...)
	alerts = append(alerts, g.graceExpiring(org, grace, asOf)...)

	sort.SliceStable(alerts, func(a, b int) bool {
		if alerts[a].Severity != alerts[b].Severity {
			return alerts[a].Severity > alerts[b].Severity
		}
		if alerts[a].EmployeeID != alerts[b].EmployeeID {
			return alerts[a].EmployeeID < alerts[b].EmployeeID
		}
		return alerts[a].Type < alerts[b].Type
	})
	return alerts
}

func (g AlertGenerator) breachImminent(org Organization, snapshot ComplianceSnapshot, history []ComplianceSnapshot, asOf Date) []Alert {
	if len(history) < 2 {
		return nil
	}
	threshold := org.EffectiveThreshold(g.Policy)
	ceiling := threshold.Add(g.Policy.BreachMarginPoints)

	if snapshot.Percent.LessThan(threshold) || snapshot.Percent.GreaterThan(ceiling) {
		return nil
	}

	last := history[len(history)-1]
	prev := history[len(history)-2]
	if last.Percent.GreaterThanOrEqual(prev.Percent) {
		return nil
	}

	return []Alert{{
		Type:           AlertThresholdBreachImminent,
		Severity:       SeverityWarning,
		OrganizationID: org.ID,
		Message: fmt.Sprintf("compliance at %s%% is within %s points of the %s%% threshold and trending down",
			snapshot.Percent.StringFixed(1), g.Policy.BreachMarginPoints.StringFixed(0), threshold.StringFixed(0)),
		AsOf: asOf,
	}}
}

func (g AlertGenerator) pendingNearComplete(org Organization, employees []Employee, asOf Date) []Alert {
	ev := Evaluator{Policy: g.Policy}
	cutoff := g.Policy.ResidencyDays - g.Policy.PendingAlertLeadDays

	var alerts []Alert
	for _, e := range employees {
		result := ev.Evaluate(e, asOf)
		if result.Reason != ReasonPending90Day || result.DaysResident < cutoff {
			continue
		}
		remaining := g.Policy.ResidencyDays - result.DaysResident
		alerts = append(alerts, Alert{
			Type:           AlertPendingResidencyNearComplete,
			Severity:       SeverityInfo,
			OrganizationID: org.ID,
			EmployeeID:     e.ID,
			Message: fmt.Sprintf("employee %s qualifies as a resident in %d days (%d of %d complete)",
				e.ID, remaining, result.DaysResident, g.Policy.ResidencyDays),
			AsOf: asOf,
		})
	}
	return alerts
}

func (g AlertGenerator) legacyCapExceeded(org Organization, snapshot ComplianceSnapshot, asOf Date) []Alert {
	if snapshot.Qualifying == 0 || snapshot.LegacyCount == 0 {
		return nil
	}
	capAmount := g.Policy.LegacyCapFraction.Mul(decimal.NewFromInt(int64(snapshot.Qualifying)))
	count := decimal.NewFromInt(int64(snapshot.LegacyCount))
	if count.LessThanOrEqual(capAmount) {
		return nil
	}
	return []Alert{{
		Type:           AlertLegacyCapExceeded,
		Severity:       SeverityCritical,
		OrganizationID: org.ID,
		Message: fmt.Sprintf("%d legacy employees exceed the cap of %s (%s of %d qualifying)",
			snapshot.LegacyCount, capAmount.StringFixed(1), g.Policy.LegacyCapFraction.StringFixed(2), snapshot.Qualifying),
		AsOf: asOf,
	}}
}

func (g AlertGenerator) graceExpiring(org Organization, grace *GracePeriod, asOf Date) []Alert {
	if grace == nil || !grace.Covers(asOf) {
		return nil
	}
	remaining := DaysBetween(asOf, grace.End)
	if remaining > g.Policy.GraceExpiryLeadDays {
		return nil
	}
	return []Alert{{
		Type:           AlertGracePeriodExpiring,
		Severity:       SeverityCritical,
		OrganizationID: org.ID,
		Message: fmt.Sprintf("grace period (%s) ends %s, %d days from now",
			grace.Trigger, grace.End, remaining),
		AsOf: asOf,
	}}
}
