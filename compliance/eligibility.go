/*
eligibility.go - Per-employee qualification rules

PURPOSE:
  Decides whether a single employee counts toward the organization's
  residency percentage at a given as-of date. Pure function of the
  employee record and the date: no clock reads, no I/O, so the same
  inputs always replay to the same verdict (simulation depends on this).

RULES, IN PRIORITY ORDER:
  1. Inactive employees never count, regardless of any other flag.
  2. Legacy employees always count. The carve-out covers employees who
     resided in a zone at certification time but whose zone was later
     redesignated away.
  3. Qualifying residents count once tenure reaches the minimum
     (inclusive at exactly ResidencyDays). Below that they are "pending":
     excluded from the percentage but surfaced for alerting.
  4. Everyone else is a non-resident.

EDGE CASE:
  A resident with an unknown residency start date cannot prove tenure, so
  they are pending with zero counted days, never silently qualified.

SEE ALSO:
  - calculator.go: aggregates these results
  - alerts.go: pending_residency_near_complete
*/
package compliance

// Evaluator applies the qualification rules.
type Evaluator struct {
	Policy Policy
}

// Evaluate returns the qualification outcome for one employee at asOf.
func (ev Evaluator) Evaluate(e Employee, asOf Date) EligibilityResult {
	if !e.Active {
		return EligibilityResult{EmployeeID: e.ID, Counts: false, Reason: ReasonInactive}
	}

	if e.LegacyEmployee {
		return EligibilityResult{EmployeeID: e.ID, Counts: true, Reason: ReasonLegacy}
	}

	if e.QualifyingResident {
		if e.ResidencyStart == nil {
			// Resident but tenure unproven. Pending, not qualified.
			return EligibilityResult{EmployeeID: e.ID, Counts: false, Reason: ReasonPending90Day}
		}
		days := DaysBetween(*e.ResidencyStart, asOf)
		if days >= ev.Policy.ResidencyDays {
			return EligibilityResult{EmployeeID: e.ID, Counts: true, Reason: ReasonQualifiedResident, DaysResident: days}
		}
		return EligibilityResult{EmployeeID: e.ID, Counts: false, Reason: ReasonPending90Day, DaysResident: days}
	}

	return EligibilityResult{EmployeeID: e.ID, Counts: false, Reason: ReasonNonResident}
}

// EvaluateAll evaluates every employee, preserving input order.
func (ev Evaluator) EvaluateAll(employees []Employee, asOf Date) []EligibilityResult {
	results := make([]EligibilityResult, len(employees))
	for i, e := range employees {
		results[i] = ev.Evaluate(e, asOf)
	}
	return results
}
