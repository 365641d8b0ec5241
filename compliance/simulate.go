/*
simulate.go - What-if analysis over a ledger snapshot

PURPOSE:
  Answers "what would compliance look like if..." questions without
  touching persisted state. Every operation clones the employee slice it
  was handed, re-runs the calculator at the same as-of date, and returns
  the resulting snapshot. Nothing is appended to the history log.

SCENARIOS:
  A Scenario is a batch of hypothetical hires and terminations applied
  together. ScenarioAnalysis evaluates many scenarios concurrently (each
  is independent and pure) and ranks them by resulting percentage,
  descending, with the scenario id as a stable tie-break.

SEE ALSO:
  - calculator.go: the shared computation both real and simulated runs use
  - engine.go: SimulateHire/SimulateTermination surface methods
*/
package compliance

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Scenario is a batch of hypothetical workforce changes.
type Scenario struct {
	ID           string
	Name         string
	Hires        []Employee
	Terminations []EmployeeID
}

// ScenarioResult pairs a scenario with its projected snapshot. Rank is
// 1-based, best percentage first.
type ScenarioResult struct {
	ScenarioID string
	Name       string
	Snapshot   ComplianceSnapshot
	Rank       int
}

// Simulator forks ledger snapshots through the calculator.
type Simulator struct {
	Calc Calculator
}

// SimulateHire appends a hypothetical employee (caller-supplied residency
// attributes) to a clone of the ledger and recomputes.
func (s Simulator) SimulateHire(org Organization, employees []Employee, hire Employee, asOf Date, grace *GracePeriod) (ComplianceSnapshot, error) {
	if hire.ID == "" {
		return ComplianceSnapshot{}, &InvalidInputError{Field: "employee.id", Reason: "required"}
	}
	hire.OrganizationID = org.ID
	hire.Active = true

	forked := cloneLedger(employees)
	forked = append(forked, hire)

	snapshot, _, err := s.Calc.Compute(org, forked, asOf, grace)
	return snapshot, err
}

// SimulateTermination deactivates the target employee in a clone of the
// ledger and recomputes. Unknown ids are ErrEmployeeNotFound.
func (s Simulator) SimulateTermination(org Organization, employees []Employee, id EmployeeID, asOf Date, grace *GracePeriod) (ComplianceSnapshot, error) {
	forked := cloneLedger(employees)
	found := false
	for i := range forked {
		if forked[i].ID == id {
			forked[i].Active = false
			found = true
			break
		}
	}
	if !found {
		return ComplianceSnapshot{}, ErrEmployeeNotFound
	}

	snapshot, _, err := s.Calc.Compute(org, forked, asOf, grace)
	return snapshot, err
}

// apply produces the forked ledger for one scenario.
func (s Simulator) apply(org Organization, employees []Employee, sc Scenario) ([]Employee, error) {
	forked := cloneLedger(employees)
	for _, id := range sc.Terminations {
		found := false
		for i := range forked {
			if forked[i].ID == id {
				forked[i].Active = false
				found = true
				break
			}
		}
		if !found {
			return nil, ErrEmployeeNotFound
		}
	}
	for _, hire := range sc.Hires {
		if hire.ID == "" {
			return nil, &InvalidInputError{Field: "employee.id", Reason: "required"}
		}
		hire.OrganizationID = org.ID
		hire.Active = true
		forked = append(forked, hire)
	}
	return forked, nil
}

// ScenarioAnalysis evaluates a batch of scenarios in parallel and ranks
// them by resulting percentage. Pure: each scenario forks its own ledger.
func (s Simulator) ScenarioAnalysis(ctx context.Context, org Organization, employees []Employee, scenarios []Scenario, asOf Date, grace *GracePeriod) ([]ScenarioResult, error) {
	results := make([]ScenarioResult, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			forked, err := s.apply(org, employees, sc)
			if err != nil {
				return err
			}
			snapshot, _, err := s.Calc.Compute(org, forked, asOf, grace)
			if err != nil {
				return err
			}
			results[i] = ScenarioResult{ScenarioID: sc.ID, Name: sc.Name, Snapshot: snapshot}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(a, b int) bool {
		cmp := results[a].Snapshot.Percent.Cmp(results[b].Snapshot.Percent)
		if cmp != 0 {
			return cmp > 0
		}
		return results[a].ScenarioID < results[b].ScenarioID
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

func cloneLedger(employees []Employee) []Employee {
	forked := make([]Employee, len(employees))
	copy(forked, employees)
	return forked
}
