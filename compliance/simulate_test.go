package compliance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zoneline/compliance-engine/compliance"
)

func newSimulator() compliance.Simulator {
	return compliance.Simulator{Calc: newCalculator()}
}

// =============================================================================
// HIRE SIMULATION TESTS
// =============================================================================

func TestSimulateHireQualifiedResident(t *testing.T) {
	// GIVEN: 10 employees with 3 qualifying (30%, warning)
	// WHEN: Simulating a hire who has been a resident for 120 days
	// THEN: 4/11 ~ 36.36%, compliant
	sim := newSimulator()
	employees := workforce(3, 7)
	hire := resident("emp-new", date(2025, time.February, 1)) // 120 days by asOf

	snapshot, err := sim.SimulateHire(testOrg(), employees, hire, date(2025, time.June, 1), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.TotalEmployees != 11 || snapshot.Qualifying != 4 {
		t.Fatalf("expected 4/11, got %d/%d", snapshot.Qualifying, snapshot.TotalEmployees)
	}
	if snapshot.Status != compliance.StatusCompliant {
		t.Errorf("expected compliant, got %s", snapshot.Status)
	}
	want := decimal.NewFromInt(400).Div(decimal.NewFromInt(11))
	if !snapshot.Percent.Equal(want) {
		t.Errorf("expected %s%%, got %s", want, snapshot.Percent)
	}
}

func TestSimulateHireRequiresID(t *testing.T) {
	sim := newSimulator()

	_, err := sim.SimulateHire(testOrg(), workforce(3, 7), compliance.Employee{}, date(2025, time.June, 1), nil)

	if !compliance.IsClientError(err) {
		t.Errorf("expected a client error for the missing id, got %v", err)
	}
}

func TestSimulationNeverMutatesTheLedger(t *testing.T) {
	// GIVEN: A workforce
	// WHEN: Hire and termination simulations run
	// THEN: The input slice is untouched
	sim := newSimulator()
	employees := workforce(3, 7)
	original := make([]compliance.Employee, len(employees))
	copy(original, employees)

	hire := resident("emp-new", date(2025, time.February, 1))
	if _, err := sim.SimulateHire(testOrg(), employees, hire, date(2025, time.June, 1), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := sim.SimulateTermination(testOrg(), employees, employees[0].ID, date(2025, time.June, 1), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(employees) != len(original) {
		t.Fatal("simulation changed the ledger length")
	}
	for i := range employees {
		if employees[i].ID != original[i].ID || employees[i].Active != original[i].Active {
			t.Fatalf("simulation mutated employee %s", original[i].ID)
		}
	}
}

// =============================================================================
// TERMINATION SIMULATION TESTS
// =============================================================================

func TestSimulateTerminationDropsQualifier(t *testing.T) {
	sim := newSimulator()
	employees := workforce(4, 6)

	snapshot, err := sim.SimulateTermination(testOrg(), employees, employees[0].ID, date(2025, time.June, 1), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.TotalEmployees != 9 || snapshot.Qualifying != 3 {
		t.Errorf("expected 3/9 after terminating a qualifier, got %d/%d", snapshot.Qualifying, snapshot.TotalEmployees)
	}
}

func TestSimulateTerminationUnknownEmployee(t *testing.T) {
	sim := newSimulator()

	_, err := sim.SimulateTermination(testOrg(), workforce(3, 7), "emp-ghost", date(2025, time.June, 1), nil)

	if !errors.Is(err, compliance.ErrEmployeeNotFound) {
		t.Errorf("expected ErrEmployeeNotFound, got %v", err)
	}
}

// =============================================================================
// SCENARIO ANALYSIS TESTS
// =============================================================================

func TestScenarioAnalysisRanksByPercent(t *testing.T) {
	// GIVEN: Three scenarios with clearly different outcomes
	// WHEN: Analyzed together
	// THEN: Ranked best percentage first, ranks 1..n
	sim := newSimulator()
	employees := workforce(3, 7)
	asOf := date(2025, time.June, 1)

	scenarios := []compliance.Scenario{
		{ID: "sc-none", Name: "Do nothing"},
		{ID: "sc-hire2", Name: "Hire two residents", Hires: []compliance.Employee{
			resident("emp-x1", date(2025, time.January, 1)),
			resident("emp-x2", date(2025, time.January, 1)),
		}},
		{ID: "sc-lose1", Name: "Lose a qualifier", Terminations: []compliance.EmployeeID{employees[0].ID}},
	}

	results, err := sim.ScenarioAnalysis(context.Background(), testOrg(), employees, scenarios, asOf, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].ScenarioID != "sc-hire2" || results[0].Rank != 1 {
		t.Errorf("expected sc-hire2 first, got %s (rank %d)", results[0].ScenarioID, results[0].Rank)
	}
	if results[1].ScenarioID != "sc-none" || results[1].Rank != 2 {
		t.Errorf("expected sc-none second, got %s (rank %d)", results[1].ScenarioID, results[1].Rank)
	}
	if results[2].ScenarioID != "sc-lose1" || results[2].Rank != 3 {
		t.Errorf("expected sc-lose1 last, got %s (rank %d)", results[2].ScenarioID, results[2].Rank)
	}
}

func TestScenarioAnalysisTieBreaksOnID(t *testing.T) {
	sim := newSimulator()
	employees := workforce(3, 7)

	scenarios := []compliance.Scenario{
		{ID: "sc-b", Name: "B"},
		{ID: "sc-a", Name: "A"},
	}

	results, err := sim.ScenarioAnalysis(context.Background(), testOrg(), employees, scenarios, date(2025, time.June, 1), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results[0].ScenarioID != "sc-a" || results[1].ScenarioID != "sc-b" {
		t.Errorf("expected deterministic id tie-break, got %s then %s",
			results[0].ScenarioID, results[1].ScenarioID)
	}
}

func TestScenarioAnalysisPropagatesBadScenario(t *testing.T) {
	sim := newSimulator()

	scenarios := []compliance.Scenario{
		{ID: "sc-bad", Terminations: []compliance.EmployeeID{"emp-ghost"}},
	}

	_, err := sim.ScenarioAnalysis(context.Background(), testOrg(), workforce(3, 7), scenarios, date(2025, time.June, 1), nil)

	if !errors.Is(err, compliance.ErrEmployeeNotFound) {
		t.Errorf("expected ErrEmployeeNotFound, got %v", err)
	}
}
