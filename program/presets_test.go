package program_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/zoneline/compliance-engine/compliance"
	"github.com/zoneline/compliance-engine/factory"
	"github.com/zoneline/compliance-engine/program"
)

func TestStandardPresetMatchesDefaults(t *testing.T) {
	policy, err := factory.NewPolicyFactory().ParsePolicy(program.StandardProgramJSON())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := compliance.DefaultPolicy()
	if !policy.Threshold.Equal(def.Threshold) || policy.ResidencyDays != def.ResidencyDays {
		t.Errorf("standard preset must match the defaults, got %+v", policy)
	}
}

func TestStrictPresetTightensWindows(t *testing.T) {
	policy, err := factory.NewPolicyFactory().ParsePolicy(program.StrictProgramJSON(45))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !policy.Threshold.Equal(decimal.NewFromInt(45)) {
		t.Errorf("expected threshold 45, got %s", policy.Threshold)
	}
	if !policy.WarningBuffer.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected a 5-point warning buffer, got %s", policy.WarningBuffer)
	}
	if policy.RedesignationGraceYears != 2 || policy.ThresholdMissGraceYears != 1 {
		t.Errorf("expected shortened grace windows, got %d/%d",
			policy.RedesignationGraceYears, policy.ThresholdMissGraceYears)
	}
}

func TestPilotPresetRelaxesThreshold(t *testing.T) {
	policy, err := factory.NewPolicyFactory().ParsePolicy(program.PilotProgramJSON(25))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !policy.Threshold.Equal(decimal.NewFromInt(25)) {
		t.Errorf("expected threshold 25, got %s", policy.Threshold)
	}
	if policy.PendingAlertLeadDays != 20 {
		t.Errorf("expected a 20-day alert lead, got %d", policy.PendingAlertLeadDays)
	}
}

func TestZoneValidation(t *testing.T) {
	for _, z := range program.AllZones {
		if !program.ValidZone(z) {
			t.Errorf("expected %s recognized", z)
		}
	}
	if program.ValidZone("opportunity_zone") {
		t.Error("unknown designation must be rejected")
	}
	if program.ValidZone(compliance.ZoneNone) {
		t.Error("the empty zone is not a designation")
	}
}
