package factory_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/zoneline/compliance-engine/compliance"
	"github.com/zoneline/compliance-engine/factory"
)

func TestEmptyJSONYieldsDefaults(t *testing.T) {
	// GIVEN: An empty policy document
	// WHEN: Parsed
	// THEN: Every field carries the program default
	f := factory.NewPolicyFactory()

	policy, err := f.ParsePolicy(`{}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := compliance.DefaultPolicy()
	if !policy.Threshold.Equal(def.Threshold) {
		t.Errorf("expected default threshold %s, got %s", def.Threshold, policy.Threshold)
	}
	if policy.ResidencyDays != def.ResidencyDays {
		t.Errorf("expected default residency days %d, got %d", def.ResidencyDays, policy.ResidencyDays)
	}
	if policy.RedesignationGraceYears != def.RedesignationGraceYears {
		t.Errorf("expected default grace years %d, got %d", def.RedesignationGraceYears, policy.RedesignationGraceYears)
	}
}

func TestOverridesApplied(t *testing.T) {
	// GIVEN: A document overriding a few fields
	// WHEN: Parsed
	// THEN: Overrides stick, untouched fields keep their defaults
	f := factory.NewPolicyFactory()

	policy, err := f.ParsePolicy(`{
		"name": "custom",
		"threshold": 50,
		"residency_days": 120,
		"threshold_miss_grace_years": 2
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !policy.Threshold.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected threshold 50, got %s", policy.Threshold)
	}
	if policy.ResidencyDays != 120 {
		t.Errorf("expected 120 residency days, got %d", policy.ResidencyDays)
	}
	if policy.ThresholdMissGraceYears != 2 {
		t.Errorf("expected 2 grace years, got %d", policy.ThresholdMissGraceYears)
	}
	if policy.RedesignationGraceYears != compliance.DefaultPolicy().RedesignationGraceYears {
		t.Error("untouched fields must keep their defaults")
	}
}

func TestExplicitZeroIsNotAbsent(t *testing.T) {
	// GIVEN: An explicit zero for a field whose default is non-zero
	// WHEN: Parsed
	// THEN: The zero is honored, not replaced by the default
	f := factory.NewPolicyFactory()

	policy, err := f.ParsePolicy(`{"warning_buffer": 0}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !policy.WarningBuffer.IsZero() {
		t.Errorf("expected warning buffer 0, got %s", policy.WarningBuffer)
	}
}

func TestMalformedJSONRejected(t *testing.T) {
	f := factory.NewPolicyFactory()

	if _, err := f.ParsePolicy(`{"threshold": `); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestInvalidConfigurationRejected(t *testing.T) {
	f := factory.NewPolicyFactory()

	cases := map[string]string{
		"threshold above 100":  `{"threshold": 150}`,
		"negative residency":   `{"residency_days": -1}`,
		"lead beyond tenure":   `{"residency_days": 5, "pending_alert_lead_days": 10}`,
		"cap above 1":          `{"legacy_cap_fraction": 1.5}`,
		"zero grace years":     `{"redesignation_grace_years": 0}`,
		"confidence above 1":   `{"min_provider_confidence": 2}`,
		"zero forecast bounds": `{"max_forecast_periods": 0}`,
	}

	for name, doc := range cases {
		if _, err := f.ParsePolicy(doc); err == nil {
			t.Errorf("%s: expected a validation error", name)
		} else if !compliance.IsClientError(err) {
			t.Errorf("%s: expected a client error, got %v", name, err)
		}
	}
}
