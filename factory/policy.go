/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts JSON program-policy definitions into compliance.Policy values.
  This enables rule configuration without code changes - program
  administrators can tune thresholds and windows in JSON, and the factory
  produces the proper Go struct with defaults filled in.

WHY JSON?
  - Non-developers can adjust program parameters
  - Version control for policy definitions
  - Database or file storage of configurations

JSON SCHEMA:
  {
    "name": "standard-program",
    "threshold": 35,
    "warning_buffer": 10,
    "residency_days": 90,
    "pending_alert_lead_days": 10,
    "breach_margin_points": 5,
    "grace_expiry_lead_days": 90,
    "legacy_cap_fraction": 0.2,
    "redesignation_grace_years": 3,
    "threshold_miss_grace_years": 1,
    "max_forecast_periods": 24,
    "max_forecast_history": 36,
    "min_provider_confidence": 0.8
  }

  Every field is optional; omitted fields take the program defaults.

USAGE:
  factory := factory.NewPolicyFactory()
  policy, err := factory.ParsePolicy(jsonString)

SEE ALSO:
  - compliance/policy.go: Policy type and defaults
  - program/presets.go: canned configurations
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zoneline/compliance-engine/compliance"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a program policy. Pointer
// fields distinguish "absent, use default" from explicit zeroes.
type PolicyJSON struct {
	Name string `json:"name"`

	Threshold            *float64 `json:"threshold,omitempty"`
	WarningBuffer        *float64 `json:"warning_buffer,omitempty"`
	ResidencyDays        *int     `json:"residency_days,omitempty"`
	PendingAlertLeadDays *int     `json:"pending_alert_lead_days,omitempty"`
	BreachMarginPoints   *float64 `json:"breach_margin_points,omitempty"`
	GraceExpiryLeadDays  *int     `json:"grace_expiry_lead_days,omitempty"`
	LegacyCapFraction    *float64 `json:"legacy_cap_fraction,omitempty"`

	RedesignationGraceYears *int `json:"redesignation_grace_years,omitempty"`
	ThresholdMissGraceYears *int `json:"threshold_miss_grace_years,omitempty"`

	MaxForecastPeriods *int `json:"max_forecast_periods,omitempty"`
	MaxForecastHistory *int `json:"max_forecast_history,omitempty"`

	MinProviderConfidence *float64 `json:"min_provider_confidence,omitempty"`
}

// =============================================================================
// FACTORY
// =============================================================================

// PolicyFactory converts JSON definitions into compliance policies.
type PolicyFactory struct{}

func NewPolicyFactory() *PolicyFactory { return &PolicyFactory{} }

// ParsePolicy builds a Policy from JSON, starting from the program
// defaults and applying only the fields present.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (compliance.Policy, error) {
	var cfg PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		return compliance.Policy{}, fmt.Errorf("invalid policy JSON: %w", err)
	}
	return f.FromConfig(cfg)
}

// FromConfig builds a Policy from an already-decoded configuration.
func (f *PolicyFactory) FromConfig(cfg PolicyJSON) (compliance.Policy, error) {
	p := compliance.DefaultPolicy()

	if cfg.Threshold != nil {
		p.Threshold = decimal.NewFromFloat(*cfg.Threshold)
	}
	if cfg.WarningBuffer != nil {
		p.WarningBuffer = decimal.NewFromFloat(*cfg.WarningBuffer)
	}
	if cfg.ResidencyDays != nil {
		p.ResidencyDays = *cfg.ResidencyDays
	}
	if cfg.PendingAlertLeadDays != nil {
		p.PendingAlertLeadDays = *cfg.PendingAlertLeadDays
	}
	if cfg.BreachMarginPoints != nil {
		p.BreachMarginPoints = decimal.NewFromFloat(*cfg.BreachMarginPoints)
	}
	if cfg.GraceExpiryLeadDays != nil {
		p.GraceExpiryLeadDays = *cfg.GraceExpiryLeadDays
	}
	if cfg.LegacyCapFraction != nil {
		p.LegacyCapFraction = decimal.NewFromFloat(*cfg.LegacyCapFraction)
	}
	if cfg.RedesignationGraceYears != nil {
		p.RedesignationGraceYears = *cfg.RedesignationGraceYears
	}
	if cfg.ThresholdMissGraceYears != nil {
		p.ThresholdMissGraceYears = *cfg.ThresholdMissGraceYears
	}
	if cfg.MaxForecastPeriods != nil {
		p.MaxForecastPeriods = *cfg.MaxForecastPeriods
	}
	if cfg.MaxForecastHistory != nil {
		p.MaxForecastHistory = *cfg.MaxForecastHistory
	}
	if cfg.MinProviderConfidence != nil {
		p.MinProviderConfidence = *cfg.MinProviderConfidence
	}

	if err := p.Validate(); err != nil {
		return compliance.Policy{}, err
	}
	return p, nil
}
