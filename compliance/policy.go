/*
policy.go - Program policy constants and configuration

PURPOSE:
  Collects every tunable of the program rules in one struct. The numbers
  are regulation-driven policy constants, not engine behavior: the engine
  reads them, it never hardcodes them.

THE DEFAULTS:
  Threshold             35%   minimum qualifying percentage
  WarningBuffer         10pt  warning band below threshold
  ResidencyDays         90    minimum qualifying-residency tenure
  PendingAlertLeadDays  10    alert when tenure >= ResidencyDays - lead
  BreachMarginPoints    5pt   imminent-breach alert band above threshold
  GraceExpiryLeadDays   90    alert window before a grace period ends
  LegacyCapFraction     0.20  legacy employees / qualifying employees cap
  RedesignationGraceYears 3   grace after a zone loses designation
  ThresholdMissGraceYears 1   grace after first falling below threshold

FORECAST BOUNDS:
  MaxForecastPeriods and MaxForecastHistory keep the worst-case cost of a
  projection linear and small regardless of how much history exists.

SEE ALSO:
  - factory/policy.go: JSON configuration of these values
  - program/presets.go: canned configurations
*/
package compliance

import "github.com/shopspring/decimal"

// Policy holds the program rule parameters.
type Policy struct {
	// Threshold is the default minimum qualifying percentage (points).
	// Organizations may override it per-record.
	Threshold decimal.Decimal

	// WarningBuffer is the band (points) below threshold that maps to
	// StatusWarning instead of StatusCritical.
	WarningBuffer decimal.Decimal

	// ResidencyDays is the minimum qualifying-residency tenure before an
	// employee counts. The boundary is inclusive: exactly ResidencyDays
	// days counts.
	ResidencyDays int

	// PendingAlertLeadDays controls pending_residency_near_complete:
	// alert once tenure reaches ResidencyDays - PendingAlertLeadDays.
	PendingAlertLeadDays int

	// BreachMarginPoints controls threshold_breach_imminent: alert when
	// the percentage sits within this many points above threshold and the
	// trend is downward.
	BreachMarginPoints decimal.Decimal

	// GraceExpiryLeadDays controls grace_period_expiring.
	GraceExpiryLeadDays int

	// LegacyCapFraction is the organization-wide cap on legacy employees
	// as a fraction of qualifying employees. Enforcement is advisory: the
	// alert generator reports breaches, the calculator does not discount.
	LegacyCapFraction decimal.Decimal

	// Grace durations, kept as separate named constants because the two
	// triggers carry different windows.
	RedesignationGraceYears int
	ThresholdMissGraceYears int

	// Forecast bounds.
	MaxForecastPeriods int
	MaxForecastHistory int

	// MinProviderConfidence is the floor below which a residency fact is
	// treated as non-qualifying unless manually verified.
	MinProviderConfidence float64
}

// DefaultPolicy returns the program defaults.
func DefaultPolicy() Policy {
	return Policy{
		Threshold:               decimal.NewFromInt(35),
		WarningBuffer:           decimal.NewFromInt(10),
		ResidencyDays:           90,
		PendingAlertLeadDays:    10,
		BreachMarginPoints:      decimal.NewFromInt(5),
		GraceExpiryLeadDays:     90,
		LegacyCapFraction:       decimal.NewFromFloat(0.20),
		RedesignationGraceYears: 3,
		ThresholdMissGraceYears: 1,
		MaxForecastPeriods:      24,
		MaxForecastHistory:      36,
		MinProviderConfidence:   0.8,
	}
}

// Validate rejects configurations the engine cannot evaluate sensibly.
func (p Policy) Validate() error {
	if p.Threshold.IsNegative() || p.Threshold.GreaterThan(hundred) {
		return &InvalidInputError{Field: "threshold", Reason: "must be within [0, 100]"}
	}
	if p.WarningBuffer.IsNegative() {
		return &InvalidInputError{Field: "warning_buffer", Reason: "must not be negative"}
	}
	if p.ResidencyDays < 0 {
		return &InvalidInputError{Field: "residency_days", Reason: "must not be negative"}
	}
	if p.PendingAlertLeadDays < 0 || p.PendingAlertLeadDays > p.ResidencyDays {
		return &InvalidInputError{Field: "pending_alert_lead_days", Reason: "must be within [0, residency_days]"}
	}
	if p.LegacyCapFraction.IsNegative() || p.LegacyCapFraction.GreaterThan(decimal.NewFromInt(1)) {
		return &InvalidInputError{Field: "legacy_cap_fraction", Reason: "must be within [0, 1]"}
	}
	if p.RedesignationGraceYears <= 0 || p.ThresholdMissGraceYears <= 0 {
		return &InvalidInputError{Field: "grace_years", Reason: "must be positive"}
	}
	if p.MaxForecastPeriods <= 0 || p.MaxForecastHistory <= 0 {
		return &InvalidInputError{Field: "forecast_bounds", Reason: "must be positive"}
	}
	if p.MinProviderConfidence < 0 || p.MinProviderConfidence > 1 {
		return &InvalidInputError{Field: "min_provider_confidence", Reason: "must be within [0, 1]"}
	}
	return nil
}
