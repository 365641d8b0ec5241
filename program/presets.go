/*
presets.go - Canned program policy configurations

PURPOSE:
  Ready-to-use JSON policy definitions for common program variants. These
  feed the factory; demos and tests load them instead of hand-writing
  JSON.

AVAILABLE PRESETS:
  StandardProgramJSON: the statutory defaults (35% / 90 days / 3y grace)
  StrictProgramJSON:   higher threshold, shorter grace windows
  PilotProgramJSON:    relaxed thresholds for pilot participants

SEE ALSO:
  - factory/policy.go: JSON schema and parsing
*/
package program

import (
	"encoding/json"

	"github.com/zoneline/compliance-engine/factory"
)

// StandardProgramJSON returns the statutory default configuration.
func StandardProgramJSON() string {
	return marshal(factory.PolicyJSON{Name: "standard-program"})
}

// StrictProgramJSON returns a variant with a higher threshold and shorter
// grace windows, for organizations under heightened review.
func StrictProgramJSON(threshold float64) string {
	redesignation := 2
	thresholdMiss := 1
	buffer := 5.0
	return marshal(factory.PolicyJSON{
		Name:                    "strict-program",
		Threshold:               &threshold,
		WarningBuffer:           &buffer,
		RedesignationGraceYears: &redesignation,
		ThresholdMissGraceYears: &thresholdMiss,
	})
}

// PilotProgramJSON returns a relaxed variant used for pilot participants:
// lower threshold, longer residency alert lead.
func PilotProgramJSON(threshold float64) string {
	lead := 20
	return marshal(factory.PolicyJSON{
		Name:                 "pilot-program",
		Threshold:            &threshold,
		PendingAlertLeadDays: &lead,
	})
}

func marshal(cfg factory.PolicyJSON) string {
	b, _ := json.Marshal(cfg)
	return string(b)
}
