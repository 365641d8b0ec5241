/*
residency.go - Residency fact provider boundary

PURPOSE:
  The engine never geocodes. It consumes pre-resolved residency facts from
  an external provider (zone membership + zone type + the date that status
  began + a confidence score) and applies a strict trust rule.

TRUST RULE:
  A fact below the confidence floor is treated as NOT qualifying, unless
  the employee carries a manual verification (LastVerified). The engine
  never silently upgrades confidence; only a recorded human decision does.

FAILURE RULE:
  If the provider fails, the engine must not guess. It propagates
  ErrProviderUnavailable and leaves the fallback (retry, use last
  verified value) to the caller.

SEE ALSO:
  - program/provider.go: a static in-process provider for demos and tests
  - engine.go: RefreshResidency, VerifyResidency
*/
package compliance

import "context"

// ResidencyFact is the provider's answer for one address.
type ResidencyFact struct {
	QualifyingResident bool
	ZoneType           ZoneType
	Since              *Date
	Confidence         float64 // [0, 1]
}

// ResidencyProvider resolves an address to a residency fact. Callers own
// timeouts; the engine passes its context through.
type ResidencyProvider interface {
	ResolveResidency(ctx context.Context, address string) (ResidencyFact, error)
}

// ApplyFact writes a provider fact onto an employee record, enforcing the
// trust rule. Returns whether the fact was accepted as qualifying.
func ApplyFact(e *Employee, fact ResidencyFact, minConfidence float64) bool {
	trusted := fact.Confidence >= minConfidence || e.LastVerified != nil

	if !fact.QualifyingResident || !trusted {
		e.QualifyingResident = false
		e.ZoneType = ZoneNone
		e.ResidencyStart = nil
		return false
	}

	e.QualifyingResident = true
	e.ZoneType = fact.ZoneType
	if fact.Since != nil {
		since := *fact.Since
		e.ResidencyStart = &since
	} else {
		e.ResidencyStart = nil
	}
	return true
}
