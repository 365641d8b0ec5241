// Package program carries the program-specific vocabulary on top of the
// compliance engine: zone designations, canned policy configurations, and
// a static residency provider for demos and tests.
package program

import "github.com/zoneline/compliance-engine/compliance"

// =============================================================================
// ZONE DESIGNATIONS
// =============================================================================

// Zone designations recognized by the program. The engine only compares
// zone types; the meaning of each designation lives here.
const (
	ZoneCensusTract        compliance.ZoneType = "qualified_census_tract"
	ZoneQualifiedCounty    compliance.ZoneType = "qualified_county"
	ZoneIndianLand         compliance.ZoneType = "indian_land"
	ZoneBaseClosureArea    compliance.ZoneType = "base_closure_area"
	ZoneDisasterArea       compliance.ZoneType = "disaster_area"
	ZoneGovernorDesignated compliance.ZoneType = "governor_designated"

	// ZoneRedesignated marks areas that have lost designation but remain
	// recognized during their transition window.
	ZoneRedesignated compliance.ZoneType = "redesignated"
)

// AllZones lists every designation, for validation and UI enumeration.
var AllZones = []compliance.ZoneType{
	ZoneCensusTract,
	ZoneQualifiedCounty,
	ZoneIndianLand,
	ZoneBaseClosureArea,
	ZoneDisasterArea,
	ZoneGovernorDesignated,
	ZoneRedesignated,
}

// ValidZone reports whether the zone type is a recognized designation.
func ValidZone(z compliance.ZoneType) bool {
	for _, known := range AllZones {
		if z == known {
			return true
		}
	}
	return false
}
