/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates an organization and
	workforce that demonstrates specific compliance situations.

AVAILABLE SCENARIOS:

	healthy-firm:      Comfortably above threshold, all statuses clean
	borderline-firm:   Just above threshold with pending residents
	redesignated-zone: Zone lost designation; legacy carve-outs + grace
	legacy-heavy:      Legacy employees exceed the advisory cap

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create the organization
 3. Add employees with residency attributes
 4. Apply redesignations/grace periods where the scenario needs them
 5. Run an initial compliance calculation so history exists

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "borderline-firm"}

ADDING NEW SCENARIOS:
 1. Add to 'demoScenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - program/zones.go: Zone designations used in the seed data
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zoneline/compliance-engine/compliance"
	"github.com/zoneline/compliance-engine/program"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var demoScenarios = []DemoScenarioDTO{
	{
		ID:          "healthy-firm",
		Name:        "Healthy Firm",
		Description: "Comfortably above the residency threshold, no alerts",
	},
	{
		ID:          "borderline-firm",
		Name:        "Borderline Firm",
		Description: "Just above threshold with residents still inside the 90-day window",
	},
	{
		ID:          "redesignated-zone",
		Name:        "Redesignated Zone",
		Description: "Zone lost its designation: legacy carve-outs and an active grace period",
	},
	{
		ID:          "legacy-heavy",
		Name:        "Legacy Heavy",
		Description: "Legacy employees exceed the advisory cap fraction",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, demoScenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range demoScenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, DemoScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "healthy-firm":
		err = h.loadHealthyFirmScenario(ctx)
	case "borderline-firm":
		err = h.loadBorderlineFirmScenario(ctx)
	case "redesignated-zone":
		err = h.loadRedesignatedZoneScenario(ctx)
	case "legacy-heavy":
		err = h.loadLegacyHeavyScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadHealthyFirmScenario: 10 employees, 6 qualified residents. Well above
// the 35% threshold; forecasting has a short clean history.
func (h *Handler) loadHealthyFirmScenario(ctx context.Context) error {
	today := compliance.Today()
	certified := today.AddYears(-2)

	org := compliance.Organization{
		ID:                    "org-healthy",
		Name:                  "Meridian Systems",
		CertifiedAt:           certified,
		PrincipalOfficeInZone: true,
		PrincipalOfficeZone:   program.ZoneCensusTract,
	}
	if err := h.Store.SaveOrganization(ctx, org); err != nil {
		return err
	}

	for i, spec := range []struct {
		id       string
		resident bool
		days     int
	}{
		{"emp-h01", true, 700}, {"emp-h02", true, 650}, {"emp-h03", true, 500},
		{"emp-h04", true, 400}, {"emp-h05", true, 300}, {"emp-h06", true, 200},
		{"emp-h07", false, 0}, {"emp-h08", false, 0}, {"emp-h09", false, 0},
		{"emp-h10", false, 0},
	} {
		e := compliance.Employee{
			ID:             compliance.EmployeeID(spec.id),
			OrganizationID: org.ID,
			Name:           "Employee " + spec.id,
			HireDate:       certified.AddDays(i * 30),
			Active:         true,
		}
		if spec.resident {
			start := today.AddDays(-spec.days)
			e.QualifyingResident = true
			e.ZoneType = program.ZoneCensusTract
			e.ResidencyStart = &start
		}
		if err := h.Store.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}

	return h.seedHistory(ctx, org.ID, 3)
}

// loadBorderlineFirmScenario: 10 employees, 4 qualified, 2 pending inside
// the 90-day window. Sits just above threshold; pending-residency and
// breach-imminent alerts fire.
func (h *Handler) loadBorderlineFirmScenario(ctx context.Context) error {
	today := compliance.Today()
	certified := today.AddYears(-1)

	org := compliance.Organization{
		ID:                    "org-borderline",
		Name:                  "Granite Ridge Contracting",
		CertifiedAt:           certified,
		PrincipalOfficeInZone: true,
		PrincipalOfficeZone:   program.ZoneQualifiedCounty,
	}
	if err := h.Store.SaveOrganization(ctx, org); err != nil {
		return err
	}

	for i, spec := range []struct {
		id       string
		resident bool
		days     int
	}{
		{"emp-b01", true, 400}, {"emp-b02", true, 350}, {"emp-b03", true, 200},
		{"emp-b04", true, 120},
		{"emp-b05", true, 85}, {"emp-b06", true, 82}, // pending, nearly complete
		{"emp-b07", false, 0}, {"emp-b08", false, 0}, {"emp-b09", false, 0},
		{"emp-b10", false, 0},
	} {
		e := compliance.Employee{
			ID:             compliance.EmployeeID(spec.id),
			OrganizationID: org.ID,
			Name:           "Employee " + spec.id,
			HireDate:       certified.AddDays(i * 20),
			Active:         true,
		}
		if spec.resident {
			start := today.AddDays(-spec.days)
			e.QualifyingResident = true
			e.ZoneType = program.ZoneQualifiedCounty
			e.ResidencyStart = &start
		}
		if err := h.Store.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}

	return h.seedHistory(ctx, org.ID, 3)
}

// loadRedesignatedZoneScenario: residents since before certification were
// in a zone that lost its designation. The redesignation grants legacy
// carve-outs and opens a grace period.
func (h *Handler) loadRedesignatedZoneScenario(ctx context.Context) error {
	today := compliance.Today()
	certified := today.AddYears(-1)

	org := compliance.Organization{
		ID:                    "org-redesignated",
		Name:                  "Foxglove Analytics",
		CertifiedAt:           certified,
		PrincipalOfficeInZone: true,
		PrincipalOfficeZone:   program.ZoneCensusTract,
	}
	if err := h.Store.SaveOrganization(ctx, org); err != nil {
		return err
	}

	for i, spec := range []struct {
		id   string
		zone compliance.ZoneType
		days int
	}{
		{"emp-r01", program.ZoneBaseClosureArea, 500}, // pre-certification: becomes legacy
		{"emp-r02", program.ZoneBaseClosureArea, 450}, // pre-certification: becomes legacy
		{"emp-r03", program.ZoneBaseClosureArea, 120}, // post-certification: loses status
		{"emp-r04", program.ZoneCensusTract, 300},
		{"emp-r05", compliance.ZoneNone, 0},
		{"emp-r06", compliance.ZoneNone, 0},
	} {
		e := compliance.Employee{
			ID:             compliance.EmployeeID(spec.id),
			OrganizationID: org.ID,
			Name:           "Employee " + spec.id,
			HireDate:       certified.AddDays(i * 15),
			Active:         true,
		}
		if spec.zone != compliance.ZoneNone {
			start := today.AddDays(-spec.days)
			e.QualifyingResident = true
			e.ZoneType = spec.zone
			e.ResidencyStart = &start
		}
		if err := h.Store.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}

	if err := h.seedHistory(ctx, org.ID, 2); err != nil {
		return err
	}

	// The base closure area loses its designation today.
	_, err := h.Engine.RecordZoneRedesignation(ctx, org.ID, program.ZoneBaseClosureArea, today)
	return err
}

// loadLegacyHeavyScenario: legacy carve-outs dominate the qualifying
// count, exceeding the advisory cap fraction.
func (h *Handler) loadLegacyHeavyScenario(ctx context.Context) error {
	today := compliance.Today()
	certified := today.AddYears(-3)

	org := compliance.Organization{
		ID:                    "org-legacy",
		Name:                  "Ironwood Fabrication",
		CertifiedAt:           certified,
		PrincipalOfficeInZone: true,
		PrincipalOfficeZone:   program.ZoneIndianLand,
	}
	if err := h.Store.SaveOrganization(ctx, org); err != nil {
		return err
	}

	for i, spec := range []struct {
		id       string
		resident bool
		legacy   bool
		days     int
	}{
		{"emp-l01", true, false, 600},
		{"emp-l02", false, true, 0},
		{"emp-l03", false, true, 0},
		{"emp-l04", false, true, 0},
		{"emp-l05", false, false, 0},
		{"emp-l06", false, false, 0},
		{"emp-l07", false, false, 0},
		{"emp-l08", false, false, 0},
	} {
		e := compliance.Employee{
			ID:             compliance.EmployeeID(spec.id),
			OrganizationID: org.ID,
			Name:           "Employee " + spec.id,
			HireDate:       certified.AddDays(i * 45),
			Active:         true,
			LegacyEmployee: spec.legacy,
		}
		if spec.resident {
			start := today.AddDays(-spec.days)
			e.QualifyingResident = true
			e.ZoneType = program.ZoneIndianLand
			e.ResidencyStart = &start
		}
		if err := h.Store.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}

	return h.seedHistory(ctx, org.ID, 2)
}

// seedHistory runs backdated calculations so the forecaster and trend
// alerts have points to work with, ending with one at today.
func (h *Handler) seedHistory(ctx context.Context, orgID compliance.OrganizationID, monthsBack int) error {
	today := compliance.Today()
	for m := monthsBack; m >= 0; m-- {
		at := today.AddMonths(-m)
		if _, err := h.Engine.CalculateCompliance(ctx, orgID, &at); err != nil {
			return err
		}
	}
	return nil
}
