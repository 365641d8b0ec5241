/*
handlers.go - HTTP API handlers for the compliance engine

PURPOSE:
  Exposes the compliance engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Organizations:
    GET    /api/organizations                      List organizations
    POST   /api/organizations                      Register organization
    GET    /api/organizations/{id}                 Get organization
    GET    /api/organizations/{id}/employees       List workforce
    POST   /api/organizations/{id}/employees       Add employee

  Compliance:
    POST   /api/organizations/{id}/compliance/calculate  Recalculate and append snapshot
    GET    /api/organizations/{id}/compliance            Latest snapshot
    GET    /api/organizations/{id}/history               Snapshot log
    GET    /api/organizations/{id}/grace-periods         Grace period audit trail
    GET    /api/organizations/{id}/forecast              Trend projection
    GET    /api/organizations/{id}/alerts                Actionable warnings
    POST   /api/organizations/{id}/redesignation         Record zone redesignation

  Simulation:
    POST   /api/organizations/{id}/simulate/hire         What-if hire
    POST   /api/organizations/{id}/simulate/termination  What-if departure
    POST   /api/organizations/{id}/scenarios             Ranked scenario analysis

  Employees:
    GET    /api/employees/{id}                     Get employee
    GET    /api/employees/{id}/status              Eligibility evaluation
    POST   /api/employees/{id}/refresh-residency   Re-resolve through provider
    POST   /api/employees/{id}/verify-residency    Record manual verification

  Scenarios:
    GET    /api/scenarios                          List demo scenarios
    POST   /api/scenarios/load                     Load a demo scenario
    POST   /api/scenarios/reset                    Reset database

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Organization or employee not found
  - 409: Persistence conflict
  - 502: Residency provider unavailable
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/zoneline/compliance-engine/compliance"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// ResettableStore is the store surface the API needs: full persistence
// plus the demo-only reset.
type ResettableStore interface {
	compliance.Store
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  ResettableStore
	Engine *compliance.Engine

	// Track currently loaded demo scenario
	currentScenario string
}

// NewHandler creates a new handler around a store and engine.
func NewHandler(store ResettableStore, engine *compliance.Engine) *Handler {
	return &Handler{Store: store, Engine: engine}
}

// =============================================================================
// ORGANIZATION HANDLERS
// =============================================================================

// ListOrganizations returns all organizations.
func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.Store.ListOrganizations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list organizations", err)
		return
	}

	dtos := make([]OrganizationDTO, len(orgs))
	for i, o := range orgs {
		dtos[i] = toOrganizationDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetOrganization returns a single organization.
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	id := compliance.OrganizationID(chi.URLParam(r, "id"))

	org, err := h.Store.GetOrganization(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get organization", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationDTO(*org))
}

// CreateOrganization registers a new organization.
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	certifiedAt, err := compliance.ParseDate(req.CertifiedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid certified_at format (use YYYY-MM-DD)", err)
		return
	}

	org := compliance.Organization{
		ID:                    compliance.OrganizationID(req.ID),
		Name:                  req.Name,
		CertifiedAt:           certifiedAt,
		PrincipalOfficeInZone: req.PrincipalOfficeInZone,
		PrincipalOfficeZone:   compliance.ZoneType(req.PrincipalOfficeZone),
	}
	if req.Threshold != nil {
		org.Threshold = decimal.NewFromFloat(*req.Threshold)
	}

	if err := h.Store.SaveOrganization(r.Context(), org); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create organization", err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrganizationDTO(org))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns an organization's workforce.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	orgID := compliance.OrganizationID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetOrganization(r.Context(), orgID); err != nil {
		writeDomainError(w, "Failed to get organization", err)
		return
	}
	employees, err := h.Store.ListEmployees(r.Context(), orgID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee adds an employee to an organization.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	orgID := compliance.OrganizationID(chi.URLParam(r, "id"))

	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, err := h.Store.GetOrganization(r.Context(), orgID); err != nil {
		writeDomainError(w, "Failed to get organization", err)
		return
	}

	emp, err := employeeFromRequest(orgID, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee", err)
		return
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := compliance.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// GetEmployeeStatus evaluates one employee's eligibility.
func (h *Handler) GetEmployeeStatus(w http.ResponseWriter, r *http.Request) {
	id := compliance.EmployeeID(chi.URLParam(r, "id"))

	asOf, err := parseDateQuery(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	result, err := h.Engine.CheckEmployeeStatus(r.Context(), id, asOf)
	if err != nil {
		writeDomainError(w, "Failed to evaluate employee", err)
		return
	}

	at := compliance.Today()
	if asOf != nil {
		at = *asOf
	}
	writeJSON(w, http.StatusOK, EligibilityDTO{
		EmployeeID:   string(result.EmployeeID),
		Counts:       result.Counts,
		Reason:       string(result.Reason),
		DaysResident: result.DaysResident,
		AsOf:         at.String(),
	})
}

// =============================================================================
// COMPLIANCE HANDLERS
// =============================================================================

// CalculateCompliance recomputes compliance and appends a snapshot.
func (h *Handler) CalculateCompliance(w http.ResponseWriter, r *http.Request) {
	orgID := compliance.OrganizationID(chi.URLParam(r, "id"))

	var req CalculateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	asOf, err := parseDateField(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	snapshot, err := h.Engine.CalculateCompliance(r.Context(), orgID, asOf)
	if err != nil {
		writeDomainError(w, "Failed to calculate compliance", err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(*snapshot))
}

// GetLatestCompliance returns the most recent snapshot.
func (h *Handler) GetLatestCompliance(w http.ResponseWriter, r *http.Request) {
	orgID := compliance.OrganizationID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetOrganization(r.Context(), orgID); err != nil {
		writeDomainError(w, "Failed to get organization", err)
		return
	}
	latest, err := h.Store.LatestSnapshot(r.Context(), orgID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
		return
	}
	if latest == nil {
		writeError(w, http.StatusNotFound, "No compliance snapshot yet", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(*latest))
}

// GetHistory returns the snapshot log, optionally since a date.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	orgID := compliance.OrganizationID(chi.URLParam(r, "id"))

	since, err := parseDateQuery(r, "since")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid since format (use YYYY-MM-DD)", err)
		return
	}

	history, err := h.Engine.History(r.Context(), orgID, since)
	if err != nil {
		writeDomainError(w, "Failed to load history", err)
		return
	}

	dtos := make([]SnapshotDTO, len(history))
	for i, s := range history {
		dtos[i] = toSnapshotDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetGracePeriods returns the grace period audit trail.
func (h *Handler) GetGracePeriods(w http.ResponseWriter, r *http.Request) {
	orgID := compliance.OrganizationID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetOrganization(r.Context(), orgID); err != nil {
		writeDomainError(w, "Failed to get organization", err)
		return
	}
	periods, err := h.Store.GracePeriodHistory(r.Context(), orgID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load grace periods", err)
		return
	}

	dtos := make([]GracePeriodDTO, len(periods))
	for i, g := range periods {
		dtos[i] = toGracePeriodDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordRedesignation applies a zone losing its designation.
func (h *Handler) RecordRedesignation(w http.ResponseWriter, r *http.Request) {
	orgID := compliance.OrganizationID(chi.URLParam(r, "id"))

	var req RedesignationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	asOf := compliance.Today()
	if req.AsOf != "" {
		parsed, err := compliance.ParseDate(req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
			return
		}
		asOf = parsed
	}

	snapshot, err := h.Engine.RecordZoneRedesignation(r.Context(), orgID, compliance.ZoneType(req.Zone), asOf)
	if err != nil {
		writeDomainError(w, "Failed to record redesignation", err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(*snapshot))
}

// =============================================================================
// FORECAST AND ALERT HANDLERS
// =============================================================================

// Forecast projects the organization's compliance trend forward.
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	orgID := compliance.OrganizationID(chi.URLParam(r, "id"))

	periods := 6
	if p := r.URL.Query().Get("periods"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid periods parameter", err)
			return
		}
		periods = parsed
	}

	projection, err := h.Engine.ForecastCompliance(r.Context(), orgID, periods)
	if err != nil {
		writeDomainError(w, "Failed to forecast compliance", err)
		return
	}

	dtos := make([]ForecastPointDTO, len(projection))
	for i, p := range projection {
		dtos[i] = toForecastPointDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Alerts returns actionable warnings for an organization.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	orgID := compliance.OrganizationID(chi.URLParam(r, "id"))

	alerts, err := h.Engine.GenerateAlerts(r.Context(), orgID)
	if err != nil {
		writeDomainError(w, "Failed to generate alerts", err)
		return
	}

	dtos := make([]AlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = toAlertDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SIMULATION HANDLERS
// =============================================================================

// SimulateHire projects compliance with a hypothetical new employee.
func (h *Handler) SimulateHire(w http.ResponseWriter, r *http.Request) {
	orgID := compliance.OrganizationID(chi.URLParam(r, "id"))

	var req SimulateHireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	hire, err := employeeFromRequest(orgID, req.Employee)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee", err)
		return
	}
	asOf, err := parseDateField(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	snapshot, err := h.Engine.SimulateHire(r.Context(), orgID, hire, asOf)
	if err != nil {
		writeDomainError(w, "Failed to simulate hire", err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(*snapshot))
}

// SimulateTermination projects compliance with a departure.
func (h *Handler) SimulateTermination(w http.ResponseWriter, r *http.Request) {
	orgID := compliance.OrganizationID(chi.URLParam(r, "id"))

	var req SimulateTerminationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}
	asOf, err := parseDateField(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	snapshot, err := h.Engine.SimulateTermination(r.Context(), orgID, compliance.EmployeeID(req.EmployeeID), asOf)
	if err != nil {
		writeDomainError(w, "Failed to simulate termination", err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(*snapshot))
}

// ScenarioAnalysis evaluates and ranks multiple hiring scenarios.
func (h *Handler) ScenarioAnalysis(w http.ResponseWriter, r *http.Request) {
	orgID := compliance.OrganizationID(chi.URLParam(r, "id"))

	var req ScenarioAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Scenarios) == 0 {
		writeError(w, http.StatusBadRequest, "at least one scenario is required", nil)
		return
	}
	asOf, err := parseDateField(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	scenarios := make([]compliance.Scenario, len(req.Scenarios))
	for i, spec := range req.Scenarios {
		s := compliance.Scenario{ID: spec.ID, Name: spec.Name}
		for _, hireReq := range spec.Hires {
			hire, err := employeeFromRequest(orgID, hireReq)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid employee in scenario "+spec.ID, err)
				return
			}
			s.Hires = append(s.Hires, hire)
		}
		for _, id := range spec.Terminations {
			s.Terminations = append(s.Terminations, compliance.EmployeeID(id))
		}
		scenarios[i] = s
	}

	results, err := h.Engine.ScenarioAnalysis(r.Context(), orgID, scenarios, asOf)
	if err != nil {
		writeDomainError(w, "Failed to analyze scenarios", err)
		return
	}

	dtos := make([]ScenarioResultDTO, len(results))
	for i, res := range results {
		dtos[i] = ScenarioResultDTO{
			ScenarioID: res.ScenarioID,
			Name:       res.Name,
			Rank:       res.Rank,
			Snapshot:   toSnapshotDTO(res.Snapshot),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESIDENCY HANDLERS
// =============================================================================

// RefreshResidency re-resolves an employee's address through the provider.
func (h *Handler) RefreshResidency(w http.ResponseWriter, r *http.Request) {
	id := compliance.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Engine.RefreshResidency(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to refresh residency", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// VerifyResidency records a manual residency verification.
func (h *Handler) VerifyResidency(w http.ResponseWriter, r *http.Request) {
	id := compliance.EmployeeID(chi.URLParam(r, "id"))

	var req VerifyResidencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	verifiedAt, err := compliance.ParseDate(req.VerifiedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid verified_at format (use YYYY-MM-DD)", err)
		return
	}
	since, err := parseDateField(req.Since)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid since format (use YYYY-MM-DD)", err)
		return
	}

	fact := compliance.ResidencyFact{
		QualifyingResident: req.QualifyingResident,
		ZoneType:           compliance.ZoneType(req.ZoneType),
		Since:              since,
		Confidence:         req.Confidence,
	}

	emp, err := h.Engine.VerifyResidency(r.Context(), id, verifiedAt, fact)
	if err != nil {
		writeDomainError(w, "Failed to verify residency", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// =============================================================================
// HELPERS
// =============================================================================

func employeeFromRequest(orgID compliance.OrganizationID, req CreateEmployeeRequest) (compliance.Employee, error) {
	if req.ID == "" {
		return compliance.Employee{}, errors.New("id is required")
	}

	hireDate, err := compliance.ParseDate(req.HireDate)
	if err != nil {
		return compliance.Employee{}, err
	}
	residencyStart, err := parseDateField(req.ResidencyStart)
	if err != nil {
		return compliance.Employee{}, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	return compliance.Employee{
		ID:                 compliance.EmployeeID(req.ID),
		OrganizationID:     orgID,
		Name:               req.Name,
		Address:            req.Address,
		HireDate:           hireDate,
		Active:             active,
		QualifyingResident: req.QualifyingResident,
		ZoneType:           compliance.ZoneType(req.ZoneType),
		ResidencyStart:     residencyStart,
		LegacyEmployee:     req.LegacyEmployee,
	}, nil
}

func parseDateQuery(r *http.Request, name string) (*compliance.Date, error) {
	return parseDateField(r.URL.Query().Get(name))
}

func parseDateField(value string) (*compliance.Date, error) {
	if value == "" {
		return nil, nil
	}
	d, err := compliance.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var provErr *compliance.ProviderError
	switch {
	case compliance.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case compliance.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, compliance.ErrPersistenceConflict):
		writeError(w, http.StatusConflict, message, err)
	case errors.As(err, &provErr) || errors.Is(err, compliance.ErrProviderUnavailable):
		writeError(w, http.StatusBadGateway, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
