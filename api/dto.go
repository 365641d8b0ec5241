/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Organization:
    OrganizationDTO, CreateOrganizationRequest

  Employee:
    EmployeeDTO, CreateEmployeeRequest, EligibilityDTO

  Compliance:
    SnapshotDTO, GracePeriodDTO, ForecastPointDTO, AlertDTO

  Simulation:
    SimulateHireRequest, SimulateTerminationRequest,
    ScenarioAnalysisRequest, ScenarioResultDTO

  Scenarios:
    DemoScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - compliance/types.go: Domain model these map from
*/
package api

import (
	"time"

	"github.com/zoneline/compliance-engine/compliance"
)

// =============================================================================
// ORGANIZATION TYPES
// =============================================================================

// OrganizationDTO represents an organization in API responses.
type OrganizationDTO struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Threshold             string `json:"threshold"`
	CertifiedAt           string `json:"certified_at"`
	PrincipalOfficeInZone bool   `json:"principal_office_in_zone"`
	PrincipalOfficeZone   string `json:"principal_office_zone,omitempty"`
}

// CreateOrganizationRequest is the request to register an organization.
type CreateOrganizationRequest struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	Threshold             *float64 `json:"threshold,omitempty"`
	CertifiedAt           string   `json:"certified_at"`
	PrincipalOfficeInZone bool     `json:"principal_office_in_zone"`
	PrincipalOfficeZone   string   `json:"principal_office_zone,omitempty"`
}

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID                  string `json:"id"`
	OrganizationID      string `json:"organization_id"`
	Name                string `json:"name"`
	Address             string `json:"address,omitempty"`
	HireDate            string `json:"hire_date"`
	Active              bool   `json:"active"`
	QualifyingResident  bool   `json:"qualifying_resident"`
	ZoneType            string `json:"zone_type,omitempty"`
	ResidencyStart      string `json:"residency_start,omitempty"`
	LegacyEmployee      bool   `json:"legacy_employee"`
	AtRiskRedesignation bool   `json:"at_risk_redesignation"`
	LastVerified        string `json:"last_verified,omitempty"`
}

// CreateEmployeeRequest is the request to add an employee.
type CreateEmployeeRequest struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Address            string `json:"address,omitempty"`
	HireDate           string `json:"hire_date"`
	Active             *bool  `json:"active,omitempty"`
	QualifyingResident bool   `json:"qualifying_resident"`
	ZoneType           string `json:"zone_type,omitempty"`
	ResidencyStart     string `json:"residency_start,omitempty"`
	LegacyEmployee     bool   `json:"legacy_employee"`
}

// EligibilityDTO is the per-employee qualification outcome.
type EligibilityDTO struct {
	EmployeeID   string `json:"employee_id"`
	Counts       bool   `json:"counts"`
	Reason       string `json:"reason"`
	DaysResident int    `json:"days_resident"`
	AsOf         string `json:"as_of"`
}

// =============================================================================
// COMPLIANCE TYPES
// =============================================================================

// SnapshotDTO represents a compliance snapshot.
type SnapshotDTO struct {
	ID                string `json:"id"`
	OrganizationID    string `json:"organization_id"`
	AsOf              string `json:"as_of"`
	TotalEmployees    int    `json:"total_employees"`
	Qualifying        int    `json:"qualifying"`
	Pending           int    `json:"pending"`
	LegacyCount       int    `json:"legacy_count"`
	Percent           string `json:"percent"`
	RawStatus         string `json:"raw_status"`
	Status            string `json:"status"`
	GracePeriodActive bool   `json:"grace_period_active"`
	GracePeriodEnds   string `json:"grace_period_ends,omitempty"`
	TakenAt           string `json:"taken_at,omitempty"`
}

// CalculateRequest optionally pins the calculation date.
type CalculateRequest struct {
	AsOf string `json:"as_of,omitempty"`
}

// GracePeriodDTO represents a grace period.
type GracePeriodDTO struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Trigger        string `json:"trigger"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Active         bool   `json:"active"`
}

// RedesignationRequest records a zone losing its designation.
type RedesignationRequest struct {
	Zone string `json:"zone"`
	AsOf string `json:"as_of,omitempty"`
}

// ForecastPointDTO is one projected future compliance point.
type ForecastPointDTO struct {
	Period         int    `json:"period"`
	AsOf           string `json:"as_of"`
	Percent        string `json:"percent"`
	Status         string `json:"status"`
	ConfidenceLow  string `json:"confidence_low"`
	ConfidenceHigh string `json:"confidence_high"`
	LowConfidence  bool   `json:"low_confidence,omitempty"`
}

// AlertDTO represents an actionable warning.
type AlertDTO struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	OrganizationID string `json:"organization_id"`
	EmployeeID     string `json:"employee_id,omitempty"`
	Message        string `json:"message"`
	AsOf           string `json:"as_of"`
}

// =============================================================================
// SIMULATION TYPES
// =============================================================================

// SimulateHireRequest projects compliance with a hypothetical hire.
type SimulateHireRequest struct {
	Employee CreateEmployeeRequest `json:"employee"`
	AsOf     string                `json:"as_of,omitempty"`
}

// SimulateTerminationRequest projects compliance with a departure.
type SimulateTerminationRequest struct {
	EmployeeID string `json:"employee_id"`
	AsOf       string `json:"as_of,omitempty"`
}

// ScenarioSpecDTO is one named hire/termination batch.
type ScenarioSpecDTO struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Hires        []CreateEmployeeRequest `json:"hires,omitempty"`
	Terminations []string                `json:"terminations,omitempty"`
}

// ScenarioAnalysisRequest evaluates and ranks multiple scenarios.
type ScenarioAnalysisRequest struct {
	Scenarios []ScenarioSpecDTO `json:"scenarios"`
	AsOf      string            `json:"as_of,omitempty"`
}

// ScenarioResultDTO is a ranked scenario outcome.
type ScenarioResultDTO struct {
	ScenarioID string      `json:"scenario_id"`
	Name       string      `json:"name"`
	Rank       int         `json:"rank"`
	Snapshot   SnapshotDTO `json:"snapshot"`
}

// =============================================================================
// RESIDENCY TYPES
// =============================================================================

// VerifyResidencyRequest records a manual residency verification.
type VerifyResidencyRequest struct {
	VerifiedAt         string  `json:"verified_at"`
	QualifyingResident bool    `json:"qualifying_resident"`
	ZoneType           string  `json:"zone_type,omitempty"`
	Since              string  `json:"since,omitempty"`
	Confidence         float64 `json:"confidence"`
}

// =============================================================================
// DEMO SCENARIO TYPES
// =============================================================================

// DemoScenarioDTO describes a loadable demo scenario.
type DemoScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a demo scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the error body for all failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toOrganizationDTO(o compliance.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:                    string(o.ID),
		Name:                  o.Name,
		Threshold:             o.Threshold.String(),
		CertifiedAt:           o.CertifiedAt.String(),
		PrincipalOfficeInZone: o.PrincipalOfficeInZone,
		PrincipalOfficeZone:   string(o.PrincipalOfficeZone),
	}
}

func toEmployeeDTO(e compliance.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:                  string(e.ID),
		OrganizationID:      string(e.OrganizationID),
		Name:                e.Name,
		Address:             e.Address,
		HireDate:            e.HireDate.String(),
		Active:              e.Active,
		QualifyingResident:  e.QualifyingResident,
		ZoneType:            string(e.ZoneType),
		ResidencyStart:      dateString(e.ResidencyStart),
		LegacyEmployee:      e.LegacyEmployee,
		AtRiskRedesignation: e.AtRiskRedesignation,
		LastVerified:        dateString(e.LastVerified),
	}
}

func toSnapshotDTO(s compliance.ComplianceSnapshot) SnapshotDTO {
	dto := SnapshotDTO{
		ID:                s.ID,
		OrganizationID:    string(s.OrganizationID),
		AsOf:              s.AsOf.String(),
		TotalEmployees:    s.TotalEmployees,
		Qualifying:        s.Qualifying,
		Pending:           s.Pending,
		LegacyCount:       s.LegacyCount,
		Percent:           s.Percent.StringFixed(2),
		RawStatus:         string(s.RawStatus),
		Status:            string(s.Status),
		GracePeriodActive: s.GracePeriodActive,
		GracePeriodEnds:   dateString(s.GracePeriodEnds),
	}
	if !s.TakenAt.IsZero() {
		dto.TakenAt = s.TakenAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toGracePeriodDTO(g compliance.GracePeriod) GracePeriodDTO {
	return GracePeriodDTO{
		ID:             g.ID,
		OrganizationID: string(g.OrganizationID),
		Trigger:        string(g.Trigger),
		Start:          g.Start.String(),
		End:            g.End.String(),
		Active:         g.Active,
	}
}

func toForecastPointDTO(p compliance.ProjectedSnapshot) ForecastPointDTO {
	return ForecastPointDTO{
		Period:         p.Period,
		AsOf:           p.AsOf.String(),
		Percent:        p.Percent.StringFixed(2),
		Status:         string(p.Status),
		ConfidenceLow:  p.ConfidenceLow.StringFixed(2),
		ConfidenceHigh: p.ConfidenceHigh.StringFixed(2),
		LowConfidence:  p.LowConfidence,
	}
}

func toAlertDTO(a compliance.Alert) AlertDTO {
	return AlertDTO{
		Type:           string(a.Type),
		Severity:       a.Severity.String(),
		OrganizationID: string(a.OrganizationID),
		EmployeeID:     string(a.EmployeeID),
		Message:        a.Message,
		AsOf:           a.AsOf.String(),
	}
}

func dateString(d *compliance.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
