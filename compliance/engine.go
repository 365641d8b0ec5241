/*
engine.go - Stateful engine surface

PURPOSE:
  The Engine is what callers (API handlers, the scheduler) talk to. It
  wires the pure components (evaluator, calculator, grace tracker,
  simulator, forecaster, alert generator) to the record store and the
  residency provider, and owns the only two stateful steps in the system:
  appending a snapshot and transitioning the grace period.

SERIALIZATION:
  Those two steps are applied atomically per organization: a mutex keyed
  by organization id serializes concurrent recalculations of the same
  organization. Reads (simulation, forecasting, status checks) never take
  that lock; they operate on a consistent snapshot loaded at call time.

LIFECYCLE:
  Explicitly constructed and dependency-injected. One long-lived instance
  holding only its dependencies; no module-level state, no ambient
  session. Every operation takes an explicit organization id.

RETRIES:
  Only the snapshot append retries, on ErrPersistenceConflict, under the
  organization lock. Pure computations are deterministic and never retry.

SEE ALSO:
  - store.go: the persistence boundary
  - residency.go: the provider boundary
*/
package compliance

import (
	"context"
	"sync"
)

// Engine exposes the compliance operations to callers.
type Engine struct {
	store    Store
	provider ResidencyProvider // may be nil; residency ops then fail
	policy   Policy

	calc     Calculator
	tracker  GraceTracker
	sim      Simulator
	forecast Forecaster
	alerts   AlertGenerator

	mu    sync.Mutex
	locks map[OrganizationID]*sync.Mutex
}

// NewEngine constructs an engine around a store and policy. The provider
// is optional; pass nil when residency facts are maintained externally.
func NewEngine(store Store, provider ResidencyProvider, policy Policy) *Engine {
	calc := Calculator{Policy: policy}
	return &Engine{
		store:    store,
		provider: provider,
		policy:   policy,
		calc:     calc,
		tracker:  GraceTracker{Policy: policy},
		sim:      Simulator{Calc: calc},
		forecast: Forecaster{Policy: policy},
		alerts:   AlertGenerator{Policy: policy},
	}
}

// Policy returns the engine's policy (read-only copy).
func (en *Engine) Policy() Policy { return en.policy }

// lockFor returns the serialization point for one organization.
func (en *Engine) lockFor(orgID OrganizationID) *sync.Mutex {
	en.mu.Lock()
	defer en.mu.Unlock()
	if en.locks == nil {
		en.locks = make(map[OrganizationID]*sync.Mutex)
	}
	l, ok := en.locks[orgID]
	if !ok {
		l = &sync.Mutex{}
		en.locks[orgID] = l
	}
	return l
}

const appendRetries = 3

// =============================================================================
// CALCULATE - The one stateful operation
// =============================================================================

// CalculateCompliance recomputes the organization's compliance at asOf,
// transitions the grace period if a trigger fired or the window expired,
// and appends the snapshot to the history log. asOf nil means today.
func (en *Engine) CalculateCompliance(ctx context.Context, orgID OrganizationID, asOf *Date) (*ComplianceSnapshot, error) {
	at := Today()
	if asOf != nil {
		at = *asOf
	}

	lock := en.lockFor(orgID)
	lock.Lock()
	defer lock.Unlock()

	org, err := en.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	employees, err := en.store.ListEmployees(ctx, orgID)
	if err != nil {
		return nil, err
	}

	grace, err := en.store.ActiveGracePeriod(ctx, orgID)
	if err != nil {
		return nil, err
	}

	// Expire a grace period the as-of date has passed; status then comes
	// from the raw percentage with no override.
	if expired, changed := en.tracker.Expire(grace, at); changed {
		if err := en.store.UpsertGracePeriod(ctx, *expired); err != nil {
			return nil, err
		}
		grace = nil
	} else if en.tracker.StateAt(grace, at) != GraceActive {
		grace = nil
	}

	snapshot, _, err := en.calc.Compute(*org, employees, at, grace)
	if err != nil {
		return nil, err
	}

	// Threshold-miss trigger: the raw percentage crosses below threshold
	// for the first time (previous snapshot was at or above it).
	if grace == nil && snapshot.Percent.LessThan(org.EffectiveThreshold(en.policy)) {
		prev, err := en.store.LatestSnapshot(ctx, orgID)
		if err != nil {
			return nil, err
		}
		if prev != nil && prev.Percent.GreaterThanOrEqual(org.EffectiveThreshold(en.policy)) {
			opened := en.tracker.Trigger(nil, orgID, TriggerThresholdMiss, at)
			if err := en.store.UpsertGracePeriod(ctx, opened); err != nil {
				return nil, err
			}
			grace = &opened
			snapshot, _, err = en.calc.Compute(*org, employees, at, grace)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := en.appendWithRetry(ctx, snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (en *Engine) appendWithRetry(ctx context.Context, s ComplianceSnapshot) error {
	var err error
	for attempt := 0; attempt < appendRetries; attempt++ {
		err = en.store.AppendSnapshot(ctx, s)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}
	return err
}

// RecordZoneRedesignation applies a zone losing its designation: every
// affected resident stops qualifying, residents since before certification
// receive the legacy carve-out, and a redesignation grace period opens
// (extending any active one, never shortening it). Returns the snapshot
// recalculated after the change.
func (en *Engine) RecordZoneRedesignation(ctx context.Context, orgID OrganizationID, zone ZoneType, asOf Date) (*ComplianceSnapshot, error) {
	if zone == ZoneNone {
		return nil, &InvalidInputError{Field: "zone", Reason: "required"}
	}

	if err := en.applyRedesignation(ctx, orgID, zone, asOf); err != nil {
		return nil, err
	}
	return en.CalculateCompliance(ctx, orgID, &asOf)
}

func (en *Engine) applyRedesignation(ctx context.Context, orgID OrganizationID, zone ZoneType, asOf Date) error {
	lock := en.lockFor(orgID)
	lock.Lock()
	defer lock.Unlock()

	org, err := en.store.GetOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	employees, err := en.store.ListEmployees(ctx, orgID)
	if err != nil {
		return err
	}

	for _, e := range employees {
		if e.ZoneType != zone || !e.QualifyingResident {
			continue
		}
		if e.ResidencyStart != nil && e.ResidencyStart.BeforeOrEqual(org.CertifiedAt) {
			e.LegacyEmployee = true
		}
		e.QualifyingResident = false
		e.ZoneType = ZoneNone
		e.ResidencyStart = nil
		e.AtRiskRedesignation = false
		if err := en.store.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}

	current, err := en.store.ActiveGracePeriod(ctx, orgID)
	if err != nil {
		return err
	}
	opened := en.tracker.Trigger(current, orgID, TriggerRedesignation, asOf)
	return en.store.UpsertGracePeriod(ctx, opened)
}

// =============================================================================
// READ OPERATIONS - Never take the organization lock
// =============================================================================

// CheckEmployeeStatus evaluates one employee. asOf nil means today.
func (en *Engine) CheckEmployeeStatus(ctx context.Context, id EmployeeID, asOf *Date) (*EligibilityResult, error) {
	at := Today()
	if asOf != nil {
		at = *asOf
	}
	e, err := en.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	result := Evaluator{Policy: en.policy}.Evaluate(*e, at)
	return &result, nil
}

// SimulateHire projects compliance with a hypothetical new employee.
// Nothing is persisted.
func (en *Engine) SimulateHire(ctx context.Context, orgID OrganizationID, hire Employee, asOf *Date) (*ComplianceSnapshot, error) {
	org, employees, grace, at, err := en.loadForSimulation(ctx, orgID, asOf)
	if err != nil {
		return nil, err
	}
	snapshot, err := en.sim.SimulateHire(*org, employees, hire, at, grace)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SimulateTermination projects compliance with the target deactivated.
// Nothing is persisted.
func (en *Engine) SimulateTermination(ctx context.Context, orgID OrganizationID, id EmployeeID, asOf *Date) (*ComplianceSnapshot, error) {
	org, employees, grace, at, err := en.loadForSimulation(ctx, orgID, asOf)
	if err != nil {
		return nil, err
	}
	snapshot, err := en.sim.SimulateTermination(*org, employees, id, at, grace)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ScenarioAnalysis evaluates hire/termination batches in parallel and
// ranks them by resulting percentage.
func (en *Engine) ScenarioAnalysis(ctx context.Context, orgID OrganizationID, scenarios []Scenario, asOf *Date) ([]ScenarioResult, error) {
	org, employees, grace, at, err := en.loadForSimulation(ctx, orgID, asOf)
	if err != nil {
		return nil, err
	}
	return en.sim.ScenarioAnalysis(ctx, *org, employees, scenarios, at, grace)
}

// ForecastCompliance projects the organization's history forward.
func (en *Engine) ForecastCompliance(ctx context.Context, orgID OrganizationID, periods int) ([]ProjectedSnapshot, error) {
	org, err := en.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	history, err := en.store.History(ctx, orgID, nil)
	if err != nil {
		return nil, err
	}
	return en.forecast.Forecast(*org, history, periods)
}

// GenerateAlerts derives actionable warnings from the latest snapshot,
// the history, the workforce, and the grace period.
func (en *Engine) GenerateAlerts(ctx context.Context, orgID OrganizationID) ([]Alert, error) {
	org, err := en.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	latest, err := en.store.LatestSnapshot(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		// Nothing has been calculated yet; nothing to warn about.
		return nil, nil
	}
	history, err := en.store.History(ctx, orgID, nil)
	if err != nil {
		return nil, err
	}
	employees, err := en.store.ListEmployees(ctx, orgID)
	if err != nil {
		return nil, err
	}
	grace, err := en.store.ActiveGracePeriod(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return en.alerts.Generate(*org, *latest, history, employees, grace, latest.AsOf), nil
}

// History returns the organization's snapshot log.
func (en *Engine) History(ctx context.Context, orgID OrganizationID, since *Date) ([]ComplianceSnapshot, error) {
	if _, err := en.store.GetOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	return en.store.History(ctx, orgID, since)
}

func (en *Engine) loadForSimulation(ctx context.Context, orgID OrganizationID, asOf *Date) (*Organization, []Employee, *GracePeriod, Date, error) {
	at := Today()
	if asOf != nil {
		at = *asOf
	}
	org, err := en.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, nil, nil, at, err
	}
	employees, err := en.store.ListEmployees(ctx, orgID)
	if err != nil {
		return nil, nil, nil, at, err
	}
	grace, err := en.store.ActiveGracePeriod(ctx, orgID)
	if err != nil {
		return nil, nil, nil, at, err
	}
	if en.tracker.StateAt(grace, at) != GraceActive {
		grace = nil
	}
	return org, employees, grace, at, nil
}

// =============================================================================
// RESIDENCY OPERATIONS
// =============================================================================

// RefreshResidency re-resolves an employee's address through the provider
// and applies the trust rule. Provider failure propagates; the record is
// left untouched in that case.
func (en *Engine) RefreshResidency(ctx context.Context, id EmployeeID) (*Employee, error) {
	if en.provider == nil {
		return nil, &ProviderError{Address: "", Cause: ErrProviderUnavailable}
	}
	e, err := en.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	fact, err := en.provider.ResolveResidency(ctx, e.Address)
	if err != nil {
		return nil, &ProviderError{Address: e.Address, Cause: err}
	}
	ApplyFact(e, fact, en.policy.MinProviderConfidence)
	if err := en.store.SaveEmployee(ctx, *e); err != nil {
		return nil, err
	}
	return e, nil
}

// VerifyResidency records a manual verification, allowing low-confidence
// provider facts to be trusted for this employee from now on.
func (en *Engine) VerifyResidency(ctx context.Context, id EmployeeID, verifiedAt Date, fact ResidencyFact) (*Employee, error) {
	e, err := en.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	at := verifiedAt
	e.LastVerified = &at
	ApplyFact(e, fact, 0) // manually verified facts bypass the floor
	if err := en.store.SaveEmployee(ctx, *e); err != nil {
		return nil, err
	}
	return e, nil
}
