package compliance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoneline/compliance-engine/compliance"
	"github.com/zoneline/compliance-engine/compliance/store"
	"github.com/zoneline/compliance-engine/program"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestEngine(t *testing.T, provider compliance.ResidencyProvider) (*compliance.Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return compliance.NewEngine(mem, provider, compliance.DefaultPolicy()), mem
}

// seedOrg stores the test organization with the given workforce.
func seedOrg(t *testing.T, mem *store.Memory, employees []compliance.Employee) compliance.Organization {
	t.Helper()
	ctx := context.Background()
	org := testOrg()
	if err := mem.SaveOrganization(ctx, org); err != nil {
		t.Fatalf("seed org: %v", err)
	}
	for _, e := range employees {
		if err := mem.SaveEmployee(ctx, e); err != nil {
			t.Fatalf("seed employee %s: %v", e.ID, err)
		}
	}
	return org
}

// =============================================================================
// CALCULATE TESTS
// =============================================================================

func TestCalculateAppendsToHistory(t *testing.T) {
	// GIVEN: A seeded organization
	// WHEN: Compliance is calculated twice
	// THEN: Two snapshots land in the history log, in as-of order
	engine, mem := newTestEngine(t, nil)
	seedOrg(t, mem, workforce(4, 6))
	ctx := context.Background()

	first := date(2025, time.May, 1)
	second := date(2025, time.June, 1)
	if _, err := engine.CalculateCompliance(ctx, "org-1", &first); err != nil {
		t.Fatalf("first calculation: %v", err)
	}
	if _, err := engine.CalculateCompliance(ctx, "org-1", &second); err != nil {
		t.Fatalf("second calculation: %v", err)
	}

	history, err := engine.History(ctx, "org-1", nil)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(history))
	}
	if !history[0].AsOf.Equal(first) || !history[1].AsOf.Equal(second) {
		t.Error("expected history ordered by as-of date")
	}
}

func TestCalculateUnknownOrganization(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	_, err := engine.CalculateCompliance(context.Background(), "org-ghost", nil)

	if !errors.Is(err, compliance.ErrOrganizationNotFound) {
		t.Errorf("expected ErrOrganizationNotFound, got %v", err)
	}
}

// =============================================================================
// THRESHOLD MISS GRACE TESTS
// =============================================================================

func TestFirstCrossingBelowThresholdOpensGrace(t *testing.T) {
	// GIVEN: A compliant snapshot on record (40%)
	// WHEN: The workforce drops to 20% and compliance is recalculated
	// THEN: A threshold-miss grace period opens and the snapshot stays
	//       compliant with an honest raw status
	engine, mem := newTestEngine(t, nil)
	seedOrg(t, mem, workforce(4, 6))
	ctx := context.Background()

	may := date(2025, time.May, 1)
	if _, err := engine.CalculateCompliance(ctx, "org-1", &may); err != nil {
		t.Fatalf("baseline calculation: %v", err)
	}

	// Two qualifiers leave the zone.
	employees, _ := mem.ListEmployees(ctx, "org-1")
	dropped := 0
	for _, e := range employees {
		if e.QualifyingResident && dropped < 2 {
			e.QualifyingResident = false
			e.ZoneType = compliance.ZoneNone
			e.ResidencyStart = nil
			if err := mem.SaveEmployee(ctx, e); err != nil {
				t.Fatalf("save: %v", err)
			}
			dropped++
		}
	}

	june := date(2025, time.June, 1)
	snapshot, err := engine.CalculateCompliance(ctx, "org-1", &june)
	if err != nil {
		t.Fatalf("recalculation: %v", err)
	}

	if snapshot.Status != compliance.StatusCompliant {
		t.Errorf("expected compliant under grace, got %s", snapshot.Status)
	}
	if snapshot.RawStatus != compliance.StatusCritical {
		t.Errorf("expected raw critical at 20%%, got %s", snapshot.RawStatus)
	}
	if !snapshot.GracePeriodActive {
		t.Error("expected an active grace period")
	}

	grace, err := mem.ActiveGracePeriod(ctx, "org-1")
	if err != nil {
		t.Fatalf("grace: %v", err)
	}
	if grace == nil || grace.Trigger != compliance.TriggerThresholdMiss {
		t.Fatalf("expected a persisted threshold-miss grace period, got %+v", grace)
	}
	if !grace.End.Equal(june.AddYears(1)) {
		t.Errorf("expected a 1-year window, got end %s", grace.End)
	}
}

func TestFirstSnapshotBelowThresholdOpensNoGrace(t *testing.T) {
	// GIVEN: No prior snapshot
	// WHEN: The first calculation lands below threshold
	// THEN: No grace period opens - grace covers falling, not starting low
	engine, mem := newTestEngine(t, nil)
	seedOrg(t, mem, workforce(1, 9))
	ctx := context.Background()

	asOf := date(2025, time.June, 1)
	snapshot, err := engine.CalculateCompliance(ctx, "org-1", &asOf)
	if err != nil {
		t.Fatalf("calculation: %v", err)
	}

	if snapshot.GracePeriodActive {
		t.Error("no grace expected on the first snapshot")
	}
	grace, _ := mem.ActiveGracePeriod(ctx, "org-1")
	if grace != nil {
		t.Error("no grace period should be persisted")
	}
}

func TestExpiredGraceIsDeactivatedOnCalculate(t *testing.T) {
	engine, mem := newTestEngine(t, nil)
	seedOrg(t, mem, workforce(1, 9))
	ctx := context.Background()

	stale := compliance.GracePeriod{
		ID: "grace-old", OrganizationID: "org-1",
		Trigger: compliance.TriggerRedesignation,
		Start:   date(2024, time.January, 1), End: date(2025, time.January, 1),
		Active: true,
	}
	if err := mem.UpsertGracePeriod(ctx, stale); err != nil {
		t.Fatalf("seed grace: %v", err)
	}

	asOf := date(2025, time.June, 1)
	snapshot, err := engine.CalculateCompliance(ctx, "org-1", &asOf)
	if err != nil {
		t.Fatalf("calculation: %v", err)
	}

	if snapshot.Status != compliance.StatusCritical {
		t.Errorf("expired grace must not override, got %s", snapshot.Status)
	}
	if active, _ := mem.ActiveGracePeriod(ctx, "org-1"); active != nil {
		t.Error("expected the stale period deactivated")
	}
}

// =============================================================================
// REDESIGNATION TESTS
// =============================================================================

func TestRedesignationGrantsLegacyAndOpensGrace(t *testing.T) {
	// GIVEN: Two residents since before certification and one after, all in
	//        the same zone
	// WHEN: The zone loses its designation
	// THEN: Pre-certification residents become legacy (still counting), the
	//       post-certification resident stops counting, and a 3-year grace
	//       period opens
	engine, mem := newTestEngine(t, nil)
	preA := resident("emp-pre-a", date(2023, time.June, 1))
	preB := resident("emp-pre-b", date(2023, time.August, 1))
	post := resident("emp-post", date(2024, time.June, 1))
	seedOrg(t, mem, []compliance.Employee{preA, preB, post, nonResident("emp-n1")})
	ctx := context.Background()

	asOf := date(2025, time.June, 1)
	snapshot, err := engine.RecordZoneRedesignation(ctx, "org-1", "qualified_census_tract", asOf)
	if err != nil {
		t.Fatalf("redesignation: %v", err)
	}

	if snapshot.LegacyCount != 2 {
		t.Errorf("expected 2 legacy employees, got %d", snapshot.LegacyCount)
	}
	if snapshot.Qualifying != 2 {
		t.Errorf("expected only the legacy pair qualifying, got %d", snapshot.Qualifying)
	}

	postAfter, err := mem.GetEmployee(ctx, "emp-post")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if postAfter.LegacyEmployee || postAfter.QualifyingResident {
		t.Error("the post-certification resident must lose status without a carve-out")
	}

	grace, _ := mem.ActiveGracePeriod(ctx, "org-1")
	if grace == nil || grace.Trigger != compliance.TriggerRedesignation {
		t.Fatalf("expected a redesignation grace period, got %+v", grace)
	}
	if !grace.End.Equal(asOf.AddYears(3)) {
		t.Errorf("expected a 3-year window, got end %s", grace.End)
	}
}

func TestRedesignationRequiresZone(t *testing.T) {
	engine, mem := newTestEngine(t, nil)
	seedOrg(t, mem, workforce(2, 2))

	_, err := engine.RecordZoneRedesignation(context.Background(), "org-1", compliance.ZoneNone, date(2025, time.June, 1))

	if !compliance.IsClientError(err) {
		t.Errorf("expected a client error, got %v", err)
	}
}

// =============================================================================
// EMPLOYEE STATUS TESTS
// =============================================================================

func TestCheckEmployeeStatus(t *testing.T) {
	engine, mem := newTestEngine(t, nil)
	seedOrg(t, mem, []compliance.Employee{resident("emp-1", date(2025, time.January, 1))})

	asOf := date(2025, time.April, 1)
	result, err := engine.CheckEmployeeStatus(context.Background(), "emp-1", &asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Counts || result.Reason != compliance.ReasonQualifiedResident {
		t.Errorf("expected a qualified resident, got %+v", result)
	}

	if _, err := engine.CheckEmployeeStatus(context.Background(), "emp-ghost", &asOf); !errors.Is(err, compliance.ErrEmployeeNotFound) {
		t.Errorf("expected ErrEmployeeNotFound, got %v", err)
	}
}

// =============================================================================
// RESIDENCY PROVIDER TESTS
// =============================================================================

func TestRefreshResidencyAppliesTrustedFact(t *testing.T) {
	// GIVEN: A provider returning a confident qualifying fact
	// WHEN: Residency is refreshed
	// THEN: The record picks up the zone and start date
	provider := program.NewStaticProvider()
	since := date(2025, time.January, 1)
	provider.Seed("12 Main St", compliance.ResidencyFact{
		QualifyingResident: true,
		ZoneType:           program.ZoneCensusTract,
		Since:              &since,
		Confidence:         0.95,
	})

	engine, mem := newTestEngine(t, provider)
	e := nonResident("emp-1")
	e.Address = "12 Main St"
	seedOrg(t, mem, []compliance.Employee{e})

	updated, err := engine.RefreshResidency(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !updated.QualifyingResident || updated.ZoneType != program.ZoneCensusTract {
		t.Errorf("expected the fact applied, got %+v", updated)
	}
	if updated.ResidencyStart == nil || !updated.ResidencyStart.Equal(since) {
		t.Error("expected the residency start carried over")
	}
}

func TestRefreshResidencyRejectsLowConfidence(t *testing.T) {
	// GIVEN: A qualifying fact below the 0.8 confidence floor
	// WHEN: Residency is refreshed without a manual verification
	// THEN: The employee is treated as non-qualifying
	provider := program.NewStaticProvider()
	provider.Seed("9 Elm St", compliance.ResidencyFact{
		QualifyingResident: true,
		ZoneType:           program.ZoneCensusTract,
		Confidence:         0.5,
	})

	engine, mem := newTestEngine(t, provider)
	e := nonResident("emp-1")
	e.Address = "9 Elm St"
	seedOrg(t, mem, []compliance.Employee{e})

	updated, err := engine.RefreshResidency(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if updated.QualifyingResident {
		t.Error("a low-confidence fact must not qualify without verification")
	}
}

func TestRefreshResidencyPropagatesProviderFailure(t *testing.T) {
	// GIVEN: A provider outage
	// WHEN: Residency is refreshed
	// THEN: The failure propagates and the record is untouched - the engine
	//       never guesses
	provider := program.NewStaticProvider()
	provider.SetDown(true)

	engine, mem := newTestEngine(t, provider)
	e := resident("emp-1", date(2025, time.January, 1))
	e.Address = "12 Main St"
	seedOrg(t, mem, []compliance.Employee{e})
	ctx := context.Background()

	_, err := engine.RefreshResidency(ctx, "emp-1")
	if !errors.Is(err, compliance.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}

	unchanged, _ := mem.GetEmployee(ctx, "emp-1")
	if !unchanged.QualifyingResident {
		t.Error("a provider failure must leave the record untouched")
	}
}

func TestVerifyResidencyTrustsLowConfidenceFact(t *testing.T) {
	// GIVEN: A low-confidence qualifying fact
	// WHEN: A compliance officer records a manual verification
	// THEN: The fact is applied and LastVerified is set
	engine, mem := newTestEngine(t, nil)
	seedOrg(t, mem, []compliance.Employee{nonResident("emp-1")})

	verifiedAt := date(2025, time.June, 1)
	since := date(2025, time.February, 1)
	updated, err := engine.VerifyResidency(context.Background(), "emp-1", verifiedAt, compliance.ResidencyFact{
		QualifyingResident: true,
		ZoneType:           program.ZoneQualifiedCounty,
		Since:              &since,
		Confidence:         0.4,
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if !updated.QualifyingResident {
		t.Error("a verified fact must be trusted regardless of confidence")
	}
	if updated.LastVerified == nil || !updated.LastVerified.Equal(verifiedAt) {
		t.Error("expected LastVerified recorded")
	}
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

func TestConcurrentCalculationsAllAppend(t *testing.T) {
	// GIVEN: One organization
	// WHEN: Many goroutines recalculate at once
	// THEN: Every run lands a snapshot (serialized by the per-org lock)
	engine, mem := newTestEngine(t, nil)
	seedOrg(t, mem, workforce(4, 6))
	ctx := context.Background()

	const n = 8
	asOf := date(2025, time.June, 1)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := engine.CalculateCompliance(ctx, "org-1", &asOf)
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("concurrent calculation: %v", err)
		}
	}

	history, err := engine.History(ctx, "org-1", nil)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != n {
		t.Errorf("expected %d snapshots, got %d", n, len(history))
	}
}
