package program_test

import (
	"context"
	"testing"
	"time"

	"github.com/zoneline/compliance-engine/compliance"
	"github.com/zoneline/compliance-engine/program"
)

func TestSeededFactReturned(t *testing.T) {
	// GIVEN: A seeded address
	// WHEN: Resolved
	// THEN: The seeded fact comes back verbatim
	p := program.NewStaticProvider()
	since := compliance.NewDate(2025, time.January, 1)
	p.Seed("12 Main St", compliance.ResidencyFact{
		QualifyingResident: true,
		ZoneType:           program.ZoneCensusTract,
		Since:              &since,
		Confidence:         0.95,
	})

	fact, err := p.ResolveResidency(context.Background(), "12 Main St")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !fact.QualifyingResident || fact.ZoneType != program.ZoneCensusTract {
		t.Errorf("expected the seeded fact, got %+v", fact)
	}
	if fact.Since == nil || !fact.Since.Equal(since) {
		t.Error("expected the seeded since date")
	}
}

func TestUnknownAddressIsConfidentNonResident(t *testing.T) {
	// GIVEN: An address never seeded
	// WHEN: Resolved
	// THEN: A definitive non-resident answer, not an error
	p := program.NewStaticProvider()

	fact, err := p.ResolveResidency(context.Background(), "99 Nowhere Ln")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fact.QualifyingResident {
		t.Error("unknown address must not qualify")
	}
	if fact.Confidence != 1.0 {
		t.Errorf("expected full confidence, got %f", fact.Confidence)
	}
}

func TestSeededFailureReturnsError(t *testing.T) {
	p := program.NewStaticProvider()
	p.SeedFailure("7 Outage Ave")

	if _, err := p.ResolveResidency(context.Background(), "7 Outage Ave"); err == nil {
		t.Fatal("expected an error for the failing address")
	}
	// Other addresses keep working.
	if _, err := p.ResolveResidency(context.Background(), "12 Main St"); err != nil {
		t.Errorf("unexpected error for a healthy address: %v", err)
	}
}

func TestSetDownFailsEverything(t *testing.T) {
	p := program.NewStaticProvider()
	p.SetDown(true)

	if _, err := p.ResolveResidency(context.Background(), "12 Main St"); err == nil {
		t.Fatal("expected an error while down")
	}

	p.SetDown(false)
	if _, err := p.ResolveResidency(context.Background(), "12 Main St"); err != nil {
		t.Errorf("expected recovery after SetDown(false), got %v", err)
	}
}

func TestCancelledContextRejected(t *testing.T) {
	p := program.NewStaticProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.ResolveResidency(ctx, "12 Main St"); err == nil {
		t.Fatal("expected the cancelled context surfaced")
	}
}
