package compliance_test

import (
	"testing"
	"time"

	"github.com/zoneline/compliance-engine/compliance"
)

func newTracker() compliance.GraceTracker {
	return compliance.GraceTracker{Policy: compliance.DefaultPolicy()}
}

// =============================================================================
// TRIGGER TESTS
// =============================================================================

func TestRedesignationOpensThreeYearWindow(t *testing.T) {
	// GIVEN: No grace period on record
	// WHEN: A redesignation trigger fires
	// THEN: A 3-year active window opens at the trigger date
	tracker := newTracker()
	asOf := date(2025, time.March, 10)

	opened := tracker.Trigger(nil, "org-1", compliance.TriggerRedesignation, asOf)

	if !opened.Active {
		t.Error("expected an active period")
	}
	if opened.Trigger != compliance.TriggerRedesignation {
		t.Errorf("expected redesignation trigger, got %s", opened.Trigger)
	}
	if !opened.Start.Equal(asOf) {
		t.Errorf("expected start %s, got %s", asOf, opened.Start)
	}
	if !opened.End.Equal(date(2028, time.March, 10)) {
		t.Errorf("expected end 2028-03-10, got %s", opened.End)
	}
}

func TestThresholdMissOpensOneYearWindow(t *testing.T) {
	tracker := newTracker()
	asOf := date(2025, time.March, 10)

	opened := tracker.Trigger(nil, "org-1", compliance.TriggerThresholdMiss, asOf)

	if !opened.End.Equal(date(2026, time.March, 10)) {
		t.Errorf("expected end 2026-03-10, got %s", opened.End)
	}
}

func TestTriggerWhileActiveNeverShortens(t *testing.T) {
	// GIVEN: An active 3-year redesignation window
	// WHEN: A 1-year threshold-miss trigger fires inside it
	// THEN: The later end date is kept; the window never shrinks
	tracker := newTracker()
	current := tracker.Trigger(nil, "org-1", compliance.TriggerRedesignation, date(2025, time.January, 1))

	extended := tracker.Trigger(&current, "org-1", compliance.TriggerThresholdMiss, date(2025, time.June, 1))

	if !extended.End.Equal(current.End) {
		t.Errorf("expected end unchanged at %s, got %s", current.End, extended.End)
	}
	if extended.ID != current.ID {
		t.Error("expected the existing period to be extended, not replaced")
	}
	if extended.Trigger != compliance.TriggerRedesignation {
		t.Errorf("trigger must not change when the window is not extended, got %s", extended.Trigger)
	}
}

func TestTriggerWhileActiveExtendsToLaterEnd(t *testing.T) {
	// GIVEN: An active 1-year threshold-miss window
	// WHEN: A redesignation trigger fires inside it
	// THEN: The end moves out to the later date
	tracker := newTracker()
	current := tracker.Trigger(nil, "org-1", compliance.TriggerThresholdMiss, date(2025, time.January, 1))

	extended := tracker.Trigger(&current, "org-1", compliance.TriggerRedesignation, date(2025, time.June, 1))

	if !extended.End.Equal(date(2028, time.June, 1)) {
		t.Errorf("expected end 2028-06-01, got %s", extended.End)
	}
	if extended.Trigger != compliance.TriggerRedesignation {
		t.Errorf("expected the extending trigger recorded, got %s", extended.Trigger)
	}
}

func TestTriggerAfterExpiryOpensFreshWindow(t *testing.T) {
	tracker := newTracker()
	old := tracker.Trigger(nil, "org-1", compliance.TriggerThresholdMiss, date(2023, time.January, 1))

	fresh := tracker.Trigger(&old, "org-1", compliance.TriggerThresholdMiss, date(2025, time.June, 1))

	if fresh.ID == old.ID {
		t.Error("expected a new period after the old one lapsed")
	}
	if !fresh.Start.Equal(date(2025, time.June, 1)) {
		t.Errorf("expected fresh start, got %s", fresh.Start)
	}
}

// =============================================================================
// STATE AND EXPIRY TESTS
// =============================================================================

func TestStateTransitions(t *testing.T) {
	tracker := newTracker()
	period := tracker.Trigger(nil, "org-1", compliance.TriggerThresholdMiss, date(2025, time.January, 1))

	if got := tracker.StateAt(nil, date(2025, time.June, 1)); got != compliance.GraceNone {
		t.Errorf("nil period: expected none, got %s", got)
	}
	if got := tracker.StateAt(&period, date(2025, time.June, 1)); got != compliance.GraceActive {
		t.Errorf("inside window: expected active, got %s", got)
	}
	if got := tracker.StateAt(&period, date(2026, time.January, 1)); got != compliance.GraceActive {
		t.Errorf("on the end date: expected active (inclusive), got %s", got)
	}
	if got := tracker.StateAt(&period, date(2026, time.January, 2)); got != compliance.GraceExpired {
		t.Errorf("past the end date: expected expired, got %s", got)
	}
}

func TestExpireDeactivates(t *testing.T) {
	// GIVEN: An active period whose end date has passed
	// WHEN: Expire runs
	// THEN: The record is deactivated and kept for audit
	tracker := newTracker()
	period := tracker.Trigger(nil, "org-1", compliance.TriggerThresholdMiss, date(2024, time.January, 1))

	expired, changed := tracker.Expire(&period, date(2025, time.June, 1))

	if !changed {
		t.Fatal("expected a state change")
	}
	if expired.Active {
		t.Error("expected the period deactivated")
	}

	// Expiring again is a no-op.
	if _, changed := tracker.Expire(expired, date(2025, time.July, 1)); changed {
		t.Error("expected no change on an already-expired period")
	}
}

func TestExpireLeavesActiveWindowAlone(t *testing.T) {
	tracker := newTracker()
	period := tracker.Trigger(nil, "org-1", compliance.TriggerThresholdMiss, date(2025, time.January, 1))

	_, changed := tracker.Expire(&period, date(2025, time.June, 1))

	if changed {
		t.Error("an unexpired period must not change")
	}
}
