/*
grace.go - Grace period state machine

PURPOSE:
  Tracks whether an organization is inside an active grace window after a
  zone redesignation or a first threshold miss, and when that window ends.

STATES:
  none     no period on record, or only inactive history
  active   asOf <= end date
  expired  asOf > end date; the calculator recomputes status from the raw
           percentage with no override

TRANSITIONS:
  none   -> active   a trigger creates a period; end = start + duration,
                     where the duration depends on the trigger
  active -> active   a new trigger while active extends: the tracker keeps
                     the later of the two end dates, never shortening the
                     remaining window (monotonic non-decreasing)
  active -> expired  time passes the end date

  Only the most recent period is authoritative for current status; expired
  periods stay on record for audit.

SEE ALSO:
  - calculator.go: applies the override
  - engine.go: detects triggers and persists transitions
*/
package compliance

import "github.com/google/uuid"

type GraceState string

const (
	GraceNone    GraceState = "none"
	GraceActive  GraceState = "active"
	GraceExpired GraceState = "expired"
)

// GraceTracker owns grace period lifecycle decisions. It is stateless;
// the period record itself carries the state.
type GraceTracker struct {
	Policy Policy
}

// StateAt classifies a period (possibly nil) at the given date.
func (t GraceTracker) StateAt(g *GracePeriod, asOf Date) GraceState {
	switch {
	case g == nil || !g.Active:
		return GraceNone
	case asOf.After(g.End):
		return GraceExpired
	default:
		return GraceActive
	}
}

// Duration returns the grace window for a trigger, as an end date from the
// trigger date.
func (t GraceTracker) endFor(trigger GraceTrigger, start Date) Date {
	if trigger == TriggerRedesignation {
		return start.AddYears(t.Policy.RedesignationGraceYears)
	}
	return start.AddYears(t.Policy.ThresholdMissGraceYears)
}

// Trigger applies a triggering event. With no active period it opens a new
// one; with an active period it extends, keeping the later end date. The
// returned period is what the caller should persist.
func (t GraceTracker) Trigger(current *GracePeriod, orgID OrganizationID, trigger GraceTrigger, asOf Date) GracePeriod {
	end := t.endFor(trigger, asOf)

	if current != nil && current.Active && !asOf.After(current.End) {
		extended := *current
		if end.After(extended.End) {
			extended.End = end
			extended.Trigger = trigger
		}
		return extended
	}

	return GracePeriod{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Trigger:        trigger,
		Start:          asOf,
		End:            end,
		Active:         true,
	}
}

// Expire deactivates a period that asOf has passed. Returns the updated
// record and whether anything changed.
func (t GraceTracker) Expire(g *GracePeriod, asOf Date) (*GracePeriod, bool) {
	if g == nil || !g.Active || !asOf.After(g.End) {
		return g, false
	}
	expired := *g
	expired.Active = false
	return &expired, true
}
