// Package lock models the administrative lock lifecycle of an event:
// Unlocked <-> Locked(by, at). Transitions to the state already held are
// benign no-ops so callers can skip redundant writes.
package lock

import (
	"time"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

type State struct {
	Locked bool
	By     *string
	At     *time.Time
}

func FromEvent(ev *models.Event) State {
	return State{Locked: ev.IsLocked, By: ev.LockedBy, At: ev.LockedAt}
}

// Transition returns the state after a lock or unlock by the named admin,
// and whether anything changed. Locking stamps by/at; unlocking clears both,
// keeping the unlocked-implies-no-owner invariant.
func (s State) Transition(locked bool, admin string, now time.Time) (State, bool) {
	if s.Locked == locked {
		return s, false
	}
	if !locked {
		return State{}, true
	}
	return State{Locked: true, By: &admin, At: &now}, true
}

// Apply copies the state onto an event row.
func (s State) Apply(ev *models.Event) {
	ev.IsLocked = s.Locked
	ev.LockedBy = s.By
	ev.LockedAt = s.At
}
