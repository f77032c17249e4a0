package lock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

func TestTransition(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("lock stamps admin and time", func(t *testing.T) {
		next, changed := State{}.Transition(true, "alice", now)

		assert.True(t, changed)
		assert.True(t, next.Locked)
		assert.Equal(t, "alice", *next.By)
		assert.Equal(t, now, *next.At)
	})

	t.Run("unlock clears owner and time", func(t *testing.T) {
		locked, _ := State{}.Transition(true, "alice", now)
		next, changed := locked.Transition(false, "bob", now.Add(time.Hour))

		assert.True(t, changed)
		assert.False(t, next.Locked)
		assert.Nil(t, next.By)
		assert.Nil(t, next.At)
	})

	t.Run("locking a locked event is a no-op", func(t *testing.T) {
		locked, _ := State{}.Transition(true, "alice", now)
		next, changed := locked.Transition(true, "bob", now.Add(time.Hour))

		assert.False(t, changed)
		assert.Equal(t, "alice", *next.By, "owner is not rewritten")
	})

	t.Run("unlocking an unlocked event is a no-op", func(t *testing.T) {
		next, changed := State{}.Transition(false, "alice", now)

		assert.False(t, changed)
		assert.False(t, next.Locked)
	})
}

func TestFromEventAndApply(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	admin := "alice"

	ev := &models.Event{ID: 1, IsLocked: true, LockedBy: &admin, LockedAt: &now}

	state := FromEvent(ev)
	assert.True(t, state.Locked)
	assert.Equal(t, "alice", *state.By)

	next, changed := state.Transition(false, "alice", now.Add(time.Hour))
	assert.True(t, changed)

	next.Apply(ev)
	assert.False(t, ev.IsLocked)
	assert.Nil(t, ev.LockedBy)
	assert.Nil(t, ev.LockedAt)
}
