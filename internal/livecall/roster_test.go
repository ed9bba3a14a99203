package livecall

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRosterFirstSeenRecordedOnce(t *testing.T) {
	joined := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	r := newRoster(nil)

	r.reconcile([]Participant{{Identity: "avatar", JoinedAt: joined}})

	// A later snapshot reporting a different join time must not overwrite
	// the first-seen timestamp.
	r.reconcile([]Participant{{Identity: "avatar", JoinedAt: joined.Add(time.Hour)}})

	require.Equal(t, []string{"avatar (12:00:00)"}, r.display())
}

func TestRosterFallsBackToWallClock(t *testing.T) {
	now := time.Date(2026, 8, 30, 8, 30, 15, 0, time.UTC)
	r := newRoster(func() time.Time { return now })

	r.reconcile([]Participant{{Identity: "user"}})

	require.Equal(t, []string{"user (08:30:15)"}, r.display())
}

func TestRosterRemovesAbsentIdentities(t *testing.T) {
	r := newRoster(nil)

	r.reconcile([]Participant{{Identity: "user"}, {Identity: "avatar"}})
	require.Equal(t, 2, r.count())

	r.reconcile([]Participant{{Identity: "user"}})
	require.Equal(t, 1, r.count())

	// Replaying the final snapshot twice yields an identical list.
	first := r.display()
	r.reconcile([]Participant{{Identity: "user"}})
	require.Equal(t, first, r.display())
}

func TestRosterTieBreaksByIdentity(t *testing.T) {
	joined := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	r := newRoster(nil)

	r.reconcile([]Participant{
		{Identity: "b", JoinedAt: joined},
		{Identity: "a", JoinedAt: joined},
	})

	require.Equal(t, []string{"a (12:00:00)", "b (12:00:00)"}, r.display())
}

func TestRosterAnnouncesIgnoreEmptyIdentity(t *testing.T) {
	r := newRoster(nil)

	announce := r.reconcile([]Participant{{Identity: ""}})
	require.Empty(t, announce)
	require.Zero(t, r.count())
}
