package livecall

import (
	"fmt"
	"sort"
	"time"
)

// roster reconciles participant presence from full transport snapshots. It is
// deliberately snapshot-driven instead of delta-driven so any interleaving or
// duplication of transport events converges to the same state.
type roster struct {
	joinTimes map[string]time.Time
	announced map[string]bool
	now       func() time.Time
}

func newRoster(now func() time.Time) *roster {
	if now == nil {
		now = time.Now
	}

	return &roster{
		joinTimes: make(map[string]time.Time),
		announced: make(map[string]bool),
		now:       now,
	}
}

// reconcile recomputes presence from the full current roster. The first-seen
// timestamp is recorded exactly once per identity and never overwritten;
// entries for absent identities are dropped. It returns identities to
// announce as newly joined, each at most once per session even if the same
// identity reconnects.
func (r *roster) reconcile(present []Participant) []Participant {
	seen := make(map[string]bool, len(present))
	var announce []Participant

	for _, p := range present {
		if p.Identity == "" {
			continue
		}
		seen[p.Identity] = true

		if _, ok := r.joinTimes[p.Identity]; !ok {
			joinedAt := p.JoinedAt
			if joinedAt.IsZero() {
				joinedAt = r.now()
			}
			r.joinTimes[p.Identity] = joinedAt
		}

		if !r.announced[p.Identity] {
			r.announced[p.Identity] = true
			announce = append(announce, Participant{Identity: p.Identity, JoinedAt: r.joinTimes[p.Identity]})
		}
	}

	for identity := range r.joinTimes {
		if !seen[identity] {
			delete(r.joinTimes, identity)
		}
	}

	return announce
}

// display returns the present identities ordered by ascending first-seen
// time, formatted as "identity (HH:MM:SS)". Identity breaks ties so the
// order is stable under recomputation.
func (r *roster) display() []string {
	type entry struct {
		identity string
		joinedAt time.Time
	}

	entries := make([]entry, 0, len(r.joinTimes))
	for identity, joinedAt := range r.joinTimes {
		entries = append(entries, entry{identity: identity, joinedAt: joinedAt})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].joinedAt.Equal(entries[j].joinedAt) {
			return entries[i].joinedAt.Before(entries[j].joinedAt)
		}
		return entries[i].identity < entries[j].identity
	})

	display := make([]string, 0, len(entries))
	for _, e := range entries {
		display = append(display, fmt.Sprintf("%s (%s)", e.identity, e.joinedAt.Format("15:04:05")))
	}

	return display
}

// count returns the number of present participants.
func (r *roster) count() int {
	return len(r.joinTimes)
}

// reset clears presence and announcement history on disconnect.
func (r *roster) reset() {
	r.joinTimes = make(map[string]time.Time)
	r.announced = make(map[string]bool)
}
