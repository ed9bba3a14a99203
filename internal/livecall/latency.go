package livecall

import "time"

// measurement is one completed round trip between a dispatched message and
// the audio response becoming audible.
type measurement struct {
	t0Ms      float64
	t1Ms      float64
	latencyMs float64
}

// latencyProbe measures the round trip between dispatching a chat message
// and the resulting audio becoming audible. At most one measurement is in
// flight: a new message overwrites the pending anchor instead of queueing.
type latencyProbe struct {
	pendingT0Ms float64
	pending     bool
	lastMs      float64
	measured    bool
	now         func() time.Time
}

func newLatencyProbe(now func() time.Time) *latencyProbe {
	if now == nil {
		now = time.Now
	}

	return &latencyProbe{now: now}
}

// markSent records the anchor timestamp of a dispatched message, replacing
// any pending one.
func (l *latencyProbe) markSent(t0Ms float64) {
	l.pendingT0Ms = t0Ms
	l.pending = true
}

// audioPlaying consumes the pending anchor, if any. Unrelated playing events
// with no pending anchor report nothing, so one message yields at most one
// measurement.
func (l *latencyProbe) audioPlaying() (measurement, bool) {
	if !l.pending {
		return measurement{}, false
	}

	t1Ms := float64(l.now().UnixMilli())
	m := measurement{
		t0Ms:      l.pendingT0Ms,
		t1Ms:      t1Ms,
		latencyMs: t1Ms - l.pendingT0Ms,
	}

	l.pending = false
	l.lastMs = m.latencyMs
	l.measured = true

	return m, true
}

// last returns the most recent completed measurement.
func (l *latencyProbe) last() (float64, bool) {
	return l.lastMs, l.measured
}

func (l *latencyProbe) reset() {
	l.pending = false
	l.measured = false
	l.pendingT0Ms = 0
	l.lastMs = 0
}
