package livecall

import (
	"context"
	"sync"
	"time"
)

// HeadlessTransport is a text-only Transport for environments without a
// conferencing SDK binding. Connect succeeds immediately, no remote tracks
// are ever published and the roster holds just the local participant. Chat
// still flows through the backend, so an interview works end to end minus
// audio and video.
type HeadlessTransport struct {
	mu        sync.Mutex
	identity  string
	connected bool
	joinedAt  time.Time
}

func NewHeadlessTransport(identity string) *HeadlessTransport {
	if identity == "" {
		identity = "You"
	}
	return &HeadlessTransport{identity: identity}
}

func (t *HeadlessTransport) Connect(ctx context.Context, _, _ string, _ bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		t.connected = true
		t.joinedAt = time.Now()
	}

	return nil
}

func (t *HeadlessTransport) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.connected = false
}

func (t *HeadlessTransport) Roster() []Participant {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return nil
	}

	return []Participant{{Identity: t.identity, JoinedAt: t.joinedAt}}
}

func (t *HeadlessTransport) Tracks() []Track { return nil }

// SetHandler is a no-op: the headless transport emits no events, so the
// session only ever sees the state it drives itself.
func (t *HeadlessTransport) SetHandler(Handler) {}

// NopSink satisfies MediaSink and AudioSink where no playback exists. The
// audio "playing" callback never fires, so latency stays unmeasured.
type NopSink struct{}

func (NopSink) Bind(Track)       {}
func (NopSink) Clear()           {}
func (NopSink) OnPlaying(func()) {}
