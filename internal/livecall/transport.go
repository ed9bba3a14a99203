// Package livecall orchestrates one live mock-interview call: session
// lifecycle, media track binding, participant bookkeeping and latency
// measurement on top of an external media-conferencing transport.
package livecall

import (
	"context"
	"time"
)

// TrackKind distinguishes the two media kinds a room can publish.
type TrackKind string

const (
	TrackKindAudio TrackKind = "audio"
	TrackKindVideo TrackKind = "video"
)

// Track is one media stream published by a participant in a room.
type Track interface {
	ID() string
	Kind() TrackKind
}

// Participant is a snapshot entry from the transport roster. A zero JoinedAt
// means the transport did not report a join time.
type Participant struct {
	Identity string
	JoinedAt time.Time
}

// Handler receives transport events. The conferencing SDK delivers these on
// its own goroutine; Session serializes them internally.
type Handler interface {
	OnTrackSubscribed(t Track)
	OnTrackUnsubscribed(t Track)
	OnParticipantConnected(p Participant)
	OnParticipantDisconnected(p Participant)
	OnDisconnected()
}

// Transport abstracts the external real-time media provider. The concrete
// implementation is supplied by the conferencing SDK; tests use fakes.
type Transport interface {
	Connect(ctx context.Context, url, token string, autoSubscribe bool) error
	Disconnect()

	// Roster returns the live participant set, local participant included.
	Roster() []Participant
	// Tracks returns the currently subscribed remote tracks.
	Tracks() []Track

	SetHandler(h Handler)
}

// MediaSink is the playback binding for one media kind, the media element
// analogue. Bind replaces any previous binding.
type MediaSink interface {
	Bind(t Track)
	Clear()
}

// AudioSink additionally reports when playback becomes audible, which anchors
// the latency probe.
type AudioSink interface {
	MediaSink
	OnPlaying(fn func())
}
