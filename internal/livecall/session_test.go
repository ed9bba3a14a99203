package livecall

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobdeck/jobdeck/internal/jobboard"
)

type fakeTrack struct {
	id   string
	kind TrackKind
}

func (t *fakeTrack) ID() string      { return t.id }
func (t *fakeTrack) Kind() TrackKind { return t.kind }

type fakeSink struct {
	bound   Track
	binds   int
	clears  int
	playing func()
}

func (s *fakeSink) Bind(t Track) {
	s.bound = t
	s.binds++
}

func (s *fakeSink) Clear() {
	s.bound = nil
	s.clears++
}

func (s *fakeSink) OnPlaying(fn func()) { s.playing = fn }

type fakeTransport struct {
	handler     Handler
	roster      []Participant
	tracks      []Track
	connectErr  error
	connected   bool
	disconnects int
	onConnect   func()
}

func (t *fakeTransport) Connect(_ context.Context, _, _ string, _ bool) error {
	if t.onConnect != nil {
		t.onConnect()
	}
	if t.connectErr != nil {
		return t.connectErr
	}
	t.connected = true

	return nil
}

func (t *fakeTransport) Disconnect() {
	t.connected = false
	t.disconnects++
}

func (t *fakeTransport) Roster() []Participant { return t.roster }
func (t *fakeTransport) Tracks() []Track       { return t.tracks }
func (t *fakeTransport) SetHandler(h Handler)  { t.handler = h }

type fakeBackend struct {
	mu sync.Mutex

	createErr error
	sayErr    error
	sayT0Ms   float64

	created   []*jobboard.RoomRequest
	says      []string
	saves     []*jobboard.SaveInterviewRequest
	deletes   []string
	latencies [][2]float64
}

func (b *fakeBackend) CreateRoom(req *jobboard.RoomRequest) (*jobboard.RoomCredentials, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.createErr != nil {
		return nil, b.createErr
	}
	b.created = append(b.created, req)

	return &jobboard.RoomCredentials{
		Token:    "tok",
		RoomName: req.RoomName,
		URL:      "wss://media.example",
	}, nil
}

func (b *fakeBackend) DeleteRoom(roomName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deletes = append(b.deletes, roomName)

	return nil
}

func (b *fakeBackend) Say(_, text string) (*jobboard.SayResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sayErr != nil {
		return nil, b.sayErr
	}
	b.says = append(b.says, text)

	return &jobboard.SayResponse{Response: "echo: " + text, T0Ms: b.sayT0Ms}, nil
}

func (b *fakeBackend) SaveInterview(req *jobboard.SaveInterviewRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.saves = append(b.saves, req)

	return nil
}

func (b *fakeBackend) ReportLatency(_ string, t0Ms, t1Ms float64) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.latencies = append(b.latencies, [2]float64{t0Ms, t1Ms})

	return t1Ms - t0Ms, nil
}

func (b *fakeBackend) sayCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.says)
}

type messageLog struct {
	mu       sync.Mutex
	messages []ChatMessage
}

func (l *messageLog) add(msg ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
}

func (l *messageLog) byRole(role Role) []ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []ChatMessage
	for _, msg := range l.messages {
		if msg.Role == role {
			out = append(out, msg)
		}
	}

	return out
}

func newTestSession(cfg *Config, backend *fakeBackend, transport *fakeTransport) (*Session, *fakeSink, *fakeSink, *messageLog) {
	video := &fakeSink{}
	audio := &fakeSink{}
	log := &messageLog{}

	s := New(cfg, &Deps{
		Backend:   backend,
		Transport: transport,
		Video:     video,
		Audio:     audio,
		Logger:    zap.NewNop(),
		Notify:    log.add,
	})

	return s, video, audio, log
}

func startConnected(t *testing.T, backend *fakeBackend, transport *fakeTransport) (*Session, *fakeSink, *fakeSink, *messageLog) {
	t.Helper()

	s, video, audio, log := newTestSession(&Config{RoomName: "room-1"}, backend, transport)
	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, StateConnected, s.State())

	return s, video, audio, log
}

func TestStartConnectsAndIsIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	transport := &fakeTransport{}

	s, _, _, _ := startConnected(t, backend, transport)

	require.NoError(t, s.Start(context.Background()))
	require.Len(t, backend.created, 1, "second start must be a no-op")
	require.Equal(t, "room-1", s.RoomName())
}

func TestStartBackendFailureReturnsToIdle(t *testing.T) {
	backend := &fakeBackend{createErr: errors.New("backend down")}
	transport := &fakeTransport{}

	s, _, _, log := newTestSession(&Config{}, backend, transport)

	err := s.Start(context.Background())
	require.Error(t, err)
	require.Equal(t, StateIdle, s.State())
	require.Len(t, log.byRole(RoleSystem), 1)
}

func TestConnectFailureLeavesSessionReady(t *testing.T) {
	backend := &fakeBackend{}
	transport := &fakeTransport{connectErr: errors.New("dial failed")}

	s, _, _, _ := newTestSession(&Config{RoomName: "room-1"}, backend, transport)

	err := s.Start(context.Background())
	require.Error(t, err)
	require.Equal(t, StateReady, s.State())
	require.False(t, s.Connected())

	// Retry path after the transport recovers.
	transport.connectErr = nil
	require.NoError(t, s.Reconnect(context.Background()))
	require.Equal(t, StateConnected, s.State())
}

func TestSendRejectedLocallyWhenNotConnected(t *testing.T) {
	backend := &fakeBackend{}
	transport := &fakeTransport{connectErr: errors.New("dial failed")}

	s, _, _, log := newTestSession(&Config{RoomName: "room-1"}, backend, transport)
	_ = s.Start(context.Background())

	before := len(log.byRole(RoleSystem))
	err := s.Send("hello")
	require.ErrorIs(t, err, ErrNotConnected)
	require.Zero(t, backend.sayCount(), "no backend call may be issued")
	require.Len(t, log.byRole(RoleSystem), before+1, "exactly one system message appended")
}

func TestSendAppendsUserAndAIMessages(t *testing.T) {
	backend := &fakeBackend{}
	transport := &fakeTransport{}

	s, _, _, log := startConnected(t, backend, transport)

	require.NoError(t, s.Send("tell me about goroutines"))
	require.Equal(t, []string{"tell me about goroutines"}, backend.says)
	require.Len(t, log.byRole(RoleUser), 1)
	require.Len(t, log.byRole(RoleAI), 1)
}

func TestEndPersistsTranscriptOnce(t *testing.T) {
	backend := &fakeBackend{}
	transport := &fakeTransport{}

	s, _, _, _ := startConnected(t, backend, transport)

	require.NoError(t, s.Send("question one"))
	require.NoError(t, s.Send("question two"))

	s.End()
	s.Wait()

	require.Equal(t, StateEnded, s.State())
	require.Equal(t, 1, transport.disconnects)
	require.Len(t, backend.saves, 1)
	require.Equal(t, []string{"room-1"}, backend.deletes)

	save := backend.saves[0]
	require.Equal(t, "room-1", save.SessionID)
	// Two user and two ai messages; system messages are excluded.
	require.Len(t, save.Turns, 4)
	require.Equal(t, jobboard.RoleCandidate, save.Turns[0].Role)
	require.Equal(t, jobboard.RoleInterviewer, save.Turns[1].Role)
}

func TestEndWithEmptyTranscriptSkipsPersistence(t *testing.T) {
	backend := &fakeBackend{}
	transport := &fakeTransport{}

	s, _, _, _ := startConnected(t, backend, transport)

	s.End()
	s.Wait()

	require.Empty(t, backend.saves)
	require.Equal(t, []string{"room-1"}, backend.deletes, "teardown still requested")
}

func TestTrackBindingReplacesPreviousOfSameKind(t *testing.T) {
	backend := &fakeBackend{}
	transport := &fakeTransport{}

	s, video, _, _ := startConnected(t, backend, transport)

	v1 := &fakeTrack{id: "v1", kind: TrackKindVideo}
	v2 := &fakeTrack{id: "v2", kind: TrackKindVideo}

	s.OnTrackSubscribed(v1)
	require.True(t, s.HasVideo())
	require.Equal(t, v1, video.bound)

	s.OnTrackSubscribed(v2)
	require.True(t, s.HasVideo())
	require.Equal(t, v2, video.bound, "new track replaces the old binding")

	// Stale unsubscription of the replaced track must not clear the flag.
	s.OnTrackUnsubscribed(v1)
	require.True(t, s.HasVideo())
	require.Equal(t, v2, video.bound)

	s.OnTrackUnsubscribed(v2)
	require.False(t, s.HasVideo())
	require.Nil(t, video.bound)
}

func TestAudioFlagTracksAttachment(t *testing.T) {
	backend := &fakeBackend{}
	transport := &fakeTransport{}

	s, _, audio, _ := startConnected(t, backend, transport)

	a := &fakeTrack{id: "a1", kind: TrackKindAudio}
	s.OnTrackSubscribed(a)
	require.True(t, s.HasAudio())
	require.Equal(t, a, audio.bound)

	s.OnTrackUnsubscribed(a)
	require.False(t, s.HasAudio())
	require.Nil(t, audio.bound)
}

func TestParticipantAnnouncedOncePerSession(t *testing.T) {
	backend := &fakeBackend{}
	transport := &fakeTransport{}

	s, _, _, log := startConnected(t, backend, transport)

	joined := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	avatar := Participant{Identity: "avatar", JoinedAt: joined}

	transport.roster = []Participant{avatar}
	s.OnParticipantConnected(avatar)

	// The avatar drops and reconnects within the same session.
	transport.roster = nil
	s.OnParticipantDisconnected(avatar)
	transport.roster = []Participant{avatar}
	s.OnParticipantConnected(avatar)

	var announcements int
	for _, msg := range log.byRole(RoleSystem) {
		if msg.Text == "avatar joined at 10:00:00" {
			announcements++
		}
	}
	require.Equal(t, 1, announcements)
	require.Equal(t, []string{"avatar (10:00:00)"}, s.Participants())
}

func TestParticipantListOrderedAndIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	transport := &fakeTransport{}

	s, _, _, _ := startConnected(t, backend, transport)

	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	transport.roster = []Participant{
		{Identity: "user", JoinedAt: base.Add(2 * time.Second)},
		{Identity: "avatar", JoinedAt: base},
	}

	s.OnParticipantConnected(Participant{Identity: "user"})
	first := s.Participants()

	// Replaying the same roster must not reorder or duplicate anything.
	s.OnParticipantConnected(Participant{Identity: "avatar"})
	s.OnTrackSubscribed(&fakeTrack{id: "a1", kind: TrackKindAudio})

	require.Equal(t, first, s.Participants())
	require.Equal(t, []string{"avatar (09:00:00)", "user (09:00:02)"}, s.Participants())
	require.Equal(t, 2, s.ParticipantCount())
}

func TestLatencyMeasuredOncePerMessage(t *testing.T) {
	backend := &fakeBackend{sayT0Ms: float64(time.Now().UnixMilli())}
	transport := &fakeTransport{}

	s, _, audio, log := startConnected(t, backend, transport)

	// An audio event with no pending anchor must not report anything.
	audio.playing()
	_, ok := s.LastLatencyMs()
	require.False(t, ok)

	require.NoError(t, s.Send("hello"))
	audio.playing()

	latency, ok := s.LastLatencyMs()
	require.True(t, ok)
	require.GreaterOrEqual(t, latency, 0.0)

	var reports int
	for _, msg := range log.byRole(RoleSystem) {
		if len(msg.Text) >= 7 && msg.Text[:7] == "Latency" {
			reports++
		}
	}
	require.Equal(t, 1, reports)

	// The anchor is consumed: a second playing event reports nothing new.
	audio.playing()
	require.Equal(t, 1, reports)
}

func TestLatencyEchoedToBackend(t *testing.T) {
	backend := &fakeBackend{sayT0Ms: 1000}
	transport := &fakeTransport{}

	s, _, audio, _ := newTestSession(&Config{RoomName: "room-1", EchoLatency: true}, backend, transport)
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Send("hello"))
	audio.playing()
	s.Wait()

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.latencies, 1)
	require.Equal(t, 1000.0, backend.latencies[0][0])
}

func TestCloseDuringRoomCreationSkipsConnect(t *testing.T) {
	backend := &fakeBackend{}
	transport := &fakeTransport{}

	// Simulate the widget unmounting right after the room is created but
	// before the transport is dialed.
	var s *Session
	s = New(&Config{RoomName: "room-1"}, &Deps{
		Backend:   backend,
		Transport: transport,
		Video:     &fakeSink{},
		Audio:     &fakeSink{},
		Logger:    zap.NewNop(),
		Notify: func(msg ChatMessage) {
			if msg.Text == "Session created. Connecting..." {
				s.Close()
			}
		},
	})

	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, StateEnded, s.State())
	require.False(t, transport.connected, "transport must never be dialed")
	require.Zero(t, transport.disconnects)
}

func TestCloseDiscardsLateConnect(t *testing.T) {
	backend := &fakeBackend{}
	transport := &fakeTransport{}

	s, _, _, _ := newTestSession(&Config{RoomName: "room-1"}, backend, transport)

	// Simulate the widget unmounting while the connect call is in flight.
	transport.onConnect = func() { s.Close() }

	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, StateEnded, s.State())
	require.Equal(t, 1, transport.disconnects, "late connection must be torn down")
	require.Empty(t, backend.saves)
}

func TestDisconnectEventDegradesToReady(t *testing.T) {
	backend := &fakeBackend{}
	transport := &fakeTransport{}

	s, _, _, log := startConnected(t, backend, transport)

	v := &fakeTrack{id: "v1", kind: TrackKindVideo}
	s.OnTrackSubscribed(v)

	s.OnDisconnected()
	require.Equal(t, StateReady, s.State())
	require.False(t, s.HasVideo())
	require.Zero(t, s.ParticipantCount())
	require.NotEmpty(t, log.byRole(RoleSystem))
}
