package livecall

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobdeck/jobdeck/internal/jobboard"
)

// State of the interview session lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	// StateReady means the backend issued credentials but the media
	// transport is not connected. The session may sit here indefinitely.
	StateReady     State = "ready"
	StateConnected State = "connected"
	StateEnded     State = "ended"
)

// ErrNotConnected is returned when a chat message is rejected locally
// because the transport is not connected.
var ErrNotConnected = errors.New("session is not connected")

// Backend is the slice of the job-board API the session needs. Satisfied by
// *jobboard.Client.
type Backend interface {
	CreateRoom(req *jobboard.RoomRequest) (*jobboard.RoomCredentials, error)
	DeleteRoom(roomName string) error
	Say(roomName, text string) (*jobboard.SayResponse, error)
	SaveInterview(req *jobboard.SaveInterviewRequest) error
	ReportLatency(roomName string, t0Ms, t1Ms float64) (float64, error)
}

// Config describes one interview session.
type Config struct {
	// RoomName is generated when empty.
	RoomName        string
	ParticipantName string
	JobID           string
	ResumeID        string
	// EchoLatency forwards completed latency measurements to the backend
	// metrics endpoint.
	EchoLatency bool
}

// Deps aggregates the session's collaborators.
type Deps struct {
	Backend   Backend
	Transport Transport
	Video     MediaSink
	Audio     AudioSink
	Logger    *zap.Logger
	// Notify receives every appended chat message for rendering. Optional.
	Notify func(msg ChatMessage)
}

// Session drives one live mock-interview call: it owns the transport
// connection and the two media sinks exclusively until ended or closed.
type Session struct {
	mu sync.Mutex
	bg sync.WaitGroup

	backend   Backend
	transport Transport
	logger    *zap.Logger
	notify    func(msg ChatMessage)

	participantName string
	jobID           string
	resumeID        string
	echoLatency     bool

	state    State
	closed   bool
	roomName string
	creds    *jobboard.RoomCredentials

	roster     *roster
	binder     *binder
	latency    *latencyProbe
	transcript *transcript

	participants []string

	now func() time.Time
}

// New creates an idle session. Start connects it.
func New(cfg *Config, deps *Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	participant := strings.TrimSpace(cfg.ParticipantName)
	if participant == "" {
		participant = "User"
	}

	s := &Session{
		backend:         deps.Backend,
		transport:       deps.Transport,
		logger:          logger,
		notify:          deps.Notify,
		participantName: participant,
		jobID:           cfg.JobID,
		resumeID:        cfg.ResumeID,
		echoLatency:     cfg.EchoLatency,
		state:           StateIdle,
		roomName:        strings.TrimSpace(cfg.RoomName),
		roster:          newRoster(time.Now),
		binder:          newBinder(deps.Video, deps.Audio),
		latency:         newLatencyProbe(time.Now),
		transcript:      &transcript{},
		now:             time.Now,
	}

	if deps.Audio != nil {
		deps.Audio.OnPlaying(s.audioPlaying)
	}

	return s
}

// Start requests a room from the backend and connects the transport. A
// second trigger while connecting or already started is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil
	}
	s.state = StateConnecting

	roomName := s.roomName
	if roomName == "" {
		roomName = "room-" + uuid.NewString()
		s.roomName = roomName
	}
	s.mu.Unlock()

	creds, err := s.backend.CreateRoom(&jobboard.RoomRequest{
		RoomName:        roomName,
		ParticipantName: s.participantName,
		JobID:           s.jobID,
		ResumeID:        s.resumeID,
	})
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()

		s.append(RoleSystem, "Failed to create session. Make sure the backend is running.")
		s.logger.Warn("creating session failed", zap.String("room", roomName), zap.Error(err))

		return fmt.Errorf("create session: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.creds = creds
	if creds.RoomName != "" {
		s.roomName = creds.RoomName
	}
	s.state = StateReady
	s.mu.Unlock()

	s.append(RoleSystem, "Session created. Connecting...")

	return s.connect(ctx)
}

// Reconnect retries the transport connection after a failure left the
// session ready but disconnected.
func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReady || s.creds == nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	return s.connect(ctx)
}

func (s *Session) connect(ctx context.Context) error {
	s.mu.Lock()
	creds := s.creds
	closed := s.closed
	s.mu.Unlock()

	// Close during room creation cleared the credentials; the in-flight
	// connect is discarded, not attempted.
	if closed || creds == nil {
		return nil
	}

	s.transport.SetHandler(s)

	if err := s.transport.Connect(ctx, creds.URL, creds.Token, true); err != nil {
		// Session stays ready; the user can retry.
		s.append(RoleSystem, "Failed to connect media transport. Check the credential or URL.")
		s.logger.Warn("transport connect failed", zap.String("room", s.RoomName()), zap.Error(err))

		return fmt.Errorf("connect transport: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		// Connect finished after cancellation: discard the connection.
		s.mu.Unlock()
		s.transport.Disconnect()
		return nil
	}
	s.state = StateConnected
	for _, track := range s.transport.Tracks() {
		s.binder.bind(track)
	}
	s.mu.Unlock()

	s.reconcileRoster()

	s.logger.Info("transport connected", zap.String("room", s.RoomName()))

	return nil
}

// Send dispatches a chat message to the AI interviewer. Messages are
// rejected locally with a system line unless the session is connected.
func (s *Session) Send(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		s.append(RoleSystem, "Not connected yet. Wait for the session to connect and try again.")
		return ErrNotConnected
	}
	roomName := s.roomName
	s.mu.Unlock()

	s.append(RoleUser, text)

	resp, err := s.backend.Say(roomName, text)
	if err != nil {
		s.append(RoleSystem, "Failed to send message. Check backend logs.")
		s.logger.Warn("say failed", zap.String("room", roomName), zap.Error(err))

		return fmt.Errorf("send message: %w", err)
	}

	s.mu.Lock()
	if resp.T0Ms > 0 {
		s.latency.markSent(resp.T0Ms)
	}
	s.mu.Unlock()

	s.append(RoleAI, resp.Response)

	return nil
}

// End hangs up: snapshots the transcript, detaches media, disconnects the
// transport and resets all transient state synchronously. Transcript
// persistence and room teardown then run in the background, best-effort.
func (s *Session) End() {
	s.mu.Lock()
	if s.state != StateConnected && s.state != StateReady {
		s.mu.Unlock()
		return
	}

	turns := s.transcript.turns()
	roomName := s.roomName
	save := &jobboard.SaveInterviewRequest{
		SessionID:       roomName,
		Turns:           turns,
		JobID:           s.jobID,
		ResumeID:        s.resumeID,
		RoomName:        roomName,
		ParticipantName: s.participantName,
	}

	s.binder.reset()
	s.resetLocked()
	s.state = StateEnded
	s.mu.Unlock()

	s.transport.Disconnect()

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()

		if len(turns) > 0 {
			if err := s.backend.SaveInterview(save); err != nil {
				s.logger.Warn("saving interview transcript failed", zap.String("room", roomName), zap.Error(err))
			}
		}

		if err := s.backend.DeleteRoom(roomName); err != nil {
			s.logger.Warn("room teardown failed", zap.String("room", roomName), zap.Error(err))
		}
	}()
}

// Close cancels the session on unmount: media is detached and transient
// state cleared synchronously, and a connect attempt still in flight is
// discarded once it completes.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	active := s.state == StateConnected
	s.binder.reset()
	s.resetLocked()
	s.state = StateEnded
	s.mu.Unlock()

	if active {
		s.transport.Disconnect()
	}
}

// Wait blocks until background persistence and teardown tasks finish.
func (s *Session) Wait() {
	s.bg.Wait()
}

// resetLocked clears transient call state. Callers hold s.mu.
func (s *Session) resetLocked() {
	s.creds = nil
	s.roster.reset()
	s.latency.reset()
	s.transcript.reset()
	s.participants = nil
}

// OnTrackSubscribed implements Handler.
func (s *Session) OnTrackSubscribed(t Track) {
	s.mu.Lock()
	if s.closed || s.state != StateConnected {
		s.mu.Unlock()
		return
	}
	s.binder.bind(t)
	s.mu.Unlock()

	s.reconcileRoster()
}

// OnTrackUnsubscribed implements Handler.
func (s *Session) OnTrackUnsubscribed(t Track) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.binder.unbind(t)
	s.mu.Unlock()

	s.reconcileRoster()
}

// OnParticipantConnected implements Handler.
func (s *Session) OnParticipantConnected(Participant) {
	s.reconcileRoster()
}

// OnParticipantDisconnected implements Handler.
func (s *Session) OnParticipantDisconnected(Participant) {
	s.reconcileRoster()
}

// OnDisconnected implements Handler. The session degrades back to ready so
// the user can retry.
func (s *Session) OnDisconnected() {
	s.mu.Lock()
	if s.closed || s.state != StateConnected {
		s.mu.Unlock()
		return
	}
	s.state = StateReady
	s.binder.reset()
	s.roster.reset()
	s.participants = nil
	s.mu.Unlock()

	s.append(RoleSystem, "Disconnected from media transport.")
}

// reconcileRoster recomputes presence from the full transport roster and
// announces first-time joiners.
func (s *Session) reconcileRoster() {
	s.mu.Lock()
	if s.closed || s.state != StateConnected {
		s.mu.Unlock()
		return
	}
	announce := s.roster.reconcile(s.transport.Roster())
	s.participants = s.roster.display()
	s.mu.Unlock()

	for _, p := range announce {
		s.append(RoleSystem, fmt.Sprintf("%s joined at %s", p.Identity, p.JoinedAt.Format("15:04:05")))
	}
}

// audioPlaying is wired to the audio sink and completes a pending latency
// measurement.
func (s *Session) audioPlaying() {
	s.mu.Lock()
	m, ok := s.latency.audioPlaying()
	roomName := s.roomName
	echo := s.echoLatency && !s.closed
	s.mu.Unlock()

	if !ok {
		return
	}

	s.append(RoleSystem, fmt.Sprintf("Latency t2-t0: %d ms", int(math.Round(m.latencyMs))))

	if !echo {
		return
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()

		if _, err := s.backend.ReportLatency(roomName, m.t0Ms, m.t1Ms); err != nil {
			s.logger.Warn("latency report failed", zap.String("room", roomName), zap.Error(err))
		}
	}()
}

// append adds a message to the transcript and forwards it to the notifier.
func (s *Session) append(role Role, text string) {
	s.mu.Lock()
	msg := s.transcript.append(role, text)
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(msg)
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Connected reports whether the media transport is connected.
func (s *Session) Connected() bool {
	return s.State() == StateConnected
}

// RoomName returns the session's room identifier.
func (s *Session) RoomName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.roomName
}

// HasVideo reports whether a video track is bound.
func (s *Session) HasVideo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.binder.has(TrackKindVideo)
}

// HasAudio reports whether an audio track is bound.
func (s *Session) HasAudio() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.binder.has(TrackKindAudio)
}

// Participants returns the display list ordered by join time.
func (s *Session) Participants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.participants))
	copy(out, s.participants)

	return out
}

// ParticipantCount returns the number of present participants.
func (s *Session) ParticipantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.roster.count()
}

// LastLatencyMs returns the most recent completed latency measurement.
func (s *Session) LastLatencyMs() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.latency.last()
}

// Messages returns a copy of the on-screen transcript.
func (s *Session) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.transcript.all()
}
