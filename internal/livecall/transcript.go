package livecall

import "github.com/jobdeck/jobdeck/internal/jobboard"

// Role of an on-screen chat message.
type Role string

const (
	RoleUser   Role = "user"
	RoleAI     Role = "ai"
	RoleSystem Role = "system"
)

// ChatMessage is one entry of the on-screen transcript.
type ChatMessage struct {
	Role Role
	Text string
}

// transcript is the append-only message log for one call. System messages
// are rendered but never persisted.
type transcript struct {
	messages []ChatMessage
}

func (t *transcript) append(role Role, text string) ChatMessage {
	msg := ChatMessage{Role: role, Text: text}
	t.messages = append(t.messages, msg)

	return msg
}

func (t *transcript) all() []ChatMessage {
	out := make([]ChatMessage, len(t.messages))
	copy(out, t.messages)

	return out
}

// turns converts the transcript into the persisted interviewer/candidate
// sequence: system messages are dropped, user maps to candidate and ai to
// interviewer.
func (t *transcript) turns() []*jobboard.InterviewTurn {
	var turns []*jobboard.InterviewTurn
	for _, msg := range t.messages {
		switch msg.Role {
		case RoleUser:
			turns = append(turns, &jobboard.InterviewTurn{Role: jobboard.RoleCandidate, Text: msg.Text})
		case RoleAI:
			turns = append(turns, &jobboard.InterviewTurn{Role: jobboard.RoleInterviewer, Text: msg.Text})
		}
	}

	return turns
}

func (t *transcript) reset() {
	t.messages = nil
}
