package jobboard

import (
	"fmt"
	"net/url"
)

const interviewsPath = "/api/interviews"

// Turn roles in a persisted interview transcript.
const (
	RoleInterviewer = "interviewer"
	RoleCandidate   = "candidate"
)

// InterviewTurn is one exchange of a persisted transcript.
type InterviewTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type InterviewSessions struct {
	Items []*InterviewSession
}

type InterviewSession struct {
	ID              string `json:"id,omitempty"`
	RoomName        string `json:"roomName,omitempty"`
	ParticipantName string `json:"participantName,omitempty"`
	JobID           string `json:"jobId,omitempty"`
	JobTitle        string `json:"jobTitle,omitempty"`
	JobCompany      string `json:"jobCompany,omitempty"`
	ResumeID        string `json:"resumeId,omitempty"`

	StartedAt       string `json:"startedAt,omitempty"`
	EndedAt         string `json:"endedAt,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	QuestionCount   int    `json:"questionCount,omitempty"`

	ConversationHistory []*InterviewTurn `json:"conversationHistory,omitempty"`

	IsEvaluated         bool     `json:"isEvaluated,omitempty"`
	OverallScore        float64  `json:"overallScore,omitempty"`
	TechnicalScore      float64  `json:"technicalScore,omitempty"`
	CommunicationScore  float64  `json:"communicationScore,omitempty"`
	ProblemSolvingScore float64  `json:"problemSolvingScore,omitempty"`
	Strengths           []string `json:"strengths,omitempty"`
	AreasForImprovement []string `json:"areasForImprovement,omitempty"`
	Recommendations     []string `json:"recommendations,omitempty"`
	DetailedFeedback    string   `json:"detailedFeedback,omitempty"`
	EvaluationModel     string   `json:"evaluationModel,omitempty"`

	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type interviewListResponse struct {
	Total    int                 `json:"total"`
	Sessions []*InterviewSession `json:"sessions"`
}

// ListInterviews fetches saved interview session summaries.
func (c *Client) ListInterviews() (*InterviewSessions, error) {
	var resp interviewListResponse
	if err := c.getJSON(interviewsPath+"/", nil, &resp); err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}

	return &InterviewSessions{Items: resp.Sessions}, nil
}

// GetInterview fetches a single session including transcript and evaluation.
func (c *Client) GetInterview(id string) (*InterviewSession, error) {
	var session InterviewSession
	if err := c.getJSON(fmt.Sprintf("%s/%s", interviewsPath, id), nil, &session); err != nil {
		return nil, fmt.Errorf("get interview %s: %w", id, err)
	}

	return &session, nil
}

// SaveInterviewRequest is the end-of-call persistence payload. Context ids
// travel as query parameters, the turn list as the JSON body.
type SaveInterviewRequest struct {
	SessionID       string
	Turns           []*InterviewTurn
	JobID           string
	ResumeID        string
	RoomName        string
	ParticipantName string
}

// SaveInterview persists a finished transcript.
func (c *Client) SaveInterview(req *SaveInterviewRequest) error {
	q := url.Values{}
	if req.JobID != "" {
		q.Set("job_id", req.JobID)
	}
	if req.ResumeID != "" {
		q.Set("resume_id", req.ResumeID)
	}
	if req.RoomName != "" {
		q.Set("room_name", req.RoomName)
	}
	if req.ParticipantName != "" {
		q.Set("participant_name", req.ParticipantName)
	}

	path := fmt.Sprintf("%s/%s/save", interviewsPath, req.SessionID)
	if err := c.postJSON(path, q, req.Turns, nil); err != nil {
		return fmt.Errorf("save interview %s: %w", req.SessionID, err)
	}

	return nil
}

// RequestEvaluation asks the backend to score the session. Evaluation runs
// asynchronously; poll GetInterview until IsEvaluated flips.
func (c *Client) RequestEvaluation(id string) error {
	path := fmt.Sprintf("%s/%s/evaluate", interviewsPath, id)
	if err := c.postJSON(path, nil, nil, nil); err != nil {
		return fmt.Errorf("evaluate interview %s: %w", id, err)
	}

	return nil
}

// DeleteInterview removes the saved session.
func (c *Client) DeleteInterview(id string) error {
	if err := c.deleteJSON(fmt.Sprintf("%s/%s", interviewsPath, id), nil); err != nil {
		return fmt.Errorf("delete interview %s: %w", id, err)
	}

	return nil
}

func (s *InterviewSessions) Len() int {
	return len(s.Items)
}

func (s *InterviewSessions) FindByID(id string) *InterviewSession {
	for _, session := range s.Items {
		if session.ID == id {
			return session
		}
	}

	return nil
}
