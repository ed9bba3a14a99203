package jobboard

import (
	"context"
	"fmt"
	"net/http"
)

const (
	roomsPath   = "/api/rooms"
	sayPath     = "/api/say"
	latencyPath = "/api/metrics/latency"
)

// RoomRequest describes the session to create. Job and resume ids are
// optional context for the interviewer agent.
type RoomRequest struct {
	RoomName        string `json:"room_name"`
	ParticipantName string `json:"participant_name"`
	JobID           string `json:"job_id,omitempty"`
	ResumeID        string `json:"resume_id,omitempty"`
}

// RoomCredentials is the transport connection grant issued by the backend.
type RoomCredentials struct {
	Token         string `json:"token"`
	RoomName      string `json:"room_name"`
	URL           string `json:"url"`
	AvatarEnabled bool   `json:"use_tavus"`
}

// SayResponse carries the AI reply plus the backend-side timestamp the
// latency probe anchors on.
type SayResponse struct {
	RoomName string  `json:"room_name"`
	Response string  `json:"response"`
	T0Ms     float64 `json:"t0_ms"`
}

// CreateRoom asks the backend for a new conference room and an access grant.
func (c *Client) CreateRoom(req *RoomRequest) (*RoomCredentials, error) {
	var creds RoomCredentials
	if err := c.postJSON(roomsPath+"/create", nil, req, &creds); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	return &creds, nil
}

// DeleteRoom tears down the room. The call is bounded so a hung backend can
// never block session end.
func (c *Client) DeleteRoom(roomName string) error {
	ctx, cancel := context.WithTimeout(c.ctx, cleanupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s%s/%s", c.APIURL, roomsPath, roomName), nil)
	if err != nil {
		return err
	}

	c.setHeaders(req)

	if err := c.doJSON(req, nil); err != nil {
		return fmt.Errorf("delete room %s: %w", roomName, err)
	}

	return nil
}

// Say sends a chat message into the room and returns the AI reply.
func (c *Client) Say(roomName, text string) (*SayResponse, error) {
	body := map[string]string{
		"room_name": roomName,
		"text":      text,
	}

	var resp SayResponse
	if err := c.postJSON(sayPath, nil, body, &resp); err != nil {
		return nil, fmt.Errorf("say in room %s: %w", roomName, err)
	}

	return &resp, nil
}

// ReportLatency echoes the client timestamps to the backend and returns the
// measured latency in milliseconds. Best-effort: bounded like teardown.
func (c *Client) ReportLatency(roomName string, t0Ms, t1Ms float64) (float64, error) {
	ctx, cancel := context.WithTimeout(c.ctx, cleanupTimeout)
	defer cancel()

	body := map[string]any{
		"room_name":    roomName,
		"client_t0_ms": t0Ms,
		"client_t1_ms": t1Ms,
	}

	data, err := marshalBody(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL+latencyPath, data)
	if err != nil {
		return 0, err
	}

	c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	var resp struct {
		Status    string  `json:"status"`
		LatencyMs float64 `json:"latency_ms"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return 0, fmt.Errorf("report latency: %w", err)
	}

	return resp.LatencyMs, nil
}
