package jobboard

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAPIURL = "http://localhost:8000"
	userAgent     = "jobdeck/cli"

	// Timeout for best-effort calls (room teardown, latency reports) so a
	// hung backend cannot block session end.
	cleanupTimeout = 5 * time.Second
)

// Client talks to the job-board backend REST API.
type Client struct {
	// ctx used only for http requests right now
	ctx        context.Context
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a backend client. An empty apiURL falls back to the local
// development backend. The token is optional: the backend currently runs
// without authentication in development setups.
func New(ctx context.Context, logger *zap.Logger, apiURL, token string) *Client {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &Client{
		ctx:    ctx,
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}
