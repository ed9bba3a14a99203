package ai

import (
	"context"

	"github.com/jobdeck/jobdeck/internal/jobboard"
)

// FitAssessment is a local second opinion on how well a resume fits a job.
type FitAssessment struct {
	Fit    bool
	Score  float64
	Reason string
	Raw    string
}

// Matcher evaluates a resume against a single job posting.
type Matcher interface {
	Evaluate(ctx context.Context, resume *jobboard.Resume, job *jobboard.Job) (*FitAssessment, error)
}
