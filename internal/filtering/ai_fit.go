package filtering

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jobdeck/jobdeck/internal/ai"
	"github.com/jobdeck/jobdeck/internal/jobboard"
)

type aiFitFilter struct {
	disabled    bool
	reason      string
	config      *AIConfig
	assessments map[string]*ai.FitAssessment
}

// NewAIFit creates the AI-based filtering step. It annotates every surviving
// job with a local fit assessment and, when configured, drops unfit postings.
func NewAIFit() Filter {
	return &aiFitFilter{}
}

func (f *aiFitFilter) Name() string { return "ai_fit" }

func (f *aiFitFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *aiFitFilter) IsEnabled() bool { return !f.disabled }

func (f *aiFitFilter) Validate(cfg *Config) error {
	f.config = nil
	if cfg != nil {
		f.config = cfg.AI
	}
	if !f.IsEnabled() {
		return nil
	}
	if cfg == nil || cfg.AI == nil {
		return fmt.Errorf("ai configuration is required when ai filter is enabled")
	}
	if cfg.AI.Gemini == nil {
		return fmt.Errorf("gemini configuration is required when ai filter is enabled")
	}
	if strings.TrimSpace(cfg.AI.Gemini.Model) == "" {
		return fmt.Errorf("gemini model is required when ai filter is enabled")
	}
	return nil
}

func (f *aiFitFilter) Apply(ctx context.Context, deps Deps, jobs *jobboard.Jobs) (*jobboard.Jobs, Step, error) {
	initial := jobs.Len()
	if deps.Matcher == nil {
		if deps.Logger != nil {
			deps.Logger.Info("ai matcher is not configured; skipping ai_fit filter")
		}
		return jobs, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}
	if deps.Resume == nil {
		return jobs, Step{}, fmt.Errorf("resume is required for AI evaluation")
	}

	dropUnfit := f.config != nil && f.config.DropUnfit

	assessments, kept, err := f.evaluate(ctx, deps, jobs, dropUnfit)
	if err != nil {
		return jobs, Step{}, err
	}

	f.assessments = make(map[string]*ai.FitAssessment, len(assessments))
	maps.Copy(f.assessments, assessments)

	left := kept.Len()
	return kept, Step{Initial: initial, Dropped: initial - left, Left: left}, nil
}

func (f *aiFitFilter) evaluate(ctx context.Context, deps Deps, jobs *jobboard.Jobs, dropUnfit bool) (map[string]*ai.FitAssessment, *jobboard.Jobs, error) {
	initial := jobs.Len()
	kept := &jobboard.Jobs{Items: make([]*jobboard.Job, 0, initial)}
	assessments := make(map[string]*ai.FitAssessment)

	for _, job := range jobs.Items {
		detailed := job
		if deps.Jobs != nil {
			if full, err := deps.Jobs.GetJob(job.ID); err == nil && full != nil {
				detailed = full
			} else if err != nil && deps.Logger != nil {
				deps.Logger.Debug("fetching detailed job failed",
					zap.String("job_id", job.ID),
					zap.Error(err),
				)
			}
		}

		assessment, err := deps.Matcher.Evaluate(ctx, deps.Resume, detailed)
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.Warn("AI evaluation failed",
					zap.String("job_id", job.ID),
					zap.Error(err),
				)
			}
			detailed.Local = &jobboard.LocalAssessment{Error: err.Error()}
			kept.Items = append(kept.Items, detailed)
			continue
		}

		detailed.Local = &jobboard.LocalAssessment{
			Fit:    assessment.Fit,
			Score:  assessment.Score,
			Reason: assessment.Reason,
		}
		assessments[detailed.ID] = assessment

		if !assessment.Fit {
			if deps.Logger != nil {
				deps.Logger.Info("job rejected by AI provider",
					zap.String("job_id", job.ID),
					zap.Float64("ai_score", assessment.Score),
					zap.String("reason", assessment.Reason),
				)
			}
			if dropUnfit {
				continue
			}
			kept.Items = append(kept.Items, detailed)
			continue
		}

		if deps.Logger != nil {
			deps.Logger.Info("job approved by AI",
				zap.String("job_id", job.ID),
				zap.Float64("ai_score", assessment.Score),
			)
		}

		kept.Items = append(kept.Items, detailed)
	}

	if initial != kept.Len() && deps.Logger != nil {
		deps.Logger.Info("AI filtering completed",
			zap.Int("initial_jobs", initial),
			zap.Int("approved_jobs", kept.Len()),
		)
	}

	return assessments, kept, nil
}

func (f *aiFitFilter) Assessments() map[string]*ai.FitAssessment {
	if f.assessments == nil {
		return map[string]*ai.FitAssessment{}
	}
	return f.assessments
}

func (f *aiFitFilter) Status() Status {
	details := map[string]string{}
	if f.config != nil {
		details["minimum_fit_score"] = fmt.Sprintf("%.2f", f.config.MinimumFitScore)
		details["drop_unfit"] = strconv.FormatBool(f.config.DropUnfit)
		if f.config.Gemini != nil {
			details["model"] = f.config.Gemini.Model
			details["max_log_length"] = strconv.Itoa(f.config.Gemini.MaxLogLength)
		}
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
