package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/jobdeck/jobdeck/internal/ai"
	"github.com/jobdeck/jobdeck/internal/jobboard"
	"github.com/jobdeck/jobdeck/internal/util"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	GenerateContentWithCache(ctx context.Context, prompt, cacheName string) (string, error)
	EnsureResumeCache(ctx context.Context, resumeID, displayName, payload string) (string, error)
}

// Matcher produces a local fit assessment for one resume against one job.
// It is a second opinion next to the backend match scores, not a replacement.
type Matcher struct {
	generator contentGenerator
	minScore  float64
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200

	// cachedResumePlaceholder replaces the inline resume when the payload
	// already lives in a Gemini cached content resource.
	cachedResumePlaceholder = "(provided via cached context above)"
)

func NewMatcher(generator contentGenerator, logger *zap.Logger, minScore float64, maxLogLength int) *Matcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Matcher{
		generator: generator,
		minScore:  minScore,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Evaluate asks Gemini whether the resume fits the job. The resume payload is
// pushed into a cached content resource once per resume; when caching fails
// the resume is sent inline instead.
func (m *Matcher) Evaluate(ctx context.Context, resume *jobboard.Resume, job *jobboard.Job) (*ai.FitAssessment, error) {
	if resume == nil {
		return nil, fmt.Errorf("resume is required")
	}
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}

	resumeJSON, err := marshalResume(resume)
	if err != nil {
		return nil, err
	}

	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	cacheName, cacheErr := m.generator.EnsureResumeCache(ctx, resume.ID, resume.OriginalName, resumeJSON)
	if cacheErr != nil {
		m.logger.Debug("resume cache unavailable, sending resume inline",
			zap.String("resume_id", resume.ID),
			zap.Error(cacheErr),
		)
	}

	inlineResume := resumeJSON
	if cacheName != "" {
		inlineResume = cachedResumePlaceholder
	}

	prompt := buildPrompt(inlineResume, string(jobJSON))

	m.logger.Debug("gemini fit request",
		zap.String("job_id", job.ID),
		zap.String("resume_id", resume.ID),
		zap.Bool("cached_resume", cacheName != ""),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, m.maxLogLen)),
	)

	var raw string
	if cacheName != "" {
		raw, err = m.generator.GenerateContentWithCache(ctx, prompt, cacheName)
	} else {
		raw, err = m.generator.GenerateContent(ctx, prompt)
	}
	if err != nil {
		return nil, err
	}

	m.logger.Debug("gemini fit response",
		zap.String("job_id", job.ID),
		zap.String("resume_id", resume.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, m.maxLogLen)),
	)

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if m.minScore > 0 && !math.IsNaN(assessment.Score) && assessment.Score < m.minScore {
		m.logger.Debug("set fit to false by score threshold",
			zap.String("job_id", job.ID),
			zap.Float64("score", assessment.Score),
			zap.Float64("threshold", m.minScore),
		)
		assessment.Fit = false
	}

	assessment.Raw = raw
	return assessment, nil
}

func marshalResume(resume *jobboard.Resume) (string, error) {
	payload := map[string]any{
		"id":   resume.ID,
		"name": resume.OriginalName,
	}
	if strings.TrimSpace(resume.ParsedData) != "" {
		payload["parsed"] = resume.ParsedData
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal resume payload: %w", err)
	}

	return string(data), nil
}

func buildPrompt(resumeJSON, jobJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Resume:\n{{RESUME_JSON}}\n\nJob posting:\n{{JOB_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{RESUME_JSON}}", resumeJSON)
	prompt = strings.ReplaceAll(prompt, "{{JOB_JSON}}", jobJSON)
	return prompt
}

func parseResponse(raw string) (*ai.FitAssessment, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = extractJSON(cleaned)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	fit := coerceBool(data["fit"])
	score := coerceFloat(data["score"])
	reason := coerceString(data["reason"])

	if math.IsNaN(score) {
		score = 0
	}

	return &ai.FitAssessment{
		Fit:    fit,
		Score:  score,
		Reason: reason,
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
