package jobboard

import (
	"fmt"
	"net/url"
	"strings"
)

const jobsPath = "/api/jobs"

// Tab names mirror the board views: matched is the default pool, liked and
// applied hold jobs the user has flagged.
const (
	TabMatched = "matched"
	TabLiked   = "liked"
	TabApplied = "applied"
)

type Jobs struct {
	Items []*Job
}

type Job struct {
	ID              string `json:"id,omitempty"`
	Title           string `json:"title,omitempty"`
	Company         string `json:"company,omitempty"`
	Logo            string `json:"logo,omitempty"`
	Location        string `json:"location,omitempty"`
	LocationType    string `json:"locationType,omitempty"`
	EmploymentType  string `json:"employmentType,omitempty"`
	ExperienceLevel string `json:"experienceLevel,omitempty"`
	Salary          struct {
		Min      int    `json:"min,omitempty"`
		Max      int    `json:"max,omitempty"`
		Currency string `json:"currency,omitempty"`
	} `json:"salary,omitempty"`
	Description      string   `json:"description,omitempty"`
	Qualifications   []string `json:"qualifications,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	Benefits         []string `json:"benefits,omitempty"`
	Skills           []string `json:"skills,omitempty"`

	SponsorsH1B         bool `json:"sponsorsH1B,omitempty"`
	SponsorsCPT         bool `json:"sponsorsCPT,omitempty"`
	SponsorsOPT         bool `json:"sponsorsOPT,omitempty"`
	NoSponsorship       bool `json:"noSponsorship,omitempty"`
	RequiresCitizenship bool `json:"requiresCitizenship,omitempty"`

	Source         string `json:"source,omitempty"`
	ApplicationURL string `json:"applicationUrl,omitempty"`

	PostedAt        string  `json:"postedAt,omitempty"`
	Applicants      int     `json:"applicants,omitempty"`
	MatchPercentage float64 `json:"matchPercentage,omitempty"`
	IsLiked         bool    `json:"isLiked,omitempty"`
	HasApplied      bool    `json:"hasApplied,omitempty"`

	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`

	// Local is the client-side AI assessment. Never sent to the backend.
	Local *LocalAssessment `json:"-"`
}

// LocalAssessment carries the optional client-side Gemini second opinion on a
// resume-to-job fit.
type LocalAssessment struct {
	Fit    bool
	Score  float64
	Reason string
	Error  string
}

type jobListResponse struct {
	Total int    `json:"total"`
	Jobs  []*Job `json:"jobs"`
}

// ListJobs fetches the full job list from the backend.
func (c *Client) ListJobs() (*Jobs, error) {
	var resp jobListResponse
	if err := c.getJSON(jobsPath, nil, &resp); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	return &Jobs{Items: resp.Jobs}, nil
}

// GetJob fetches a single job by id.
func (c *Client) GetJob(id string) (*Job, error) {
	var job Job
	if err := c.getJSON(fmt.Sprintf("%s/%s", jobsPath, id), nil, &job); err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}

	return &job, nil
}

// ToggleLike flips the liked flag on the backend and returns the new value.
func (c *Client) ToggleLike(id string) (bool, error) {
	var resp struct {
		Liked bool `json:"liked"`
	}
	if err := c.postJSON(fmt.Sprintf("%s/%s/like", jobsPath, id), nil, nil, &resp); err != nil {
		return false, fmt.Errorf("toggle like for job %s: %w", id, err)
	}

	return resp.Liked, nil
}

// Apply marks the job as applied.
func (c *Client) Apply(id string) error {
	if err := c.postJSON(fmt.Sprintf("%s/%s/apply", jobsPath, id), nil, nil, nil); err != nil {
		return fmt.Errorf("apply to job %s: %w", id, err)
	}

	return nil
}

// Unapply moves the job back out of the applied pool.
func (c *Client) Unapply(id string) error {
	if err := c.postJSON(fmt.Sprintf("%s/%s/unapply", jobsPath, id), nil, nil, nil); err != nil {
		return fmt.Errorf("unapply job %s: %w", id, err)
	}

	return nil
}

// MatchResult is one entry of a bulk resume-to-jobs match run.
type MatchResult struct {
	JobID           string   `json:"jobId"`
	JobTitle        string   `json:"jobTitle"`
	JobCompany      string   `json:"jobCompany"`
	MatchScore      float64  `json:"matchScore"`
	MatchedSkills   []string `json:"matchedSkills"`
	MissingSkills   []string `json:"missingSkills"`
	Strengths       []string `json:"strengths"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
}

// MatchAnalysis is the detailed scoring for one job-resume pair.
type MatchAnalysis struct {
	MatchScore      float64  `json:"matchScore"`
	MatchedSkills   []string `json:"matchedSkills"`
	MissingSkills   []string `json:"missingSkills"`
	Strengths       []string `json:"strengths"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
}

type matchAllResponse struct {
	ResumeID  string         `json:"resumeId"`
	TotalJobs int            `json:"totalJobs"`
	Matches   []*MatchResult `json:"matches"`
	Model     string         `json:"model"`
}

// MatchAll scores the resume against all jobs. An empty model lets the
// backend pick its default.
func (c *Client) MatchAll(resumeID, model string) ([]*MatchResult, error) {
	q := url.Values{}
	if model != "" {
		q.Set("model", model)
	}

	var resp matchAllResponse
	path := fmt.Sprintf("%s/match/%s", jobsPath, resumeID)
	if err := c.postJSON(path, q, nil, &resp); err != nil {
		return nil, fmt.Errorf("match resume %s: %w", resumeID, err)
	}

	return resp.Matches, nil
}

// GetMatchAnalysis fetches the detailed analysis for one job-resume pair.
func (c *Client) GetMatchAnalysis(jobID, resumeID, model string) (*MatchAnalysis, error) {
	q := url.Values{}
	if model != "" {
		q.Set("model", model)
	}

	var analysis MatchAnalysis
	path := fmt.Sprintf("%s/%s/match-analysis/%s", jobsPath, jobID, resumeID)
	if err := c.getJSON(path, q, &analysis); err != nil {
		return nil, fmt.Errorf("match analysis for job %s: %w", jobID, err)
	}

	return &analysis, nil
}

func (j *Jobs) Len() int {
	return len(j.Items)
}

func (j *Jobs) FindByID(id string) *Job {
	for _, job := range j.Items {
		if job.ID == id {
			return job
		}
	}

	return nil
}

// Tab reports which board tab the job belongs to. Applied wins over liked so
// a job never shows up twice.
func (j *Job) Tab() string {
	switch {
	case j.HasApplied:
		return TabApplied
	case j.IsLiked:
		return TabLiked
	default:
		return TabMatched
	}
}

// FilterTab returns the jobs belonging to the given tab. The receiver is not
// modified.
func (j *Jobs) FilterTab(tab string) *Jobs {
	filtered := &Jobs{}
	for _, job := range j.Items {
		if job.Tab() == tab {
			filtered.Items = append(filtered.Items, job)
		}
	}

	return filtered
}

// Search returns jobs whose title or company contains the query,
// case-insensitively. The receiver is not modified.
func (j *Jobs) Search(query string) *Jobs {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return &Jobs{Items: j.Items}
	}

	filtered := &Jobs{}
	for _, job := range j.Items {
		if strings.Contains(strings.ToLower(job.Title), query) ||
			strings.Contains(strings.ToLower(job.Company), query) {
			filtered.Items = append(filtered.Items, job)
		}
	}

	return filtered
}
