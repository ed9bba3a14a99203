// Package store holds the client-side state containers for jobs and
// resumes. Stores are constructed explicitly and passed by reference; there
// are no package-level singletons. Derived views never mutate stored state.
package store

import (
	"sync"

	"go.uber.org/zap"

	"github.com/jobdeck/jobdeck/internal/jobboard"
)

// JobAPI is the slice of the backend client the job store uses.
type JobAPI interface {
	ListJobs() (*jobboard.Jobs, error)
	ToggleLike(id string) (bool, error)
	Apply(id string) error
	Unapply(id string) error
	MatchAll(resumeID, model string) ([]*jobboard.MatchResult, error)
	GetMatchAnalysis(jobID, resumeID, model string) (*jobboard.MatchAnalysis, error)
}

// JobStore keeps the fetched job list and the current board tab. Every
// operation sets loading, clears the previous error, and on failure records
// a human-readable error while leaving the list untouched.
type JobStore struct {
	mu     sync.Mutex
	api    JobAPI
	logger *zap.Logger

	jobs       *jobboard.Jobs
	currentTab string
	selectedID string
	loading    bool
	err        string
}

func NewJobStore(api JobAPI, logger *zap.Logger) *JobStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &JobStore{
		api:        api,
		logger:     logger,
		jobs:       &jobboard.Jobs{},
		currentTab: jobboard.TabMatched,
	}
}

// Fetch loads the job list from the backend.
func (s *JobStore) Fetch() error {
	s.begin()

	jobs, err := s.api.ListJobs()
	if err != nil {
		s.fail("Failed to load jobs", err)
		return err
	}

	s.mu.Lock()
	s.jobs = jobs
	s.loading = false
	s.mu.Unlock()

	return nil
}

// ToggleLike flips the liked flag via the backend and patches the entity
// with the confirmed value.
func (s *JobStore) ToggleLike(id string) error {
	s.begin()

	liked, err := s.api.ToggleLike(id)
	if err != nil {
		s.fail("Failed to update job", err)
		return err
	}

	s.patch(id, func(job *jobboard.Job) { job.IsLiked = liked })

	return nil
}

// Apply marks the job as applied; the job moves to the applied tab.
func (s *JobStore) Apply(id string) error {
	s.begin()

	if err := s.api.Apply(id); err != nil {
		s.fail("Failed to apply to job", err)
		return err
	}

	s.patch(id, func(job *jobboard.Job) { job.HasApplied = true })

	return nil
}

// Unapply moves the job back out of the applied tab.
func (s *JobStore) Unapply(id string) error {
	s.begin()

	if err := s.api.Unapply(id); err != nil {
		s.fail("Failed to unapply job", err)
		return err
	}

	s.patch(id, func(job *jobboard.Job) { job.HasApplied = false })

	return nil
}

// MatchResume runs the bulk AI match and patches scores into the list.
func (s *JobStore) MatchResume(resumeID, model string) ([]*jobboard.MatchResult, error) {
	s.begin()

	results, err := s.api.MatchAll(resumeID, model)
	if err != nil {
		s.fail("Failed to analyze job matches", err)
		return nil, err
	}

	s.mu.Lock()
	for _, result := range results {
		if job := s.jobs.FindByID(result.JobID); job != nil {
			job.MatchPercentage = result.MatchScore
		}
	}
	s.loading = false
	s.mu.Unlock()

	return results, nil
}

// MatchAnalysis fetches the detailed analysis for one job-resume pair.
func (s *JobStore) MatchAnalysis(jobID, resumeID, model string) (*jobboard.MatchAnalysis, error) {
	s.begin()

	analysis, err := s.api.GetMatchAnalysis(jobID, resumeID, model)
	if err != nil {
		s.fail("Failed to load match analysis", err)
		return nil, err
	}

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()

	return analysis, nil
}

// SetTab switches the board tab used by Filtered.
func (s *JobStore) SetTab(tab string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentTab = tab
}

func (s *JobStore) Tab() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentTab
}

// Select remembers a job id for detail views. An unknown id clears the
// selection.
func (s *JobStore) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.jobs.FindByID(id) == nil {
		s.selectedID = ""
		return
	}
	s.selectedID = id
}

func (s *JobStore) Selected() *jobboard.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedID == "" {
		return nil
	}

	return s.jobs.FindByID(s.selectedID)
}

// Jobs returns the full current list.
func (s *JobStore) Jobs() *jobboard.Jobs {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &jobboard.Jobs{Items: s.jobs.Items}
}

// Filtered returns the jobs of the current tab. Pure: the stored list is not
// modified.
func (s *JobStore) Filtered() *jobboard.Jobs {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.jobs.FilterTab(s.currentTab)
}

// SearchFiltered narrows the current tab by a substring over title and
// company.
func (s *JobStore) SearchFiltered(query string) *jobboard.Jobs {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.jobs.FilterTab(s.currentTab).Search(query)
}

func (s *JobStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loading
}

// Err returns the human-readable error of the last failed operation.
func (s *JobStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

func (s *JobStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}

func (s *JobStore) fail(msg string, err error) {
	s.mu.Lock()
	s.loading = false
	s.err = msg
	s.mu.Unlock()

	s.logger.Warn(msg, zap.Error(err))
}

func (s *JobStore) patch(id string, update func(job *jobboard.Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job := s.jobs.FindByID(id); job != nil {
		update(job)
	}
	s.loading = false
}
