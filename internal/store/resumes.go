package store

import (
	"io"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jobdeck/jobdeck/internal/jobboard"
)

// ResumeAPI is the slice of the backend client the resume store uses.
type ResumeAPI interface {
	ListResumes() (*jobboard.Resumes, error)
	UploadResume(path string, onProgress func(percent int)) (*jobboard.Resume, error)
	DeleteResume(id string) error
	DownloadResume(id string, dst io.Writer) error
}

// ResumeStore keeps the uploaded resume list and per-file upload progress.
type ResumeStore struct {
	mu     sync.Mutex
	api    ResumeAPI
	logger *zap.Logger

	resumes    *jobboard.Resumes
	selectedID string
	loading    bool
	err        string

	progress *progressTracker
}

func NewResumeStore(api ResumeAPI, logger *zap.Logger) *ResumeStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ResumeStore{
		api:      api,
		logger:   logger,
		resumes:  &jobboard.Resumes{},
		progress: newProgressTracker(0),
	}
}

// Fetch loads the resume list from the backend.
func (s *ResumeStore) Fetch() error {
	s.begin()

	resumes, err := s.api.ListResumes()
	if err != nil {
		s.fail("Failed to load resumes", err)
		return err
	}

	s.mu.Lock()
	s.resumes = resumes
	s.loading = false
	s.mu.Unlock()

	return nil
}

// Upload validates the file locally, uploads it with progress tracking and
// refreshes the list when done. Validation failures surface before any
// network call and leave no progress entry behind.
func (s *ResumeStore) Upload(path string) error {
	if err := jobboard.ValidateResumeFile(path); err != nil {
		s.mu.Lock()
		s.err = err.Error()
		s.mu.Unlock()

		return err
	}

	name := filepath.Base(path)
	s.progress.set(name, 0, UploadStatusUploading, "")

	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()

	_, err := s.api.UploadResume(path, func(percent int) {
		s.progress.set(name, percent, UploadStatusUploading, "")
	})
	if err != nil {
		s.progress.set(name, 0, UploadStatusError, err.Error())
		s.fail("Upload failed", err)

		return err
	}

	s.progress.set(name, 100, UploadStatusDone, "")

	return s.Fetch()
}

// Delete removes the resume and drops it from the list. A deleted selection
// is cleared.
func (s *ResumeStore) Delete(id string) error {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()

	if err := s.api.DeleteResume(id); err != nil {
		s.fail("Delete failed", err)
		return err
	}

	s.mu.Lock()
	kept := &jobboard.Resumes{}
	for _, resume := range s.resumes.Items {
		if resume.ID != id {
			kept.Items = append(kept.Items, resume)
		}
	}
	s.resumes = kept
	if s.selectedID == id {
		s.selectedID = ""
	}
	s.mu.Unlock()

	return nil
}

// Download streams the original file into dst.
func (s *ResumeStore) Download(id string, dst io.Writer) error {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()

	if err := s.api.DownloadResume(id, dst); err != nil {
		s.fail("Download failed", err)
		return err
	}

	return nil
}

// Select remembers a resume id. An unknown id clears the selection.
func (s *ResumeStore) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resumes.FindByID(id) == nil {
		s.selectedID = ""
		return
	}
	s.selectedID = id
}

func (s *ResumeStore) Selected() *jobboard.Resume {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedID == "" {
		return nil
	}

	return s.resumes.FindByID(s.selectedID)
}

// Resumes returns the current list.
func (s *ResumeStore) Resumes() *jobboard.Resumes {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &jobboard.Resumes{Items: s.resumes.Items}
}

// Progress returns the upload progress records in insertion order.
func (s *ResumeStore) Progress() []UploadProgress {
	return s.progress.snapshot()
}

func (s *ResumeStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loading
}

// Err returns the human-readable error of the last failed operation.
func (s *ResumeStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Close cancels pending progress prune timers.
func (s *ResumeStore) Close() {
	s.progress.close()
}

// SetRetain adjusts how long finished progress entries stay visible. Used by
// tests to shorten pruning.
func (s *ResumeStore) SetRetain(d time.Duration) {
	s.progress.mu.Lock()
	defer s.progress.mu.Unlock()

	if d > 0 {
		s.progress.retain = d
	}
}

func (s *ResumeStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}

func (s *ResumeStore) fail(msg string, err error) {
	s.mu.Lock()
	s.loading = false
	s.err = msg
	s.mu.Unlock()

	s.logger.Warn(msg, zap.Error(err))
}
