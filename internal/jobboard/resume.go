package jobboard

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const resumesPath = "/api/resumes"

// MaxResumeSize is the upload limit enforced locally before any network call.
const MaxResumeSize = 5 * 1024 * 1024

var allowedResumeTypes = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// Resume statuses as reported by the backend.
const (
	ResumeStatusReady      = "ready"
	ResumeStatusProcessing = "processing"
	ResumeStatusError      = "error"
)

type Resumes struct {
	Items []*Resume
}

type Resume struct {
	ID           string `json:"id,omitempty"`
	FileName     string `json:"fileName,omitempty"`
	OriginalName string `json:"originalName,omitempty"`
	FileSize     int64  `json:"fileSize,omitempty"`
	FileType     string `json:"fileType,omitempty"`
	Status       string `json:"status,omitempty"`
	ParsedData   string `json:"parsedData,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// Ready reports whether the resume can be used for matching.
func (r *Resume) Ready() bool {
	return r.Status == ResumeStatusReady
}

type resumeListResponse struct {
	Total int       `json:"total"`
	Items []*Resume `json:"items"`
}

// ValidationError is a local rejection raised before any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ValidateResumeFile checks type and size limits locally. The backend applies
// the same rules, but rejecting here avoids wasting an upload.
func ValidateResumeFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedResumeTypes[ext] {
		return &ValidationError{Reason: "only PDF and Word files are supported (.pdf, .doc, .docx)"}
	}

	stat, err := os.Stat(path)
	if err != nil {
		return err
	}

	if stat.Size() > MaxResumeSize {
		return &ValidationError{Reason: fmt.Sprintf("file size must be <= %dMB", MaxResumeSize/(1024*1024))}
	}

	return nil
}

// ListResumes fetches the resume list.
func (c *Client) ListResumes() (*Resumes, error) {
	var resp resumeListResponse
	if err := c.getJSON(resumesPath, nil, &resp); err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}

	return &Resumes{Items: resp.Items}, nil
}

// UploadResume validates the file locally and uploads it as multipart form
// data. onProgress, when non-nil, is called with the upload percentage.
func (c *Client) UploadResume(path string, onProgress func(percent int)) (*Resume, error) {
	if err := ValidateResumeFile(path); err != nil {
		return nil, err
	}

	data, err := c.postMultipart(resumesPath+"/upload", path, onProgress)
	if err != nil {
		return nil, fmt.Errorf("upload resume: %w", err)
	}

	var resume Resume
	if err := json.Unmarshal(data, &resume); err != nil {
		return nil, fmt.Errorf("upload resume: %w", err)
	}

	return &resume, nil
}

// DeleteResume removes the resume from the backend.
func (c *Client) DeleteResume(id string) error {
	if err := c.deleteJSON(fmt.Sprintf("%s/%s", resumesPath, id), nil); err != nil {
		return fmt.Errorf("delete resume %s: %w", id, err)
	}

	return nil
}

// DownloadResume streams the original resume file into dst.
func (c *Client) DownloadResume(id string, dst io.Writer) error {
	if err := c.getBinary(fmt.Sprintf("%s/%s/download", resumesPath, id), dst); err != nil {
		return fmt.Errorf("download resume %s: %w", id, err)
	}

	return nil
}

func (r *Resumes) Len() int {
	return len(r.Items)
}

func (r *Resumes) FindByID(id string) *Resume {
	for _, resume := range r.Items {
		if resume.ID == id {
			return resume
		}
	}

	return nil
}
