package store

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobdeck/jobdeck/internal/jobboard"
)

type fakeResumeAPI struct {
	resumes   []*jobboard.Resume
	uploadErr error
	deleteErr error

	uploads   int
	listCalls int
}

func (f *fakeResumeAPI) ListResumes() (*jobboard.Resumes, error) {
	f.listCalls++
	return &jobboard.Resumes{Items: f.resumes}, nil
}

func (f *fakeResumeAPI) UploadResume(path string, onProgress func(percent int)) (*jobboard.Resume, error) {
	f.uploads++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}

	if onProgress != nil {
		onProgress(50)
		onProgress(100)
	}

	resume := &jobboard.Resume{ID: "r1", OriginalName: filepath.Base(path), Status: jobboard.ResumeStatusReady}
	f.resumes = append(f.resumes, resume)

	return resume, nil
}

func (f *fakeResumeAPI) DeleteResume(string) error { return f.deleteErr }

func (f *fakeResumeAPI) DownloadResume(_ string, dst io.Writer) error {
	_, err := dst.Write([]byte("%PDF-1.4"))
	return err
}

func writeTempResume(t *testing.T, name string, size int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("a"), size), 0o644))

	return path
}

func TestUploadRejectsOversizedFileBeforeNetwork(t *testing.T) {
	api := &fakeResumeAPI{}
	s := NewResumeStore(api, nil)
	defer s.Close()

	path := writeTempResume(t, "big.pdf", jobboard.MaxResumeSize+1)

	err := s.Upload(path)

	var validation *jobboard.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Zero(t, api.uploads, "validation failures must not reach the network")
	require.NotEmpty(t, s.Err())
	require.Empty(t, s.Progress(), "no progress entry for rejected files")
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	api := &fakeResumeAPI{}
	s := NewResumeStore(api, nil)
	defer s.Close()

	path := writeTempResume(t, "resume.txt", 10)

	var validation *jobboard.ValidationError
	require.ErrorAs(t, s.Upload(path), &validation)
	require.Zero(t, api.uploads)
}

func TestUploadTracksProgressAndRefreshesList(t *testing.T) {
	api := &fakeResumeAPI{}
	s := NewResumeStore(api, nil)
	defer s.Close()
	s.SetRetain(time.Hour)

	path := writeTempResume(t, "resume.pdf", 128)

	require.NoError(t, s.Upload(path))

	progress := s.Progress()
	require.Len(t, progress, 1)
	require.Equal(t, "resume.pdf", progress[0].FileName)
	require.Equal(t, UploadStatusDone, progress[0].Status)
	require.Equal(t, 100, progress[0].Percent)

	require.Equal(t, 1, s.Resumes().Len(), "upload triggers a list refresh")
	require.Equal(t, 1, api.listCalls)
}

func TestUploadFailureRecordsErrorEntry(t *testing.T) {
	api := &fakeResumeAPI{uploadErr: errors.New("disk full")}
	s := NewResumeStore(api, nil)
	defer s.Close()
	s.SetRetain(time.Hour)

	path := writeTempResume(t, "resume.pdf", 128)

	require.Error(t, s.Upload(path))

	progress := s.Progress()
	require.Len(t, progress, 1)
	require.Equal(t, UploadStatusError, progress[0].Status)
	require.Equal(t, "disk full", progress[0].Err)
	require.Equal(t, "Upload failed", s.Err())
}

func TestFinishedProgressEntriesArePruned(t *testing.T) {
	api := &fakeResumeAPI{}
	s := NewResumeStore(api, nil)
	defer s.Close()
	s.SetRetain(10 * time.Millisecond)

	path := writeTempResume(t, "resume.pdf", 128)
	require.NoError(t, s.Upload(path))
	require.Len(t, s.Progress(), 1)

	require.Eventually(t, func() bool {
		return len(s.Progress()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestProgressKeepsInsertionOrder(t *testing.T) {
	s := NewResumeStore(&fakeResumeAPI{}, nil)
	defer s.Close()

	s.progress.set("b.pdf", 10, UploadStatusUploading, "")
	s.progress.set("a.pdf", 20, UploadStatusUploading, "")
	s.progress.set("b.pdf", 30, UploadStatusUploading, "")

	progress := s.Progress()
	require.Equal(t, "b.pdf", progress[0].FileName, "updates keep the original position")
	require.Equal(t, 30, progress[0].Percent)
	require.Equal(t, "a.pdf", progress[1].FileName)
}

func TestDeleteRemovesResumeAndClearsSelection(t *testing.T) {
	api := &fakeResumeAPI{resumes: []*jobboard.Resume{{ID: "r1"}, {ID: "r2"}}}
	s := NewResumeStore(api, nil)
	defer s.Close()

	require.NoError(t, s.Fetch())
	s.Select("r1")
	require.NotNil(t, s.Selected())

	require.NoError(t, s.Delete("r1"))
	require.Equal(t, 1, s.Resumes().Len())
	require.Nil(t, s.Selected())
}

func TestDeleteFailureKeepsList(t *testing.T) {
	api := &fakeResumeAPI{resumes: []*jobboard.Resume{{ID: "r1"}}, deleteErr: errors.New("nope")}
	s := NewResumeStore(api, nil)
	defer s.Close()

	require.NoError(t, s.Fetch())
	require.Error(t, s.Delete("r1"))
	require.Equal(t, 1, s.Resumes().Len())
	require.Equal(t, "Delete failed", s.Err())
}

func TestDownloadWritesBinary(t *testing.T) {
	s := NewResumeStore(&fakeResumeAPI{}, nil)
	defer s.Close()

	var buf bytes.Buffer
	require.NoError(t, s.Download("r1", &buf))
	require.Equal(t, "%PDF-1.4", buf.String())
}
