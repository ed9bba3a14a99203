package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobdeck/jobdeck/internal/jobboard"
)

type fakeJobAPI struct {
	jobs     []*jobboard.Job
	listErr  error
	applyErr error
	liked    bool
	matches  []*jobboard.MatchResult
	analysis *jobboard.MatchAnalysis

	applyCalls int
}

func (f *fakeJobAPI) ListJobs() (*jobboard.Jobs, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	return &jobboard.Jobs{Items: f.jobs}, nil
}

func (f *fakeJobAPI) ToggleLike(string) (bool, error) { return f.liked, nil }

func (f *fakeJobAPI) Apply(string) error {
	f.applyCalls++
	return f.applyErr
}

func (f *fakeJobAPI) Unapply(string) error { return nil }

func (f *fakeJobAPI) MatchAll(string, string) ([]*jobboard.MatchResult, error) {
	return f.matches, nil
}

func (f *fakeJobAPI) GetMatchAnalysis(string, string, string) (*jobboard.MatchAnalysis, error) {
	return f.analysis, nil
}

func newFetchedJobStore(t *testing.T, api *fakeJobAPI) *JobStore {
	t.Helper()

	s := NewJobStore(api, nil)
	require.NoError(t, s.Fetch())

	return s
}

func TestApplyMovesJobBetweenTabs(t *testing.T) {
	api := &fakeJobAPI{jobs: []*jobboard.Job{{ID: "1"}}}
	s := newFetchedJobStore(t, api)

	require.Equal(t, 1, s.Filtered().Len(), "job starts on the matched tab")

	require.NoError(t, s.Apply("1"))
	require.Zero(t, s.Filtered().Len(), "applied job leaves the matched tab")

	s.SetTab(jobboard.TabApplied)
	require.Equal(t, 1, s.Filtered().Len())

	require.NoError(t, s.Unapply("1"))
	require.Zero(t, s.Filtered().Len())

	s.SetTab(jobboard.TabMatched)
	require.Equal(t, 1, s.Filtered().Len(), "unapplied job returns to matched")
}

func TestToggleLikeUsesBackendValue(t *testing.T) {
	api := &fakeJobAPI{jobs: []*jobboard.Job{{ID: "1"}}, liked: true}
	s := newFetchedJobStore(t, api)

	require.NoError(t, s.ToggleLike("1"))
	require.True(t, s.Jobs().FindByID("1").IsLiked)

	s.SetTab(jobboard.TabLiked)
	require.Equal(t, 1, s.Filtered().Len())
}

func TestFetchFailureKeepsPriorState(t *testing.T) {
	api := &fakeJobAPI{jobs: []*jobboard.Job{{ID: "1", Title: "Go Developer"}}}
	s := newFetchedJobStore(t, api)

	api.listErr = errors.New("connection refused")
	require.Error(t, s.Fetch())

	require.Equal(t, "Failed to load jobs", s.Err())
	require.False(t, s.Loading())
	require.Equal(t, 1, s.Jobs().Len(), "prior list survives a failed refresh")
}

func TestApplyFailureLeavesFlagUntouched(t *testing.T) {
	api := &fakeJobAPI{jobs: []*jobboard.Job{{ID: "1"}}, applyErr: errors.New("boom")}
	s := newFetchedJobStore(t, api)

	require.Error(t, s.Apply("1"))
	require.False(t, s.Jobs().FindByID("1").HasApplied)
	require.NotEmpty(t, s.Err())

	// A subsequent successful operation clears the error.
	api.applyErr = nil
	require.NoError(t, s.Apply("1"))
	require.Empty(t, s.Err())
}

func TestMatchResumePatchesScores(t *testing.T) {
	api := &fakeJobAPI{
		jobs: []*jobboard.Job{{ID: "1"}, {ID: "2", MatchPercentage: 10}},
		matches: []*jobboard.MatchResult{
			{JobID: "1", MatchScore: 93},
			{JobID: "missing", MatchScore: 50},
		},
	}
	s := newFetchedJobStore(t, api)

	results, err := s.MatchResume("r1", "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, 93.0, s.Jobs().FindByID("1").MatchPercentage)
	require.Equal(t, 10.0, s.Jobs().FindByID("2").MatchPercentage, "unmatched job keeps its score")
}

func TestSearchFilteredIsPure(t *testing.T) {
	api := &fakeJobAPI{jobs: []*jobboard.Job{
		{ID: "1", Title: "Go Developer", Company: "Acme"},
		{ID: "2", Title: "UX Designer", Company: "Globex"},
	}}
	s := newFetchedJobStore(t, api)

	require.Equal(t, 1, s.SearchFiltered("go").Len())
	require.Equal(t, 1, s.SearchFiltered("GLOBEX").Len())
	require.Equal(t, 2, s.Jobs().Len(), "filtering never mutates the stored list")
}

func TestSelectUnknownJobClearsSelection(t *testing.T) {
	api := &fakeJobAPI{jobs: []*jobboard.Job{{ID: "1"}}}
	s := newFetchedJobStore(t, api)

	s.Select("1")
	require.NotNil(t, s.Selected())

	s.Select("missing")
	require.Nil(t, s.Selected())
}
