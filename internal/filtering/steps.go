package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jobdeck/jobdeck/internal/jobboard"
)

type tabFilter struct {
	tab string
}

// NewTab creates a filter that keeps only jobs belonging to the configured tab.
func NewTab() Filter {
	return &tabFilter{}
}

func (f *tabFilter) Name() string { return "tab" }

func (f *tabFilter) Disable(string) {}

func (f *tabFilter) IsEnabled() bool { return true }

func (f *tabFilter) Validate(cfg *Config) error {
	f.tab = jobboard.TabMatched
	if cfg == nil || cfg.Tab == "" {
		return nil
	}

	switch cfg.Tab {
	case jobboard.TabMatched, jobboard.TabLiked, jobboard.TabApplied:
		f.tab = cfg.Tab
	default:
		return fmt.Errorf("unknown tab %q", cfg.Tab)
	}

	return nil
}

func (f *tabFilter) Apply(_ context.Context, deps Deps, jobs *jobboard.Jobs) (*jobboard.Jobs, Step, error) {
	initial := jobs.Len()
	kept := jobs.FilterTab(f.tab)

	if deps.Logger != nil && kept.Len() < initial {
		deps.Logger.Debug("jobs narrowed to tab",
			zap.String("tab", f.tab),
			zap.Int("jobs_left", kept.Len()),
		)
	}

	return kept, Step{Initial: initial, Dropped: initial - kept.Len(), Left: kept.Len()}, nil
}

func (f *tabFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true, Details: map[string]string{"tab": f.tab}}
}

type searchFilter struct {
	query string
}

// NewSearch creates a filter that keeps jobs whose title or company matches the query.
func NewSearch() Filter {
	return &searchFilter{}
}

func (f *searchFilter) Name() string { return "search" }

func (f *searchFilter) Disable(string) {}

func (f *searchFilter) IsEnabled() bool { return true }

func (f *searchFilter) Validate(cfg *Config) error {
	f.query = ""
	if cfg != nil {
		f.query = strings.TrimSpace(cfg.Query)
	}
	return nil
}

func (f *searchFilter) Apply(_ context.Context, deps Deps, jobs *jobboard.Jobs) (*jobboard.Jobs, Step, error) {
	initial := jobs.Len()
	if f.query == "" {
		return jobs, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept := jobs.Search(f.query)
	if deps.Logger != nil && kept.Len() < initial {
		deps.Logger.Debug("jobs narrowed by search",
			zap.String("query", f.query),
			zap.Int("jobs_left", kept.Len()),
		)
	}

	return kept, Step{Initial: initial, Dropped: initial - kept.Len(), Left: kept.Len()}, nil
}

func (f *searchFilter) Status() Status {
	details := map[string]string{}
	if f.query != "" {
		details["query"] = f.query
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type sponsorshipFilter struct {
	required bool
}

// NewSponsorship creates a filter that drops postings a candidate needing
// visa sponsorship cannot pursue.
func NewSponsorship() Filter {
	return &sponsorshipFilter{}
}

func (f *sponsorshipFilter) Name() string { return "sponsorship" }

func (f *sponsorshipFilter) Disable(string) {}

func (f *sponsorshipFilter) IsEnabled() bool { return true }

func (f *sponsorshipFilter) Validate(cfg *Config) error {
	f.required = false
	if cfg != nil && cfg.Sponsorship != nil {
		f.required = cfg.Sponsorship.Required
	}
	return nil
}

func (f *sponsorshipFilter) Apply(_ context.Context, deps Deps, jobs *jobboard.Jobs) (*jobboard.Jobs, Step, error) {
	initial := jobs.Len()
	if !f.required {
		return jobs, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept := &jobboard.Jobs{}
	var dropped []string
	for _, job := range jobs.Items {
		if job.NoSponsorship || job.RequiresCitizenship {
			dropped = append(dropped, job.ID)
			continue
		}
		kept.Items = append(kept.Items, job)
	}

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding jobs without sponsorship",
			zap.Strings("excluded_jobs", dropped),
			zap.Int("jobs_left", kept.Len()),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: kept.Len()}, nil
}

func (f *sponsorshipFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"required": fmt.Sprintf("%t", f.required)},
	}
}
