package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobdeck/jobdeck/internal/ai"
	"github.com/jobdeck/jobdeck/internal/ai/gemini"
	"github.com/jobdeck/jobdeck/internal/filtering"
	"github.com/jobdeck/jobdeck/internal/jobboard"
	"github.com/jobdeck/jobdeck/internal/logger"
	"github.com/jobdeck/jobdeck/internal/secrets"
	"github.com/jobdeck/jobdeck/internal/store"
)

const (
	promptLike     = "Toggle like"
	promptApply    = "Apply"
	promptUnapply  = "Withdraw application"
	promptAnalysis = "Show match analysis"
	promptBack     = "back"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Browse and act on the job board",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs on a board tab, optionally narrowed by search and AI fit",
	Run: func(cmd *cobra.Command, _ []string) {
		listJobs(cmd)
	},
}

var jobsLikeCmd = &cobra.Command{
	Use:   "like <job-id>",
	Short: "Toggle the liked flag on a job",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		zl := newLogger()
		jobs := newJobStore(zl)

		if err := jobs.ToggleLike(args[0]); err != nil {
			zl.Fatal("toggling like", zap.Error(err))
		}

		job := jobs.Jobs().FindByID(args[0])
		zl.Info("like toggled", zap.String("job_id", args[0]), zap.Bool("liked", job != nil && job.IsLiked))
	},
}

var jobsApplyCmd = &cobra.Command{
	Use:   "apply <job-id>",
	Short: "Apply to a job",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		zl := newLogger()
		jobs := newJobStore(zl)

		if err := jobs.Apply(args[0]); err != nil {
			zl.Fatal("applying", zap.Error(err))
		}

		zl.Info("applied to job", zap.String("job_id", args[0]))
	},
}

var jobsUnapplyCmd = &cobra.Command{
	Use:   "unapply <job-id>",
	Short: "Withdraw an application",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		zl := newLogger()
		jobs := newJobStore(zl)

		if err := jobs.Unapply(args[0]); err != nil {
			zl.Fatal("withdrawing application", zap.Error(err))
		}

		zl.Info("application withdrawn", zap.String("job_id", args[0]))
	},
}

var jobsMatchCmd = &cobra.Command{
	Use:   "match <resume-id>",
	Short: "Score a resume against every job on the board",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		zl := newLogger()
		jobs := newJobStore(zl)

		model, _ := cmd.Flags().GetString("model")
		results, err := jobs.MatchResume(args[0], model)
		if err != nil {
			zl.Fatal("matching resume", zap.Error(err))
		}

		for _, result := range results {
			fmt.Printf("%-12s %5.1f%%  %s / %s\n", result.JobID, result.MatchScore, result.JobTitle, result.JobCompany)
		}

		zl.Info("resume matched", zap.String("resume_id", args[0]), zap.Int("jobs", len(results)))
	},
}

var jobsAnalysisCmd = &cobra.Command{
	Use:   "analysis <job-id> <resume-id>",
	Short: "Show the detailed match analysis for one job-resume pair",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		zl := newLogger()
		jobs := newJobStore(zl)

		model, _ := cmd.Flags().GetString("model")
		analysis, err := jobs.MatchAnalysis(args[0], args[1], model)
		if err != nil {
			zl.Fatal("fetching match analysis", zap.Error(err))
		}

		fmt.Printf("Match score: %.1f%%\n", analysis.MatchScore)
		printList("Matched skills", analysis.MatchedSkills)
		printList("Missing skills", analysis.MissingSkills)
		printList("Strengths", analysis.Strengths)
		printList("Gaps", analysis.Gaps)
		printList("Recommendations", analysis.Recommendations)
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd, jobsLikeCmd, jobsApplyCmd, jobsUnapplyCmd, jobsMatchCmd, jobsAnalysisCmd)

	jobsListCmd.Flags().StringP("tab", "t", jobboard.TabMatched, "board tab: matched, liked or applied")
	jobsListCmd.Flags().StringP("search", "s", "", "narrow by title or company")
	jobsListCmd.Flags().Bool("sponsorship", false, "drop postings without visa sponsorship")
	jobsListCmd.Flags().StringP("resume", "r", "", "resume id used by the AI fit advisor and match analysis")
	jobsListCmd.Flags().Bool("ai", false, "run the local AI fit advisor over the list")
	jobsListCmd.Flags().BoolP("interactive", "i", false, "pick jobs from a menu and act on them")

	jobsMatchCmd.Flags().StringP("model", "m", "", "scoring model; empty uses the backend default")
	jobsAnalysisCmd.Flags().StringP("model", "m", "", "scoring model; empty uses the backend default")
}

func newJobStore(zl *zap.Logger) *store.JobStore {
	client, _ := newBackendClient(context.Background(), zl)

	jobs := store.NewJobStore(client, zl)
	if err := jobs.Fetch(); err != nil {
		zl.Fatal("loading jobs", zap.Error(err))
	}

	return jobs
}

func listJobs(cmd *cobra.Command) {
	ctx := context.Background()
	zl := newLogger()

	client, config := newBackendClient(ctx, zl)

	jobs := store.NewJobStore(client, zl)
	if err := jobs.Fetch(); err != nil {
		zl.Fatal("loading jobs", zap.Error(err))
	}

	tab, _ := cmd.Flags().GetString("tab")
	query, _ := cmd.Flags().GetString("search")
	sponsorship, _ := cmd.Flags().GetBool("sponsorship")
	withAI, _ := cmd.Flags().GetBool("ai")
	resumeID, _ := cmd.Flags().GetString("resume")

	if config.Sponsorship != nil && config.Sponsorship.Required {
		sponsorship = true
	}

	cfg := &filtering.Config{
		Tab:         tab,
		Query:       query,
		Sponsorship: &filtering.SponsorshipConfig{Required: sponsorship},
		AI:          filterAIConfig(config.AI),
	}

	deps := filtering.Deps{Jobs: client, Logger: zl}
	steps := []filtering.Filter{
		filtering.NewTab(),
		filtering.NewSearch(),
		filtering.NewSponsorship(),
		filtering.NewAIFit(),
	}

	if withAI && config.AI != nil && config.AI.Enabled {
		matcher, err := newAIMatcher(ctx, config.AI, zl)
		if err != nil {
			zl.Warn("skipping AI fit advisor", zap.Error(err))
			filtering.DisableByName(steps, "ai_fit", err.Error())
		} else {
			if resumeID == "" {
				zl.Fatal("a resume id is required for the AI fit advisor", zap.String("hint", "pass --resume"))
			}
			resume, err := matchingResume(client, resumeID)
			if err != nil {
				zl.Fatal("loading resume for the AI fit advisor", zap.Error(err))
			}
			deps.Matcher = matcher
			deps.Resume = resume
		}
	} else {
		filtering.DisableByName(steps, "ai_fit", "not requested")
	}

	filtered, _, err := filtering.Run(ctx, cfg, deps, steps, jobs.Jobs())
	if err != nil {
		zl.Fatal("filtering jobs", zap.Error(err))
	}

	for _, job := range filtered.Items {
		line := fmt.Sprintf("%-12s %5.1f%%  %s / %s", job.ID, job.MatchPercentage, job.Title, job.Company)
		if job.Local != nil {
			switch {
			case job.Local.Error != "":
				line += "  [ai: unavailable]"
			case job.Local.Fit:
				line += fmt.Sprintf("  [ai: fit %.2f]", job.Local.Score)
			default:
				line += fmt.Sprintf("  [ai: unfit, %s]", job.Local.Reason)
			}
		}
		fmt.Println(line)
	}

	zl.Info("jobs listed", zap.String("tab", tab), zap.Int("count", filtered.Len()))

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		runJobMenu(zl, jobs, filtered, resumeID)
	}
}

// runJobMenu drives the pick-a-job / pick-an-action loop until the user backs
// out or aborts the prompt.
func runJobMenu(zl *zap.Logger, jobs *store.JobStore, listed *jobboard.Jobs, resumeID string) {
	for {
		items := make([]string, 0, listed.Len()+1)
		for _, job := range listed.Items {
			items = append(items, fmt.Sprintf("%s %s / %s", job.ID, job.Title, job.Company))
		}

		jobPrompt := promptui.Select{
			Label: "Choose a job and press ENTER",
			Items: append(items, promptBack),
		}

		_, selected, err := jobPrompt.Run()
		if err != nil || selected == promptBack {
			return
		}

		jobID := strings.Split(selected, " ")[0]

		actionPrompt := promptui.Select{
			Label: selected,
			Items: []string{promptLike, promptApply, promptUnapply, promptAnalysis, promptBack},
		}

		_, action, err := actionPrompt.Run()
		if err != nil {
			return
		}

		if err := handleJobAction(zl, jobs, jobID, action, resumeID); err != nil {
			zl.Warn("job action failed", zap.String("job_id", jobID), zap.Error(err))
		}
	}
}

func handleJobAction(zl *zap.Logger, jobs *store.JobStore, jobID, action, resumeID string) error {
	switch action {
	case promptLike:
		if err := jobs.ToggleLike(jobID); err != nil {
			return err
		}
		job := jobs.Jobs().FindByID(jobID)
		zl.Info("like toggled", zap.String("job_id", jobID), zap.Bool("liked", job != nil && job.IsLiked))
		return nil
	case promptApply:
		if err := jobs.Apply(jobID); err != nil {
			return err
		}
		zl.Info("applied to job", zap.String("job_id", jobID))
		return nil
	case promptUnapply:
		if err := jobs.Unapply(jobID); err != nil {
			return err
		}
		zl.Info("application withdrawn", zap.String("job_id", jobID))
		return nil
	case promptAnalysis:
		if resumeID == "" {
			fmt.Println("pass --resume to fetch a match analysis")
			return nil
		}
		analysis, err := jobs.MatchAnalysis(jobID, resumeID, "")
		if err != nil {
			return err
		}
		fmt.Printf("Match score: %.1f%%\n", analysis.MatchScore)
		printList("Matched skills", analysis.MatchedSkills)
		printList("Missing skills", analysis.MissingSkills)
		printList("Recommendations", analysis.Recommendations)
		return nil
	case promptBack:
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// matchingResume loads the full resume for the local fit advisor. The model
// needs the parsed content, and a resume can only be matched once the
// backend finished parsing it.
func matchingResume(client *jobboard.Client, id string) (*jobboard.Resume, error) {
	resumes, err := client.ListResumes()
	if err != nil {
		return nil, err
	}

	resume := resumes.FindByID(id)
	if resume == nil {
		return nil, fmt.Errorf("resume %s not found", id)
	}
	if !resume.Ready() {
		return nil, fmt.Errorf("resume %s is not ready for matching (status: %s)", id, resume.Status)
	}

	return resume, nil
}

func filterAIConfig(cfg *AIConfig) *filtering.AIConfig {
	if cfg == nil {
		return &filtering.AIConfig{Gemini: &filtering.GeminiConfig{Model: "gemini-2.5-flash"}}
	}

	out := &filtering.AIConfig{
		Enabled:         cfg.Enabled,
		Provider:        cfg.Provider,
		MinimumFitScore: cfg.MinimumFitScore,
		DropUnfit:       cfg.DropUnfit,
		Gemini:          &filtering.GeminiConfig{Model: "gemini-2.5-flash"},
	}
	if cfg.Gemini != nil {
		if cfg.Gemini.Model != "" {
			out.Gemini.Model = cfg.Gemini.Model
		}
		out.Gemini.MaxLogLength = cfg.Gemini.MaxLogLength
	}

	return out
}

func newAIMatcher(ctx context.Context, cfg *AIConfig, zl *zap.Logger) (ai.Matcher, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when the ai advisor is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}

	minScore := cfg.MinimumFitScore
	if minScore < 0 {
		minScore = 0
	}

	matcherLogger := logger.WithCommonFields(zl, "gemini", generator.Model())

	return gemini.NewMatcher(generator, matcherLogger, minScore, cfg.Gemini.MaxLogLength), nil
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}

	fmt.Println(title + ":")
	for _, item := range items {
		fmt.Println("  - " + item)
	}
}
