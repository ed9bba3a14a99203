package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobdeck/jobdeck/internal/jobboard"
	"github.com/jobdeck/jobdeck/internal/util"
)

const evaluationPollInterval = 2 * time.Second

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse saved mock-interview sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved interview sessions",
	Run: func(_ *cobra.Command, _ []string) {
		zl := newLogger()
		client, _ := newBackendClient(context.Background(), zl)

		sessions, err := client.ListInterviews()
		if err != nil {
			zl.Fatal("listing interviews", zap.Error(err))
		}

		for _, session := range sessions.Items {
			score := "-"
			if session.IsEvaluated {
				score = fmt.Sprintf("%.1f", session.OverallScore)
			}
			fmt.Printf("%-12s %-30s %3d questions  score %-5s  %s\n",
				session.ID, session.JobTitle, session.QuestionCount, score, session.CreatedAt)
		}

		zl.Info("sessions listed", zap.Int("count", sessions.Len()))
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the transcript and evaluation of a session",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		zl := newLogger()
		client, _ := newBackendClient(context.Background(), zl)

		session, err := client.GetInterview(args[0])
		if err != nil {
			zl.Fatal("fetching interview", zap.Error(err))
		}

		fmt.Printf("%s / %s (%s)\n\n", session.JobTitle, session.JobCompany, session.ParticipantName)
		for _, turn := range session.ConversationHistory {
			fmt.Printf("%s> %s\n", turn.Role, turn.Text)
		}

		if session.IsEvaluated {
			fmt.Printf("\nOverall %.1f | technical %.1f | communication %.1f | problem solving %.1f\n",
				session.OverallScore, session.TechnicalScore, session.CommunicationScore, session.ProblemSolvingScore)
			printList("Strengths", session.Strengths)
			printList("Areas for improvement", session.AreasForImprovement)
			printList("Recommendations", session.Recommendations)
			if session.DetailedFeedback != "" {
				fmt.Println("\n" + session.DetailedFeedback)
			}
		}
	},
}

var sessionsEvaluateCmd = &cobra.Command{
	Use:   "evaluate <session-id>",
	Short: "Request an evaluation of a saved session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		zl := newLogger()
		client, _ := newBackendClient(context.Background(), zl)

		if err := client.RequestEvaluation(args[0]); err != nil {
			zl.Fatal("requesting evaluation", zap.Error(err))
		}

		zl.Info("evaluation requested", zap.String("session_id", args[0]))

		wait, _ := cmd.Flags().GetBool("wait")
		if !wait {
			return
		}

		timeout, _ := cmd.Flags().GetDuration("timeout")
		session, err := waitForEvaluation(client, args[0], timeout)
		if err != nil {
			zl.Fatal("waiting for evaluation", zap.Error(err))
		}

		zl.Info("evaluation finished",
			zap.String("session_id", session.ID),
			zap.Float64("overall_score", session.OverallScore),
			zap.String("model", session.EvaluationModel),
		)
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		zl := newLogger()
		client, _ := newBackendClient(context.Background(), zl)

		if err := client.DeleteInterview(args[0]); err != nil {
			zl.Fatal("deleting interview", zap.Error(err))
		}

		zl.Info("session deleted", zap.String("session_id", args[0]))
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsEvaluateCmd, sessionsDeleteCmd)

	sessionsEvaluateCmd.Flags().Bool("wait", false, "poll until the evaluation completes")
	sessionsEvaluateCmd.Flags().Duration("timeout", 2*time.Minute, "how long to wait for the evaluation")
}

// waitForEvaluation polls the session until the backend marks it evaluated.
func waitForEvaluation(client *jobboard.Client, id string, timeout time.Duration) (*jobboard.InterviewSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		session, err := client.GetInterview(id)
		if err != nil {
			return nil, err
		}
		if session.IsEvaluated {
			return session, nil
		}

		if err := util.WaitFor(ctx, evaluationPollInterval); err != nil {
			return nil, fmt.Errorf("evaluation did not finish in %s: %w", timeout, err)
		}
	}
}
