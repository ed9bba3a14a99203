package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobdeck/jobdeck/internal/livecall"
)

const (
	commandEnd          = "/end"
	commandParticipants = "/participants"
	commandStatus       = "/status"
	commandReconnect    = "/reconnect"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a live AI mock interview in the terminal",
	Long: `Run a live AI mock interview in the terminal.

The session runs in text mode: the backend creates the interview room and
answers every message, while audio and video stay with the web client. Type
/end to hang up, /participants and /status to inspect the call.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().String("job", "", "job id the interview is about")
	interviewCmd.Flags().String("resume", "", "resume id used for interview context")
	interviewCmd.Flags().String("room", "", "room name; generated when empty")
	interviewCmd.Flags().String("name", "", "participant display name")
	interviewCmd.Flags().Bool("echo-latency", false, "report latency measurements to the backend")
}

func runInterview(cmd *cobra.Command) {
	ctx := context.Background()
	zl := newLogger()

	client, config := newBackendClient(ctx, zl)

	jobID, _ := cmd.Flags().GetString("job")
	resumeID, _ := cmd.Flags().GetString("resume")
	roomName, _ := cmd.Flags().GetString("room")
	name, _ := cmd.Flags().GetString("name")
	echoLatency, _ := cmd.Flags().GetBool("echo-latency")

	if config.Interview != nil {
		if name == "" {
			name = config.Interview.ParticipantName
		}
		echoLatency = echoLatency || config.Interview.EchoLatency
	}

	session := livecall.New(
		&livecall.Config{
			RoomName:        roomName,
			ParticipantName: name,
			JobID:           jobID,
			ResumeID:        resumeID,
			EchoLatency:     echoLatency,
		},
		&livecall.Deps{
			Backend:   client,
			Transport: livecall.NewHeadlessTransport(name),
			Video:     livecall.NopSink{},
			Audio:     livecall.NopSink{},
			Logger:    zl,
			Notify:    printMessage,
		},
	)

	if err := session.Start(ctx); err != nil {
		zl.Fatal("starting interview session", zap.Error(err))
	}

	zl.Info("interview started",
		zap.String("room", session.RoomName()),
		zap.String("job_id", jobID),
		zap.String("resume_id", resumeID),
	)

	input := promptui.Prompt{Label: "you"}

	for {
		text, err := input.Run()
		if err != nil {
			// Ctrl-C or Ctrl-D hang up gracefully.
			break
		}

		if done := handleInterviewInput(ctx, session, text); done {
			break
		}
	}

	session.End()
	session.Wait()

	zl.Info("interview ended", zap.String("room", session.RoomName()))
}

// handleInterviewInput dispatches one line of user input. It reports true
// when the session should end.
func handleInterviewInput(ctx context.Context, session *livecall.Session, text string) bool {
	switch strings.TrimSpace(text) {
	case "":
		return false
	case commandEnd:
		return true
	case commandParticipants:
		participants := session.Participants()
		if len(participants) == 0 {
			fmt.Println("nobody in the room")
			return false
		}
		for _, p := range participants {
			fmt.Println("  " + p)
		}
		return false
	case commandStatus:
		fmt.Printf("state=%s room=%s participants=%d audio=%t video=%t",
			session.State(), session.RoomName(), session.ParticipantCount(), session.HasAudio(), session.HasVideo())
		if latency, ok := session.LastLatencyMs(); ok {
			fmt.Printf(" latency=%.0fms", latency)
		}
		fmt.Println()
		return false
	case commandReconnect:
		if err := session.Reconnect(ctx); err != nil {
			fmt.Println("reconnect failed: " + err.Error())
		}
		return false
	default:
		if err := session.Send(text); errors.Is(err, livecall.ErrNotConnected) {
			// The session already printed a system line; offer the retry hint.
			fmt.Println("try " + commandReconnect)
		}
		return false
	}
}

func printMessage(msg livecall.ChatMessage) {
	switch msg.Role {
	case livecall.RoleUser:
		// The user just typed it; no echo.
	case livecall.RoleAI:
		fmt.Println("interviewer> " + msg.Text)
	default:
		fmt.Println("* " + msg.Text)
	}
}
