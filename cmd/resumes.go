package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobdeck/jobdeck/internal/store"
)

var resumesCmd = &cobra.Command{
	Use:   "resumes",
	Short: "Manage uploaded resumes",
}

var resumesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded resumes",
	Run: func(_ *cobra.Command, _ []string) {
		zl := newLogger()
		resumes := newResumeStore(zl)
		defer resumes.Close()

		for _, resume := range resumes.Resumes().Items {
			fmt.Printf("%-12s %-10s %8d bytes  %s\n", resume.ID, resume.Status, resume.FileSize, resume.OriginalName)
		}

		zl.Info("resumes listed", zap.Int("count", resumes.Resumes().Len()))
	},
}

var resumesUploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a resume file (pdf, doc or docx, 5MB max)",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		zl := newLogger()
		resumes := newResumeStore(zl)
		defer resumes.Close()

		if err := resumes.Upload(args[0]); err != nil {
			zl.Fatal("uploading resume", zap.Error(err), zap.String("detail", resumes.Err()))
		}

		zl.Info("resume uploaded", zap.String("path", args[0]))
	},
}

var resumesDeleteCmd = &cobra.Command{
	Use:   "delete <resume-id>",
	Short: "Delete an uploaded resume",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		zl := newLogger()
		resumes := newResumeStore(zl)
		defer resumes.Close()

		if err := resumes.Delete(args[0]); err != nil {
			zl.Fatal("deleting resume", zap.Error(err))
		}

		zl.Info("resume deleted", zap.String("resume_id", args[0]))
	},
}

var resumesDownloadCmd = &cobra.Command{
	Use:   "download <resume-id>",
	Short: "Download the original resume file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		zl := newLogger()
		resumes := newResumeStore(zl)
		defer resumes.Close()

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			resume := resumes.Resumes().FindByID(args[0])
			if resume != nil && resume.OriginalName != "" {
				output = resume.OriginalName
			} else {
				output = args[0]
			}
		}

		file, err := os.Create(output)
		if err != nil {
			zl.Fatal("creating output file", zap.Error(err))
		}
		defer file.Close()

		if err := resumes.Download(args[0], file); err != nil {
			zl.Fatal("downloading resume", zap.Error(err))
		}

		zl.Info("resume downloaded", zap.String("resume_id", args[0]), zap.String("output", output))
	},
}

func init() {
	rootCmd.AddCommand(resumesCmd)
	resumesCmd.AddCommand(resumesListCmd, resumesUploadCmd, resumesDeleteCmd, resumesDownloadCmd)

	resumesDownloadCmd.Flags().StringP("output", "o", "", "output path; defaults to the original file name")
}

func newResumeStore(zl *zap.Logger) *store.ResumeStore {
	client, _ := newBackendClient(context.Background(), zl)

	resumes := store.NewResumeStore(client, zl)
	if err := resumes.Fetch(); err != nil {
		zl.Fatal("loading resumes", zap.Error(err))
	}

	return resumes
}
