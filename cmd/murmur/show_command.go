package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"murmur/internal/api"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var resultsFlag bool
	var jsonFlag bool
	var waitFlag bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show the status of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])

			job, err := client.GetJob(cmd.Context(), id, resultsFlag)
			if err != nil {
				return err
			}
			for waitFlag && job.Status != "completed" && job.Status != "error" {
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-time.After(time.Second):
				}
				job, err = client.GetJob(cmd.Context(), id, resultsFlag)
				if err != nil {
					return err
				}
			}

			if jsonFlag {
				return writeJSON(cmd, job)
			}
			renderJob(cmd, job)
			return nil
		},
	}

	cmd.Flags().BoolVar(&resultsFlag, "results", false, "Include stage result payloads")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the job as JSON")
	cmd.Flags().BoolVar(&waitFlag, "wait", false, "Poll until the job finishes")
	return cmd
}

func renderJob(cmd *cobra.Command, job api.Job) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job:      %s\n", job.ID)
	fmt.Fprintf(out, "Audio:    %s\n", job.AudioPath)
	fmt.Fprintf(out, "Status:   %s\n", describeStatus(job))
	if job.ElapsedSeconds > 0 {
		fmt.Fprintf(out, "Elapsed:  %s\n", (time.Duration(job.ElapsedSeconds * float64(time.Second))).Round(time.Second))
	}
	if len(job.Metadata) > 0 {
		fmt.Fprintln(out, "Metadata:")
		for key, value := range job.Metadata {
			fmt.Fprintf(out, "  %s = %s\n", key, value)
		}
	}
	if len(job.Outputs) > 0 {
		fmt.Fprintln(out, "Outputs:")
		for _, output := range job.Outputs {
			fmt.Fprintf(out, "  %-14s %s\n", output.Stage, output.Path)
		}
	}
	if job.Error != nil {
		fmt.Fprintf(out, "Error:    [%s] %s\n", job.Error.Stage, job.Error.Message)
	}
	for stage, raw := range job.Results {
		fmt.Fprintf(out, "Result (%s):\n%s\n", stage, raw)
	}
}

func describeStatus(job api.Job) string {
	if job.Status == "running" && job.CurrentStage != "" {
		return fmt.Sprintf("%s (%s)", job.Status, job.CurrentStage)
	}
	return job.Status
}
