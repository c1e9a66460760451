package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"murmur/internal/api"
	"murmur/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the job queue",
	}
	cmd.AddCommand(newQueueListCommand(ctx))
	cmd.AddCommand(newQueueClearCommand(ctx))
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs in the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			statuses := make([]queue.Status, 0, len(statusFlags))
			for _, raw := range statusFlags {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}

			jobs, err := client.ListJobs(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, jobs)
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
				return nil
			}
			renderQueueTable(cmd, jobs)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&statusFlags, "status", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit jobs as JSON")
	return cmd
}

func renderQueueTable(cmd *cobra.Command, jobs []api.Job) {
	headers := []string{"ID", "Status", "Stage", "Audio", "Created"}
	alignments := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		stage := job.CurrentStage
		if job.Error != nil {
			stage = job.Error.Stage
		}
		rows = append(rows, []string{
			shortID(job.ID),
			job.Status,
			stage,
			filepath.Base(job.AudioPath),
			job.CreatedAt,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, alignments))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove completed and failed jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			removed, err := client.ClearFinished(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d finished job(s).\n", removed)
			return nil
		},
	}
}
