package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon:    running (pid %d)\n", status.PID)
			fmt.Fprintf(out, "Queue DB:  %s\n", status.QueueDBPath)
			fmt.Fprintf(out, "Lock file: %s\n", status.LockFilePath)
			if status.Pipeline.Running {
				fmt.Fprintln(out, "Pipeline:  running")
			} else {
				fmt.Fprintln(out, "Pipeline:  stopped")
			}
			if status.Pipeline.LastError != "" {
				fmt.Fprintf(out, "Last error: %s\n", status.Pipeline.LastError)
			}

			if len(status.Pipeline.QueueStats) > 0 {
				fmt.Fprintln(out, "Queue:")
				keys := make([]string, 0, len(status.Pipeline.QueueStats))
				for key := range status.Pipeline.QueueStats {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					fmt.Fprintf(out, "  %-10s %d\n", key, status.Pipeline.QueueStats[key])
				}
			}

			if len(status.Pipeline.StageHealth) > 0 {
				fmt.Fprintln(out, "Stages:")
				for _, health := range status.Pipeline.StageHealth {
					state := "ready"
					if !health.Ready {
						state = "not ready"
					}
					if health.Detail != "" {
						fmt.Fprintf(out, "  %-14s %s (%s)\n", health.Name, state, health.Detail)
					} else {
						fmt.Fprintf(out, "  %-14s %s\n", health.Name, state)
					}
				}
			}

			if len(status.Dependencies) > 0 {
				fmt.Fprintln(out, "Dependencies:")
				for _, dep := range status.Dependencies {
					mark := "ok"
					if !dep.Available {
						mark = "missing"
						if dep.Detail != "" {
							mark = "missing (" + dep.Detail + ")"
						}
					}
					fmt.Fprintf(out, "  %-14s %s\n", dep.Name, mark)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit status as JSON")
	return cmd
}
