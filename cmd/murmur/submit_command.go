package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var metaFlags []string
	var localeFlag string
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "submit <audio-file>",
		Short: "Submit an audio clip for transcription and scoring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}

			audioPath, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve audio path: %w", err)
			}

			metadata, err := parseMetadata(metaFlags)
			if err != nil {
				return err
			}
			if locale := strings.TrimSpace(localeFlag); locale != "" {
				if metadata == nil {
					metadata = make(map[string]string)
				}
				metadata["locale"] = locale
			}

			job, err := client.Submit(cmd.Context(), audioPath, metadata)
			if err != nil {
				return err
			}

			if jsonFlag {
				return writeJSON(cmd, job)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s\n", job.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Poll it with: murmur show %s\n", job.ID)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&metaFlags, "meta", nil, "Metadata entry as key=value (repeatable)")
	cmd.Flags().StringVar(&localeFlag, "locale", "", "Language hint for transcription")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the created job as JSON")
	return cmd
}

func parseMetadata(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid metadata entry %q (want key=value)", entry)
		}
		metadata[key] = value
	}
	return metadata, nil
}
