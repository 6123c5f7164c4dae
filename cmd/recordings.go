package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/habedi/voxbridge/pkg/clierr"
	"github.com/habedi/voxbridge/pkg/operations"
	"github.com/habedi/voxbridge/pkg/validation"
	"github.com/spf13/cobra"
)

func recordingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "Manage the recordings kept on this machine",
	}
	cmd.AddCommand(recordingsListCmd(c), recordingsCleanCmd(c))
	return cmd
}

func recordingsListCmd(c *cli) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved recordings with their length",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateWorkerCount(workers); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			files, err := operations.FindRecordings(cfg.RecordingsDir)
			if err != nil {
				return clierr.New(clierr.Internal, "Failed to list recordings.", err)
			}
			if len(files) == 0 {
				cmd.Println("No recordings found in", cfg.RecordingsDir)
				return nil
			}

			var infos []operations.RecordingInfo
			for ri := range operations.InspectRecordings(cmd.Context(), files, workers) {
				infos = append(infos, ri)
			}
			sort.Slice(infos, func(i, j int) bool { return infos[i].ModTime.Before(infos[j].ModTime) })

			var total int64
			table := newTable(cmd.OutOrStdout(), []string{"File", "Length", "Size", "Recorded"})
			for _, ri := range infos {
				length := ri.Duration.Round(time.Second).String()
				if ri.Err != nil {
					length = "unreadable"
				}
				total += ri.Size
				table.Append([]string{filepath.Base(ri.Path), length, formatBytes(ri.Size), ri.ModTime.Local().Format("2006-01-02 15:04")})
			}
			table.Render()
			cmd.Printf("%d recordings, %s\n", len(infos), formatBytes(total))
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of files inspected concurrently [1-20]")
	return cmd
}

func recordingsCleanCmd(c *cli) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete old recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return clierr.New(clierr.Validation, "--older-than cannot be negative", nil)
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			removed, freed, err := operations.CleanRecordings(cfg.RecordingsDir, time.Now().Add(-olderThan))
			if err != nil {
				return clierr.New(clierr.Internal, "Failed to clean recordings.", err)
			}
			cmd.Printf("Removed %d recordings, freed %s.\n", removed, formatBytes(freed))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Only delete recordings older than this")
	return cmd
}

// formatBytes renders n with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
