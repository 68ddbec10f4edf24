package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCommand(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the daemon is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			serverTime := time.UnixMilli(health.Time).UTC().Format(time.RFC3339)
			fmt.Fprintf(cmd.OutOrStdout(), "ok (server time %s)\n", serverTime)
			return nil
		},
	}
}

func newUploadCommand(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <archive>",
		Short: "Upload a ZIP archive and print its file id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.Upload(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%d bytes)\nfileId: %s\n", resp.Filename, resp.Size, resp.FileID)
			return nil
		},
	}
}

func newConvertCommand(c *client) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "convert <fileId>",
		Short: "Create a conversion job for an uploaded file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.Convert(cmd.Context(), args[0], target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "jobId: %s\n", resp.JobID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "apk", "Output format (apk or exe)")
	return cmd
}

func newStatusCommand(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "status <jobId>",
		Short: "Show one job's lifecycle state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := c.JobStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "job:     %s\n", snapshot.JobID)
			fmt.Fprintf(out, "status:  %s\n", snapshot.Status)
			fmt.Fprintf(out, "target:  %s\n", snapshot.Target)
			fmt.Fprintf(out, "created: %s\n", formatMillis(snapshot.CreatedAt))
			if snapshot.DoneAt != nil {
				fmt.Fprintf(out, "done:    %s\n", formatMillis(*snapshot.DoneAt))
			}
			if snapshot.Error != nil {
				fmt.Fprintf(out, "error:   %s\n", *snapshot.Error)
			}
			if snapshot.DownloadURL != nil {
				fmt.Fprintf(out, "download: %s\n", *snapshot.DownloadURL)
			}
			return nil
		},
	}
}

func newJobsCommand(c *client) *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List conversion jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listing, err := c.Jobs(cmd.Context(), statuses)
			if err != nil {
				return err
			}
			if len(listing.Jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no jobs")
				return nil
			}

			rows := make([][]string, 0, len(listing.Jobs))
			for _, job := range listing.Jobs {
				errMsg := ""
				if job.Error != nil {
					errMsg = *job.Error
				}
				rows = append(rows, []string{
					job.JobID,
					job.Status,
					job.Target,
					formatMillis(job.CreatedAt),
					errMsg,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"JOB", "STATUS", "TARGET", "CREATED", "ERROR"},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newDownloadCommand(c *client) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <jobId>",
		Short: "Download a finished job's artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := args[0]

			dest := strings.TrimSpace(output)
			if dest == "" {
				snapshot, err := c.JobStatus(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				dest = fmt.Sprintf("%s.%s", jobID, snapshot.Target)
			}

			if err := c.Download(cmd.Context(), jobID, dest); err != nil {
				return err
			}
			abs, err := filepath.Abs(dest)
			if err != nil {
				abs = dest
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", abs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path (defaults to <jobId>.<target>)")
	return cmd
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}
