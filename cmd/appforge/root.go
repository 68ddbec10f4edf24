package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const defaultServerURL = "http://127.0.0.1:8090"

func newRootCommand() *cobra.Command {
	var serverFlag string

	client := &client{}

	rootCmd := &cobra.Command{
		Use:           "appforge",
		Short:         "Command line client for a running appforged instance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			base := strings.TrimSpace(serverFlag)
			if base == "" {
				base = strings.TrimSpace(os.Getenv("APPFORGE_SERVER"))
			}
			if base == "" {
				base = defaultServerURL
			}
			client.baseURL = strings.TrimRight(base, "/")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "Base URL of the appforged API")

	rootCmd.AddCommand(newHealthCommand(client))
	rootCmd.AddCommand(newUploadCommand(client))
	rootCmd.AddCommand(newConvertCommand(client))
	rootCmd.AddCommand(newStatusCommand(client))
	rootCmd.AddCommand(newJobsCommand(client))
	rootCmd.AddCommand(newDownloadCommand(client))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
