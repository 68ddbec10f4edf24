package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"appforge/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the appforged configuration file",
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an annotated sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := path
			if dest == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				dest = defaultPath
			}
			if err := config.WriteSample(dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", dest)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Destination path (defaults to ~/.config/appforge/config.toml)")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load("")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "config file: %s\n", path)
			} else {
				fmt.Fprintf(out, "config file: %s (not found, defaults in effect)\n", path)
			}
			fmt.Fprintf(out, "bind:           %s\n", cfg.Server.Bind)
			fmt.Fprintf(out, "max upload:     %d MB\n", cfg.Server.MaxUploadMB)
			fmt.Fprintf(out, "allowed origins:%v\n", cfg.Server.AllowedOrigins)
			fmt.Fprintf(out, "data dir:       %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "log dir:        %s\n", cfg.Paths.LogDir)
			return nil
		},
	}
}
