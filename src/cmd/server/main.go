package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	serve := serveCmd(&configPath)

	cmd := &cobra.Command{
		Use:           "settlement-hub",
		Short:         "Inter-bank settlement service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve)
	cmd.AddCommand(migrateCmd(&configPath))

	return cmd
}

func serveCmd(configPath *string) *cobra.Command {
	var runMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and background workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, runMigrations)
		},
	}
	cmd.Flags().BoolVar(&runMigrations, "migrate", false, "apply database migrations before serving")

	return cmd
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return migrate(cmd.Context(), cfg)
		},
	}
}
