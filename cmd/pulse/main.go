// Package main provides the pulse binary entry point.
// Pulse polls a property-management portal and checks in with the
// operator about pending maintenance, inspections, cleanings and invoices.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/pulse/internal/model"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "pulse"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath  string
	envFile     string
	metricsAddr string
	logLevel    string
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Check-in notifications for property managers",
		Long: `Pulse watches your property portal and nudges you about open work.

It polls maintenance requests, inspections, cleanings and invoices, and
shows one check-in at a time: what is waiting, how you are progressing,
and whether anything is getting in the way.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", model.DefaultConfigPath(), "Config file path (YAML)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "Dotenv file with PULSE_* overrides")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		runCmd(&flags),
		watchCmd(&flags),
		statusCmd(&flags),
		historyCmd(&flags),
		pruneCmd(&flags),
		resetCmd(&flags),
		setupCmd(&flags),
		versionCmd(),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}
