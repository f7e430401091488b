package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "mpfswitchd",
	Short:         "Standalone switch controller daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `mpfswitchd runs the switch controller outside of a full machine
framework: it loads a switch roster from YAML, drives transitions against
a simulated hardware platform, and serves Prometheus metrics.`,
}

// Execute runs the root command with signal-driven cancellation.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "mpfswitchd.yaml", "path to the switch roster YAML file")
}
