package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev" // set during build

func newRootCmd() *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "shipbot",
		Short: "Report a deployment to Shipbot",
		Long: `Shipbot records a deployment from a CI pipeline step.

Without SHIPBOT_DEPLOYMENT_ID a new deployment is created from SHIPBOT_VERSION,
SHIPBOT_ENVIRONMENT and the optional SHIPBOT_* fields. With it, the existing
deployment's status is updated to SHIPBOT_STATUS (SUCCEEDED or FAILED).`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.String("api-host", "", "Shipbot API base URL (or SHIPBOT_API_HOST)")
	flags.String("failure-mode", "", "HARD fails the step on API errors, SOFT only logs them (or SHIPBOT_FAILURE_MODE)")
	flags.String("log-level", "", "DEBUG, INFO, WARNING or ERROR (or SHIPBOT_LOG_LEVEL)")
	flags.Bool("dry-run", false, "Build and log the request without sending it")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
