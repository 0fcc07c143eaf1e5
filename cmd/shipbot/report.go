package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/spf13/cobra"

	"github.com/fr0stylo/shipbot/internal/config"
	"github.com/fr0stylo/shipbot/internal/observability"
	"github.com/fr0stylo/shipbot/internal/workspace"
	"github.com/fr0stylo/shipbot/pkg/shipbot"
)

type reportOptions struct {
	envFile string
}

func runReport(cmd *cobra.Command, opts *reportOptions) error {
	if err := config.LoadEnvFile(opts.envFile, cmd.Flags().Changed("env-file")); err != nil {
		return err
	}
	cfg, err := config.LoadWithFlags(cmd.Flags())
	if err != nil {
		return err
	}

	log := observability.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.APIKey)
	slog.SetDefault(log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := observability.SetupTracing(ctx, log, observability.TracingConfig{
		Enabled:      cfg.Observability.Enabled,
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
		OTLPHeaders:  cfg.Observability.OTLPHeaders,
		ServiceName:  cfg.Observability.ServiceName,
		ServiceVer:   version,
	})
	if err != nil {
		log.Warn("Tracing disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Debug("Failed to flush traces", "error", err)
		}
	}()

	reporter := newReporter(cfg, workspace.Open(cfg.Workspace.Root), log)

	ctx, span := observability.StartReportSpan(ctx, cfg.Report)
	defer span.End()

	if cfg.DryRun {
		req, err := reporter.Builder.Build(cfg.Report)
		if err != nil {
			span.RecordError(err)
			return err
		}
		shipbot.LogRequest(log, req)
		log.Info("Dry run, request not sent", "method", req.Method, "url", req.URL)
		return nil
	}

	outcome, err := reporter.Report(ctx, cfg.Report)
	if outcome.Kind != "" {
		span.RecordOutcome(outcome)
	}
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func newReporter(cfg config.Config, files billy.Filesystem, log *slog.Logger) shipbot.Reporter {
	reporter := shipbot.Reporter{
		Builder: shipbot.Builder{
			Host:   cfg.APIHost,
			APIKey: cfg.APIKey,
			Policy: cfg.Policy,
			Files:  files,
		},
		Client: shipbot.Client{HTTPClient: http.DefaultClient, Log: log},
		Mode:   cfg.FailureMode,
		Log:    log,
	}
	if cfg.Workspace.OutputPath != "" {
		reporter.Output = workspace.NewOutputFile(cfg.Workspace.OutputPath)
	}
	if cfg.Events.File != "" {
		reporter.Events = shipbot.CDEventExporter{
			Source: cfg.Events.Source,
			Files:  files,
			Path:   cfg.Events.File,
		}
	}
	return reporter
}
