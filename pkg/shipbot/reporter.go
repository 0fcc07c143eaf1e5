package shipbot

import (
	"context"
	"fmt"
	"log/slog"
)

// OutputWriter receives key/value pairs for the invoking pipeline step.
type OutputWriter interface {
	WriteOutput(key, value string) error
}

// EventExporter mirrors a successfully created deployment to another format.
type EventExporter interface {
	ExportDeployment(report DeploymentReport) error
}

// Reporter runs one build and submission and applies the failure policy.
type Reporter struct {
	Builder Builder
	Client  Client
	Output  OutputWriter
	Events  EventExporter
	Mode    FailureMode
	Log     *slog.Logger
}

// Report returns the outcome and, when the step must fail, an error.
// Validation errors are returned before any request is sent and ignore Mode.
func (r Reporter) Report(ctx context.Context, in Input) (Outcome, error) {
	log := r.logger()

	req, err := r.Builder.Build(in)
	if err != nil {
		return Outcome{}, err
	}
	LogRequest(log, req)

	outcome := r.Client.Submit(ctx, req)
	if outcome.Success() {
		outcome = r.publish(log, req, outcome)
	}

	if err := r.Mode.Resolve(outcome); err != nil {
		return outcome, err
	}
	if !outcome.Success() {
		log.Warn("Continuing despite failure", "failure_mode", string(FailureSoft), "outcome", string(outcome.Kind))
	}
	return outcome, nil
}

func (r Reporter) publish(log *slog.Logger, req Request, outcome Outcome) Outcome {
	if outcome.DeploymentID != "" {
		if r.Output == nil {
			log.Info("No step output configured", "deploymentId", outcome.DeploymentID)
		} else if err := r.Output.WriteOutput("deploymentId", outcome.DeploymentID); err != nil {
			outcome.Kind = OutcomeOutputError
			outcome.Reason = "❌ Could not record deployment id"
			outcome.Err = fmt.Errorf("%w: %w", ErrOutput, err)
			log.Error(outcome.Reason, "deployment_id", outcome.DeploymentID, "error", err)
			return outcome
		}
	}

	report, ok := req.Payload.(DeploymentReport)
	if ok && r.Events != nil {
		if err := r.Events.ExportDeployment(report); err != nil {
			log.Warn("CDEvent export failed", "error", err)
		}
	}
	return outcome
}

// LogRequest logs what is about to be sent. Headers carry the API key and stay at debug.
func LogRequest(log *slog.Logger, req Request) {
	switch req.Mode {
	case ModeUpdate:
		log.Info("Updating deployment", "deployment_id", req.DeploymentID)
	default:
		log.Info("Creating new deployment")
		if report, ok := req.Payload.(DeploymentReport); ok {
			if report.CommitSHA != "" {
				log.Info("Commit SHA", "commit_sha", report.CommitSHA)
			}
			if report.Branch != "" {
				log.Info("Branch", "branch", report.Branch)
			}
		}
	}
	log.Debug("Request URL", "url", req.URL)
	log.Debug("Request Method", "method", req.Method)
	log.Debug("Request Payload", "payload", string(req.Body))
	log.Debug("Request Headers", "headers", req.Header)
}

func (r Reporter) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}
