package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fr0stylo/shipbot/pkg/shipbot"
)

const reportTracerName = "shipbot/report"

// Span is the application-level tracing span contract.
type Span interface {
	End()
	RecordError(error)
	RecordOutcome(shipbot.Outcome)
}

type otelSpan struct {
	inner trace.Span
}

// StartReportSpan starts the span covering one deployment report.
func StartReportSpan(ctx context.Context, in shipbot.Input) (context.Context, Span) {
	mode := shipbot.ModeCreate
	if in.DeploymentID != "" {
		mode = shipbot.ModeUpdate
	}
	attrs := []attribute.KeyValue{
		attribute.String("shipbot.mode", string(mode)),
	}
	if in.DeploymentID != "" {
		attrs = append(attrs, attribute.String("shipbot.deployment_id", in.DeploymentID))
	}
	if in.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment.name", in.Environment))
	}
	if in.Version != "" {
		attrs = append(attrs, attribute.String("shipbot.version", in.Version))
	}

	ctx, span := otel.Tracer(reportTracerName).Start(ctx, "shipbot.report."+string(mode),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, otelSpan{inner: span}
}

func (s otelSpan) End() {
	if s.inner == nil {
		return
	}
	s.inner.End()
}

func (s otelSpan) RecordError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.RecordError(err)
	s.inner.SetStatus(codes.Error, err.Error())
}

func (s otelSpan) RecordOutcome(outcome shipbot.Outcome) {
	if s.inner == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("shipbot.outcome", string(outcome.Kind))}
	if outcome.StatusCode > 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", outcome.StatusCode))
	}
	if outcome.DeploymentID != "" {
		attrs = append(attrs, attribute.String("shipbot.deployment_id", outcome.DeploymentID))
	}
	s.inner.SetAttributes(attrs...)
	if !outcome.Success() {
		s.inner.SetStatus(codes.Error, outcome.Reason)
	}
}
