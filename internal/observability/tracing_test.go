package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/fr0stylo/shipbot/pkg/shipbot"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestStartReportSpanRecordsOutcome(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartReportSpan(context.Background(), shipbot.Input{Version: "1.2.3", Environment: "prod"})
	span.RecordOutcome(shipbot.Outcome{Kind: shipbot.OutcomeSuccess, StatusCode: 201, DeploymentID: "dep-9"})
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "shipbot.report.create", ended[0].Name())
	attrs := attributeMap(ended[0].Attributes())
	assert.Equal(t, "create", attrs["shipbot.mode"])
	assert.Equal(t, "prod", attrs["deployment.environment.name"])
	assert.Equal(t, "SUCCESS", attrs["shipbot.outcome"])
	assert.Equal(t, "dep-9", attrs["shipbot.deployment_id"])
	assert.NotEqual(t, codes.Error, ended[0].Status().Code)
}

func TestStartReportSpanMarksFailures(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartReportSpan(context.Background(), shipbot.Input{DeploymentID: "42", Status: "FAILED"})
	span.RecordOutcome(shipbot.Outcome{Kind: shipbot.OutcomeServerError, StatusCode: 503, Reason: "❌ Shipbot server error occurred"})
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "shipbot.report.update", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "❌ Shipbot server error occurred", ended[0].Status().Description)
}

func TestSetupTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)), TracingConfig{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func attributeMap(kvs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}
