package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

const redacted = "[REDACTED]"

// sensitiveKeys are attribute keys whose values are always masked above debug.
var sensitiveKeys = map[string]struct{}{
	"api_key":   {},
	"x-api-key": {},
}

// ParseLevel maps DEBUG, INFO, WARNING (or WARN) and ERROR onto slog levels. Anything else is INFO.
func ParseLevel(value string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the text logger used by the CLI. Secrets are masked in
// every record above debug level.
func NewLogger(w io.Writer, level string, secrets ...string) *slog.Logger {
	return slog.New(WrapSlogHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}), secrets...))
}

type redactingHandler struct {
	next    slog.Handler
	secrets []string
}

// WrapSlogHandler adds trace context to records and masks secrets outside debug output.
func WrapSlogHandler(next slog.Handler, secrets ...string) slog.Handler {
	if next == nil {
		next = slog.NewTextHandler(io.Discard, nil)
	}
	kept := make([]string, 0, len(secrets))
	for _, secret := range secrets {
		if strings.TrimSpace(secret) != "" {
			kept = append(kept, secret)
		}
	}
	return &redactingHandler{next: next, secrets: kept}
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level > slog.LevelDebug {
		record = h.redactRecord(record)
	}

	span := trace.SpanFromContext(ctx)
	if span != nil {
		sc := span.SpanContext()
		if sc.IsValid() {
			record.AddAttrs(
				slog.String("trace_id", sc.TraceID().String()),
				slog.String("span_id", sc.SpanID().String()),
			)
		}
	}

	return h.next.Handle(ctx, record)
}

// WithAttrs masks eagerly since logger-bound attrs appear at every level.
func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		masked = append(masked, h.redactAttr(attr))
	}
	return &redactingHandler{next: h.next.WithAttrs(masked), secrets: h.secrets}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{next: h.next.WithGroup(name), secrets: h.secrets}
}

func (h *redactingHandler) redactRecord(record slog.Record) slog.Record {
	out := slog.NewRecord(record.Time, record.Level, h.redactString(record.Message), record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(h.redactAttr(attr))
		return true
	})
	return out
}

func (h *redactingHandler) redactAttr(attr slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(attr.Key)]; ok {
		return slog.String(attr.Key, redacted)
	}
	return slog.Attr{Key: attr.Key, Value: h.redactValue(attr.Value)}
}

func (h *redactingHandler) redactValue(value slog.Value) slog.Value {
	value = value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(h.redactString(value.String()))
	case slog.KindGroup:
		attrs := value.Group()
		masked := make([]slog.Attr, 0, len(attrs))
		for _, attr := range attrs {
			masked = append(masked, h.redactAttr(attr))
		}
		return slog.GroupValue(masked...)
	case slog.KindAny:
		if len(h.secrets) == 0 {
			return value
		}
		rendered := fmt.Sprintf("%+v", value.Any())
		if masked := h.redactString(rendered); masked != rendered {
			return slog.StringValue(masked)
		}
		return value
	default:
		return value
	}
}

func (h *redactingHandler) redactString(value string) string {
	for _, secret := range h.secrets {
		value = strings.ReplaceAll(value, secret, redacted)
	}
	return value
}
