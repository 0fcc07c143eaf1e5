package shipbot

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseBody(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		structured bool
		id         string
		hasID      bool
	}{
		{name: "object with id", raw: `{"id":"dep-9"}`, structured: true, id: "dep-9", hasID: true},
		{name: "numeric id", raw: `{"id":12345678901234}`, structured: true, id: "12345678901234", hasID: true},
		{name: "object without id", raw: `{"status":"ok"}`, structured: true},
		{name: "null id", raw: `{"id":null}`, structured: true},
		{name: "blank id", raw: `{"id":"  "}`, structured: true},
		{name: "array", raw: `[{"id":"dep-1"}]`, structured: true},
		{name: "plain text", raw: "Accepted", structured: false},
		{name: "html", raw: "<html>bad gateway</html>", structured: false},
		{name: "trailing garbage", raw: `{"id":"dep-9"} extra`, structured: false},
		{name: "empty", raw: "", structured: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := ParseBody([]byte(tt.raw))
			if body.Structured() != tt.structured {
				t.Fatalf("structured = %v, want %v", body.Structured(), tt.structured)
			}
			id, ok := body.ID()
			if ok != tt.hasID || id != tt.id {
				t.Fatalf("ID() = %q, %v; want %q, %v", id, ok, tt.id, tt.hasID)
			}
			if body.Text() != tt.raw {
				t.Fatalf("Text() = %q, want %q", body.Text(), tt.raw)
			}
		})
	}
}

func TestResponseBodyLogValue(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	log.Info("json", "body", ParseBody([]byte(`{"message":"bad key"}`)))
	log.Info("text", "body", ParseBody([]byte("  upstream timeout\n")))

	out := buf.String()
	if !strings.Contains(out, "message:bad key") {
		t.Fatalf("expected structured body in logs:\n%s", out)
	}
	if !strings.Contains(out, `body="upstream timeout"`) {
		t.Fatalf("expected trimmed text body in logs:\n%s", out)
	}
}
