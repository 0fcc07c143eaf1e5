package shipbot

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
)

// ResponseBody is a response parsed as JSON when possible, otherwise kept as text.
type ResponseBody struct {
	raw        []byte
	value      any
	structured bool
}

// ParseBody decodes raw as JSON, falling back to opaque text.
func ParseBody(raw []byte) ResponseBody {
	body := ResponseBody{raw: raw}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return body
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return body
	}
	if decoder.More() {
		return body
	}
	body.value = value
	body.structured = true
	return body
}

func (b ResponseBody) Structured() bool {
	return b.structured
}

// Value returns the decoded JSON value, or nil for text bodies.
func (b ResponseBody) Value() any {
	return b.value
}

func (b ResponseBody) Text() string {
	return string(b.raw)
}

// ID returns the top-level "id" of a JSON object body.
func (b ResponseBody) ID() (string, bool) {
	object, ok := b.value.(map[string]any)
	if !ok {
		return "", false
	}
	switch id := object["id"].(type) {
	case string:
		id = strings.TrimSpace(id)
		return id, id != ""
	case json.Number:
		return id.String(), true
	default:
		return "", false
	}
}

func (b ResponseBody) LogValue() slog.Value {
	if b.structured {
		return slog.AnyValue(b.value)
	}
	return slog.StringValue(strings.TrimSpace(string(b.raw)))
}
