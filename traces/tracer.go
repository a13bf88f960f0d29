package traces

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const DefaultTruncateLen = 500

// Result is the standalone record emitted for every capability call,
// independent of spans, so a sink can collect outcomes without an
// observability backend.
type Result struct {
	Name    string
	Value   string
	Success bool
	Elapsed time.Duration
	Attrs   map[string]string
}

// Tracer carries the observability hooks for capability calls. Every field
// is optional; the zero value records nothing but containment semantics stay
// the same.
type Tracer struct {
	Tracer      trace.Tracer
	Logger      *slog.Logger
	TruncateLen int
	ResultSink  func(Result)
}

func (t *Tracer) truncateLen() int {
	if t == nil || t.TruncateLen <= 0 {
		return DefaultTruncateLen
	}
	return t.TruncateLen
}

func (t *Tracer) truncate(s string) string {
	return Truncate(s, t.truncateLen())
}

// Truncate cuts s to at most max runes, marking the cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func renderArgs(args []any) string {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(data)
}
