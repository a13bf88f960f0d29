package traces

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type validationError struct {
	msg string
}

func (e validationError) Error() string {
	return e.msg
}

func (e validationError) ErrorKind() string {
	return "validation"
}

func TestContainSuccess(t *testing.T) {
	fn := Contain("echo", func(ctx context.Context, args []any) (any, error) {
		return args[0], nil
	}, nil, nil)
	res, err := fn(context.Background(), []any{"hello"})
	if err != nil {
		t.Fatal(err)
	}
	if res != "hello" {
		t.Errorf("res = %v", res)
	}
}

func TestContainFailure(t *testing.T) {
	log := &RunLog{}
	fn := Contain("search", func(ctx context.Context, args []any) (any, error) {
		return nil, errors.New("backend down")
	}, nil, log)
	res, err := fn(context.Background(), nil)
	if err != nil {
		t.Fatalf("contained calls never error: %v", err)
	}
	if res != "ERROR: backend down" {
		t.Errorf("res = %v", res)
	}
	lines := log.Lines()
	if len(lines) != 1 || lines[0] != "[search] ERROR: backend down" {
		t.Errorf("log = %v", lines)
	}
}

func TestContainPanic(t *testing.T) {
	fn := Contain("boom", func(ctx context.Context, args []any) (any, error) {
		panic("blew up")
	}, nil, nil)
	res, err := fn(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	s, ok := res.(string)
	if !ok || !strings.HasPrefix(s, ErrorPrefix) {
		t.Errorf("res = %v", res)
	}
}

func TestContainResultSink(t *testing.T) {
	var results []Result
	tracer := &Tracer{
		ResultSink: func(r Result) {
			results = append(results, r)
		},
	}
	ok := Contain("a", func(ctx context.Context, args []any) (any, error) {
		return map[string]any{"n": 1}, nil
	}, tracer, nil)
	bad := Contain("b", func(ctx context.Context, args []any) (any, error) {
		return nil, validationError{msg: "query is required"}
	}, tracer, nil)

	ok(context.Background(), nil)
	bad(context.Background(), nil)

	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if !results[0].Success || results[0].Value != `{"n":1}` {
		t.Errorf("first = %+v", results[0])
	}
	if results[1].Success || results[1].Attrs["error_kind"] != "validation" {
		t.Errorf("second = %+v", results[1])
	}
}

func TestTruncate(t *testing.T) {
	var got Result
	fn := Contain("big", func(ctx context.Context, args []any) (any, error) {
		return strings.Repeat("x", 100), nil
	}, &Tracer{TruncateLen: 5, ResultSink: func(r Result) { got = r }}, nil)
	res, _ := fn(context.Background(), nil)
	// the plan sees the full result, only the trace is truncated
	if len(res.(string)) != 100 {
		t.Errorf("res len = %d", len(res.(string)))
	}
	if got.Value != "xxxxx..." {
		t.Errorf("recorded = %q", got.Value)
	}
	if Truncate("héllo", 2) != "hé..." {
		t.Errorf("rune truncation wrong: %q", Truncate("héllo", 2))
	}
}

func TestRunLogReset(t *testing.T) {
	log := &RunLog{}
	log.Append("one")
	log.Append("two")
	if len(log.Lines()) != 2 {
		t.Fatal("append failed")
	}
	log.Reset()
	if len(log.Lines()) != 0 {
		t.Error("reset failed")
	}
	// returned slice is a copy
	log.Append("three")
	lines := log.Lines()
	lines[0] = "mutated"
	if log.Lines()[0] != "three" {
		t.Error("Lines should copy")
	}
}

func TestErrorMessageFlow(t *testing.T) {
	// a plan observes the message, not a structured error
	fn := Contain("tool", func(ctx context.Context, args []any) (any, error) {
		return nil, fmt.Errorf("bad argument %d", 7)
	}, nil, nil)
	res, _ := fn(context.Background(), nil)
	if res != "ERROR: bad argument 7" {
		t.Errorf("res = %v", res)
	}
}
