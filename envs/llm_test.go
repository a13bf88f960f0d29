package envs

import (
	"context"
	"reflect"
	"testing"
)

func TestLLMCallPassthrough(t *testing.T) {
	caller := func(ctx context.Context, instruction string, data any, options map[string]any) (any, error) {
		if instruction != "summarize" || data != "some text" {
			t.Errorf("got %q, %v", instruction, data)
		}
		return "a summary", nil
	}
	fn := llmCallCapability(caller, nil)
	res, err := fn(context.Background(), []any{"summarize", "some text"})
	if err != nil {
		t.Fatal(err)
	}
	if res != "a summary" {
		t.Errorf("res = %v", res)
	}
}

func TestLLMCallStructuredParse(t *testing.T) {
	caller := func(ctx context.Context, instruction string, data any, options map[string]any) (any, error) {
		return "```json\n{\"score\": 5}\n```", nil
	}
	fn := llmCallCapability(caller, nil)
	res, err := fn(context.Background(), []any{
		"rate this", "text", map[string]any{"format": "json"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"score": float64(5)}
	if !reflect.DeepEqual(res, want) {
		t.Errorf("res = %v", res)
	}
}

func TestLLMCallStructuredFallback(t *testing.T) {
	raw := "I cannot produce JSON for that."
	caller := func(ctx context.Context, instruction string, data any, options map[string]any) (any, error) {
		return raw, nil
	}
	fn := llmCallCapability(caller, nil)
	res, err := fn(context.Background(), []any{
		"rate this", "text", map[string]any{"structured": true},
	})
	if err != nil {
		t.Fatal(err)
	}
	// exactly one parse attempt, then the raw text flows on
	if res != raw {
		t.Errorf("res = %v", res)
	}
}

func TestLLMCallNoStructuredOption(t *testing.T) {
	caller := func(ctx context.Context, instruction string, data any, options map[string]any) (any, error) {
		return `{"looks": "like json"}`, nil
	}
	fn := llmCallCapability(caller, nil)
	res, err := fn(context.Background(), []any{"instruction"})
	if err != nil {
		t.Fatal(err)
	}
	// without the option, text stays text
	if _, ok := res.(string); !ok {
		t.Errorf("res = %T", res)
	}
}
