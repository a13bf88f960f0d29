package envs

import (
	"errors"
	"strings"
	"testing"
)

// wordCounter counts whitespace-separated words, making budgets easy to
// reason about in tests.
func wordCounter(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func TestChunkRespectsBudget(t *testing.T) {
	blocks := []any{
		"one two three", // 3
		"four five",     // 2
		"six",           // 1
		"seven eight",   // 2
	}
	got := callNative(t, chunkPrimitive(wordCounter), blocks, int64(5)).([]any)
	if len(got) != 2 {
		t.Fatalf("chunks = %v", got)
	}
	first := got[0].([]any)
	if len(first) != 2 || first[0] != "one two three" || first[1] != "four five" {
		t.Errorf("first = %v", first)
	}
	second := got[1].([]any)
	if len(second) != 2 {
		t.Errorf("second = %v", second)
	}
}

func TestChunkNeverSplitsBlock(t *testing.T) {
	blocks := []any{
		"a b c d e f g h", // alone over the budget of 3
		"x y",
	}
	got := callNative(t, chunkPrimitive(wordCounter), blocks, int64(3)).([]any)
	if len(got) != 2 {
		t.Fatalf("chunks = %v", got)
	}
	oversized := got[0].([]any)
	if len(oversized) != 1 || oversized[0] != blocks[0] {
		t.Errorf("oversized block split: %v", oversized)
	}
}

func TestChunkByKeyKeepsGroupsTogether(t *testing.T) {
	records := []any{
		map[string]any{"file": "a.go", "text": "one two"},
		map[string]any{"file": "b.go", "text": "three"},
		map[string]any{"file": "a.go", "text": "four five"},
	}
	got := callNative(t, chunkByKeyPrimitive(wordCounter), records, "file", int64(100)).([]any)
	// grouping reorders records so shared keys are adjacent
	first := got[0].([]any)
	if first[0].(map[string]any)["file"] != "a.go" || first[1].(map[string]any)["file"] != "a.go" {
		t.Errorf("group split: %v", first)
	}
}

func TestChunkByKeyOversizedGroup(t *testing.T) {
	// one key's records alone exceed the budget; they must land whole in
	// exactly one chunk
	records := []any{
		map[string]any{"k": "big", "text": "a b c d e"},
		map[string]any{"k": "big", "text": "f g h i j"},
		map[string]any{"k": "small", "text": "x"},
	}
	got := callNative(t, chunkByKeyPrimitive(wordCounter), records, "k", int64(4)).([]any)

	var bigChunks int
	for _, chunk := range got {
		n := 0
		for _, record := range chunk.([]any) {
			if record.(map[string]any)["k"] == "big" {
				n++
			}
		}
		if n > 0 {
			bigChunks++
			if n != 2 {
				t.Errorf("big group split across chunks: %v", got)
			}
		}
	}
	if bigChunks != 1 {
		t.Errorf("big group in %d chunks", bigChunks)
	}
}

func TestCountTokensFallback(t *testing.T) {
	// a failing counter degrades to a size estimate instead of breaking
	failing := func(string) (int, error) {
		return 0, errors.New("no vocabulary")
	}
	if got := countTokens(failing, "12345678"); got != 2 {
		t.Errorf("fallback = %d", got)
	}
	if got := countTokens(nil, "12345678"); got != 2 {
		t.Errorf("nil counter = %d", got)
	}
}
