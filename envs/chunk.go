package envs

import (
	"fmt"

	"github.com/reusee/taiplan/planvm"
	"github.com/tiktoken-go/tokenizer"
)

type TokenCounter = func(text string) (int, error)

// NewBPETokenCounter counts with the o200k BPE vocabulary.
func NewBPETokenCounter() TokenCounter {
	enc, err := tokenizer.Get(tokenizer.O200kBase)
	if err != nil {
		return func(string) (int, error) {
			return 0, err
		}
	}
	return func(text string) (int, error) {
		return enc.Count(text)
	}
}

// countTokens falls back to a bytes/4 estimate when the counter fails, so
// chunking degrades instead of breaking.
func countTokens(count TokenCounter, text string) int {
	if count != nil {
		if n, err := count(text); err == nil {
			return n
		}
	}
	return len(text) / 4
}

// chunkPrimitive packs content blocks into chunks within a token budget. A
// block never spans two chunks; a single block over budget becomes its own
// oversized chunk.
func chunkPrimitive(count TokenCounter) planvm.NativeFunc {
	return planvm.NativeFunc{
		Name: "chunk",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("chunk takes (blocks, budget)")
			}
			blocks, ok := args[0].([]any)
			if !ok {
				return nil, fmt.Errorf("chunk: not a list: %T", args[0])
			}
			budget, ok := planvm.ToInt64(args[1])
			if !ok || budget <= 0 {
				return nil, fmt.Errorf("chunk: budget must be a positive number")
			}

			out := []any{}
			var current []any
			used := 0
			flush := func() {
				if len(current) > 0 {
					out = append(out, current)
					current = nil
					used = 0
				}
			}
			for _, block := range blocks {
				tokens := countTokens(count, planvm.ToString(block))
				if used > 0 && used+tokens > int(budget) {
					flush()
				}
				current = append(current, block)
				used += tokens
				if used >= int(budget) {
					flush()
				}
			}
			flush()
			return out, nil
		},
	}
}

// chunkByKeyPrimitive is the key-aware variant: records sharing a grouping
// key always land in the same chunk, even when that key's records alone
// exceed the budget.
func chunkByKeyPrimitive(count TokenCounter) planvm.NativeFunc {
	return planvm.NativeFunc{
		Name: "chunkByKey",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if len(args) != 3 {
				return nil, fmt.Errorf("chunkByKey takes (records, key, budget)")
			}
			records, ok := args[0].([]any)
			if !ok {
				return nil, fmt.Errorf("chunkByKey: not a list: %T", args[0])
			}
			field, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("chunkByKey: key must be a field name")
			}
			budget, ok := planvm.ToInt64(args[2])
			if !ok || budget <= 0 {
				return nil, fmt.Errorf("chunkByKey: budget must be a positive number")
			}

			// group records by key, preserving first-appearance order
			var order []string
			groups := make(map[string][]any)
			for _, record := range records {
				m, ok := record.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("chunkByKey: record is not an object: %T", record)
				}
				key := planvm.ToString(m[field])
				if _, ok := groups[key]; !ok {
					order = append(order, key)
				}
				groups[key] = append(groups[key], record)
			}

			out := []any{}
			var current []any
			used := 0
			flush := func() {
				if len(current) > 0 {
					out = append(out, current)
					current = nil
					used = 0
				}
			}
			for _, key := range order {
				group := groups[key]
				tokens := 0
				for _, record := range group {
					tokens += countTokens(count, planvm.ToString(record))
				}
				if used > 0 && used+tokens > int(budget) {
					flush()
				}
				// the whole group goes into one chunk, budget or not
				current = append(current, group...)
				used += tokens
				if used >= int(budget) {
					flush()
				}
			}
			flush()
			return out, nil
		},
	}
}
