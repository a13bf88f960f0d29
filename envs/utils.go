package envs

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/reusee/taiplan/planvm"
)

func rangePrimitive() planvm.NativeFunc {
	return planvm.NativeFunc{
		Name: "range",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			var start, end int64
			switch len(args) {
			case 1:
				n, ok := planvm.ToInt64(args[0])
				if !ok {
					return nil, fmt.Errorf("range: not a number: %T", args[0])
				}
				end = n
			case 2:
				a, okA := planvm.ToInt64(args[0])
				b, okB := planvm.ToInt64(args[1])
				if !okA || !okB {
					return nil, fmt.Errorf("range: not numbers: %T, %T", args[0], args[1])
				}
				start, end = a, b
			default:
				return nil, fmt.Errorf("range takes (n) or (start, end)")
			}
			out := make([]any, 0, max(end-start, 0))
			for i := start; i < end; i++ {
				out = append(out, i)
			}
			return out, nil
		},
	}
}

func flattenPrimitive() planvm.NativeFunc {
	return planvm.NativeFunc{
		Name: "flatten",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("flatten takes one list")
			}
			list, ok := args[0].([]any)
			if !ok {
				return nil, fmt.Errorf("flatten: not a list: %T", args[0])
			}
			var out []any
			for _, elem := range list {
				if inner, ok := elem.([]any); ok {
					out = append(out, inner...)
				} else {
					out = append(out, elem)
				}
			}
			if out == nil {
				out = []any{}
			}
			return out, nil
		},
	}
}

// canonical returns a serialization stable enough to use as an equality key.
func canonical(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func uniquePrimitive() planvm.NativeFunc {
	return planvm.NativeFunc{
		Name: "unique",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("unique takes one list")
			}
			list, ok := args[0].([]any)
			if !ok {
				return nil, fmt.Errorf("unique: not a list: %T", args[0])
			}
			seen := make(map[string]bool)
			out := []any{}
			for _, elem := range list {
				key := canonical(elem)
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, elem)
			}
			return out, nil
		},
	}
}

func batchPrimitive() planvm.NativeFunc {
	return planvm.NativeFunc{
		Name: "batch",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("batch takes (list, size)")
			}
			list, ok := args[0].([]any)
			if !ok {
				return nil, fmt.Errorf("batch: not a list: %T", args[0])
			}
			size, ok := planvm.ToInt64(args[1])
			if !ok || size <= 0 {
				return nil, fmt.Errorf("batch: size must be a positive number")
			}
			out := []any{}
			for start := 0; start < len(list); start += int(size) {
				end := min(start+int(size), len(list))
				chunk := make([]any, end-start)
				copy(chunk, list[start:end])
				out = append(out, chunk)
			}
			return out, nil
		},
	}
}

// groupByPrimitive groups by a field name or by a key callback.
func groupByPrimitive() planvm.NativeFunc {
	return planvm.NativeFunc{
		Name: "groupBy",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("groupBy takes (list, key)")
			}
			list, ok := args[0].([]any)
			if !ok {
				return nil, fmt.Errorf("groupBy: not a list: %T", args[0])
			}
			groups := make(map[string]any)
			for _, elem := range list {
				var key string
				switch k := args[1].(type) {
				case string:
					m, ok := elem.(map[string]any)
					if !ok {
						return nil, fmt.Errorf("groupBy: element is not an object: %T", elem)
					}
					key = planvm.ToString(m[k])
				default:
					res, err := planvm.CallCallable(vm.Ctx, args[1], []any{elem})
					if err != nil {
						return nil, err
					}
					key = planvm.ToString(res)
				}
				existing, _ := groups[key].([]any)
				groups[key] = append(existing, elem)
			}
			return groups, nil
		},
	}
}

// extractJSON pulls structured data out of model output: tolerates code
// fences and surrounding prose, returns null instead of failing.
func extractJSONPrimitive() planvm.NativeFunc {
	return planvm.NativeFunc{
		Name: "extractJSON",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("extractJSON takes one value")
			}
			text, ok := args[0].(string)
			if !ok {
				// already structured
				return args[0], nil
			}
			return ExtractJSON(text), nil
		},
	}
}

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON is a best-effort parse of text that should contain JSON
// somewhere. Returns nil when nothing parses.
func ExtractJSON(text string) any {
	var doc any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &doc); err == nil {
		return doc
	}
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &doc); err == nil {
			return doc
		}
	}
	if candidate := balancedSlice(text); candidate != "" {
		if err := json.Unmarshal([]byte(candidate), &doc); err == nil {
			return doc
		}
	}
	return nil
}

// balancedSlice finds the first balanced {...} or [...] region, skipping
// over string literals.
func balancedSlice(text string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' || text[i] == '[' {
			start = i
			open = text[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

var pathPattern = regexp.MustCompile(`[A-Za-z0-9_\-./]+\.[A-Za-z][A-Za-z0-9_]*(?::\d+(?::\d+)?)?`)

// extractPaths deduplicates path-like identifiers out of tool output text,
// stripping trailing :line(:column) suffixes, preserving first-appearance
// order.
func extractPathsPrimitive() planvm.NativeFunc {
	return planvm.NativeFunc{
		Name: "extractPaths",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("extractPaths takes one string")
			}
			text := planvm.ToString(args[0])
			return ExtractPaths(text), nil
		},
	}
}

func ExtractPaths(text string) []any {
	seen := make(map[string]bool)
	out := []any{}
	for _, match := range pathPattern.FindAllString(text, -1) {
		path := match
		if idx := strings.Index(path, ":"); idx >= 0 {
			path = path[:idx]
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	return out
}
