package planvm

import (
	"fmt"
	"sort"
)

type listIterator struct {
	elems []any
	idx   int
}

func (it *listIterator) next() (any, bool) {
	if it.idx >= len(it.elems) {
		return nil, false
	}
	v := it.elems[it.idx]
	it.idx++
	return v, true
}

// newIterator iterates list elements, sorted map keys, or the runes of a
// string as one-character strings.
func newIterator(v any) (*listIterator, error) {
	switch x := v.(type) {
	case []any:
		return &listIterator{elems: x}, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		elems := make([]any, len(keys))
		for i, k := range keys {
			elems[i] = k
		}
		return &listIterator{elems: elems}, nil
	case string:
		var elems []any
		for _, r := range x {
			elems = append(elems, string(r))
		}
		return &listIterator{elems: elems}, nil
	case nil:
		return &listIterator{}, nil
	}
	return nil, fmt.Errorf("type %T is not iterable", v)
}
