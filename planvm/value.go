package planvm

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// Truthy follows the script surface's rules: null, false, zero and the
// empty string are falsy, everything else (including empty lists) is truthy.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return true
}

func ToInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		return int64(x), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// ToString renders a value for concatenation and the output primitive:
// strings pass through, structured values render as JSON.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			}
			return 0, true
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			switch {
			case sa < sb:
				return -1, true
			case sa > sb:
				return 1, true
			}
			return 0, true
		}
	}
	return 0, false
}

func add(a, b any) (any, error) {
	if sa, ok := a.(string); ok {
		return sa + ToString(b), nil
	}
	if sb, ok := b.(string); ok {
		return ToString(a) + sb, nil
	}
	if la, ok := a.([]any); ok {
		if lb, ok := b.([]any); ok {
			out := make([]any, 0, len(la)+len(lb))
			out = append(out, la...)
			return append(out, lb...), nil
		}
	}
	return arith(OpAdd, a, b)
}

func arith(op OpCode, a, b any) (any, error) {
	ia, aInt := a.(int64)
	ib, bInt := b.(int64)
	if aInt && bInt {
		switch op {
		case OpAdd:
			return ia + ib, nil
		case OpSub:
			return ia - ib, nil
		case OpMul:
			return ia * ib, nil
		case OpDiv:
			if ib == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return ia / ib, nil
		case OpMod:
			if ib == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return ia % ib, nil
		}
	}
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if !okA || !okB {
		return nil, fmt.Errorf("invalid operands: %T and %T", a, b)
	}
	switch op {
	case OpAdd:
		return fa + fb, nil
	case OpSub:
		return fa - fb, nil
	case OpMul:
		return fa * fb, nil
	case OpDiv:
		if fb == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return fa / fb, nil
	case OpMod:
		if fb == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return float64(int64(fa) % int64(fb)), nil
	}
	return nil, fmt.Errorf("unknown arithmetic op %d", op)
}
