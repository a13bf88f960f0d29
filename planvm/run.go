package planvm

import "fmt"

// Run executes until the main function returns or the yield callback asks to
// stop. Errors and await interrupts are reported through yield; returning
// false from it aborts the run. An error reported here is a genuine fault in
// the running code, not a contained capability failure.
func (v *VM) Run(yield func(*Interrupt, error) bool) {
	for {
		if v.IP < 0 || v.IP >= len(v.CurrentFun.Code) {
			return
		}

		inst := v.CurrentFun.Code[v.IP]
		v.IP++
		op := inst & 0xff

		switch op {

		case OpLoadConst:
			idx := int(inst >> 8)
			v.push(v.CurrentFun.Constants[idx])

		case OpLoadVar:
			name := v.CurrentFun.Constants[int(inst>>8)].(string)
			val, ok := v.Scope.Get(name)
			if !ok {
				if !yield(nil, fmt.Errorf("undefined variable: %s", name)) {
					return
				}
				v.push(nil)
				continue
			}
			v.push(val)

		case OpDefVar:
			name := v.CurrentFun.Constants[int(inst>>8)].(string)
			v.Scope.Def(name, v.pop())

		case OpSetVar:
			name := v.CurrentFun.Constants[int(inst>>8)].(string)
			val := v.pop()
			found, frozen := v.Scope.Set(name, val)
			if frozen {
				if !yield(nil, fmt.Errorf("cannot assign to builtin: %s", name)) {
					return
				}
				continue
			}
			if !found {
				// assignment without declaration defines in the current scope
				v.Scope.Def(name, val)
			}

		case OpPop:
			v.pop()

		case OpDup:
			if v.SP > 0 {
				v.push(v.OperandStack[v.SP-1])
			}

		case OpJump:
			offset := int(int32(inst) >> 8)
			v.IP += offset

		case OpJumpFalse:
			offset := int(int32(inst) >> 8)
			if !Truthy(v.pop()) {
				v.IP += offset
			}

		case OpJumpFalsePeek:
			offset := int(int32(inst) >> 8)
			if v.SP > 0 && !Truthy(v.OperandStack[v.SP-1]) {
				v.IP += offset
			}

		case OpJumpTruePeek:
			offset := int(int32(inst) >> 8)
			if v.SP > 0 && Truthy(v.OperandStack[v.SP-1]) {
				v.IP += offset
			}

		case OpMakeClosure:
			fun := v.CurrentFun.Constants[int(inst>>8)].(*Function)
			v.push(&Closure{
				Fun: fun,
				Env: v.Scope,
			})

		case OpCall:
			argc := int(inst >> 8)
			if v.SP < argc+1 {
				if !yield(nil, fmt.Errorf("stack underflow during call")) {
					return
				}
				continue
			}
			calleeIdx := v.SP - argc - 1
			callee := v.OperandStack[calleeIdx]

			switch fn := callee.(type) {

			case *Closure:
				args := make([]any, argc)
				copy(args, v.OperandStack[calleeIdx+1:v.SP])
				v.drop(argc + 1)

				if fn.Fun.Async {
					// async closures run on their own goroutine; the caller
					// gets a promise immediately
					v.push(Go(v.Ctx, func() (any, error) {
						return Call(v.Ctx, fn, args)
					}))
					continue
				}

				newEnv := fn.Env.NewChild()
				bindParams(newEnv, fn.Fun, args)

				v.CallStack = append(v.CallStack, Frame{
					Fun:      v.CurrentFun,
					ReturnIP: v.IP,
					Env:      v.Scope,
					BaseSP:   v.SP,
				})
				v.CurrentFun = fn.Fun
				v.IP = 0
				v.Scope = newEnv

			case NativeFunc:
				args := v.OperandStack[calleeIdx+1 : v.SP]
				res, err := fn.Func(v, args)
				v.drop(argc + 1)
				if err != nil {
					if !yield(nil, err) {
						return
					}
					v.push(nil)
				} else {
					v.push(res)
				}

			default:
				if !yield(nil, fmt.Errorf("calling non-function value: %T", callee)) {
					return
				}
				v.drop(argc + 1)
				v.push(nil)
			}

		case OpReturn:
			retVal := v.pop()
			n := len(v.CallStack)
			if n == 0 {
				v.drop(v.SP)
				v.push(retVal)
				return
			}
			frame := v.CallStack[n-1]
			v.CallStack = v.CallStack[:n-1]
			v.CurrentFun = frame.Fun
			v.IP = frame.ReturnIP
			v.Scope = frame.Env
			v.drop(v.SP - frame.BaseSP)
			v.push(retVal)

		case OpAwait:
			val := v.pop()
			p, ok := val.(*Promise)
			if !ok {
				// awaiting a plain value is the identity
				v.push(val)
				continue
			}
			if !yield(InterruptAwait, nil) {
				return
			}
			res, err := p.Wait(v.Ctx)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				v.push(nil)
				continue
			}
			v.push(res)

		case OpEnterScope:
			v.Scope = v.Scope.NewChild()

		case OpLeaveScope:
			if v.Scope.Parent != nil {
				v.Scope = v.Scope.Parent
			}

		case OpMakeList:
			n := int(inst >> 8)
			if v.SP < n {
				if !yield(nil, fmt.Errorf("stack underflow during list creation")) {
					return
				}
				continue
			}
			slice := make([]any, n)
			copy(slice, v.OperandStack[v.SP-n:v.SP])
			v.drop(n)
			v.push(slice)

		case OpMakeMap:
			n := int(inst >> 8)
			if v.SP < n*2 {
				if !yield(nil, fmt.Errorf("stack underflow during map creation")) {
					return
				}
				continue
			}
			m := make(map[string]any, n)
			start := v.SP - n*2
			for i := range n {
				key, ok := v.OperandStack[start+i*2].(string)
				if !ok {
					key = ToString(v.OperandStack[start+i*2])
				}
				m[key] = v.OperandStack[start+i*2+1]
			}
			v.drop(n * 2)
			v.push(m)

		case OpGetIndex:
			key := v.pop()
			target := v.pop()
			v.push(getIndex(target, key))

		case OpSetIndex:
			val := v.pop()
			key := v.pop()
			target := v.pop()
			if err := setIndex(target, key, val); err != nil {
				if !yield(nil, err) {
					return
				}
			}

		case OpGetAttr:
			name := v.CurrentFun.Constants[int(inst>>8)].(string)
			target := v.pop()
			v.push(getAttr(target, name))

		case OpSetAttr:
			name := v.CurrentFun.Constants[int(inst>>8)].(string)
			val := v.pop()
			target := v.pop()
			m, ok := target.(map[string]any)
			if !ok {
				if !yield(nil, fmt.Errorf("type %T does not support field assignment", target)) {
					return
				}
				continue
			}
			m[name] = val

		case OpGetIter:
			it, err := newIterator(v.pop())
			if err != nil {
				if !yield(nil, err) {
					return
				}
				it = &listIterator{}
			}
			v.push(it)

		case OpNextIter:
			offset := int(int32(inst) >> 8)
			it, ok := v.OperandStack[v.SP-1].(*listIterator)
			if !ok {
				if !yield(nil, fmt.Errorf("not an iterator on stack")) {
					return
				}
				v.pop()
				v.IP += offset
				continue
			}
			elem, more := it.next()
			if !more {
				v.pop()
				v.IP += offset
				continue
			}
			v.push(elem)

		case OpAdd:
			b := v.pop()
			a := v.pop()
			res, err := add(a, b)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				res = nil
			}
			v.push(res)

		case OpSub, OpMul, OpDiv, OpMod:
			b := v.pop()
			a := v.pop()
			res, err := arith(op, a, b)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				res = nil
			}
			v.push(res)

		case OpEq:
			b := v.pop()
			a := v.pop()
			v.push(equal(a, b))

		case OpNe:
			b := v.pop()
			a := v.pop()
			v.push(!equal(a, b))

		case OpLt, OpLe, OpGt, OpGe:
			b := v.pop()
			a := v.pop()
			c, ok := compare(a, b)
			if !ok {
				if !yield(nil, fmt.Errorf("incomparable operands: %T and %T", a, b)) {
					return
				}
				v.push(false)
				continue
			}
			switch op {
			case OpLt:
				v.push(c < 0)
			case OpLe:
				v.push(c <= 0)
			case OpGt:
				v.push(c > 0)
			case OpGe:
				v.push(c >= 0)
			}

		case OpNot:
			v.push(!Truthy(v.pop()))

		case OpNeg:
			val := v.pop()
			switch x := val.(type) {
			case int64:
				v.push(-x)
			case float64:
				v.push(-x)
			default:
				if !yield(nil, fmt.Errorf("cannot negate %T", val)) {
					return
				}
				v.push(nil)
			}

		default:
			if !yield(nil, fmt.Errorf("unknown opcode: %d", op)) {
				return
			}
		}
	}
}

func bindParams(env *Env, fun *Function, args []any) {
	// missing arguments bind to null, extras are dropped
	for i, name := range fun.ParamNames {
		if i < len(args) {
			env.Def(name, args[i])
		} else {
			env.Def(name, nil)
		}
	}
}

func getIndex(target, key any) any {
	switch t := target.(type) {
	case []any:
		idx, ok := ToInt64(key)
		if !ok || idx < 0 || idx >= int64(len(t)) {
			return nil
		}
		return t[idx]
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			k = ToString(key)
		}
		return t[k]
	case string:
		idx, ok := ToInt64(key)
		if !ok {
			return nil
		}
		runes := []rune(t)
		if idx < 0 || idx >= int64(len(runes)) {
			return nil
		}
		return string(runes[idx])
	}
	return nil
}

func setIndex(target, key, val any) error {
	switch t := target.(type) {
	case []any:
		idx, ok := ToInt64(key)
		if !ok {
			return fmt.Errorf("list index must be a number, got %T", key)
		}
		if idx < 0 || idx >= int64(len(t)) {
			return fmt.Errorf("index out of bounds: %d", idx)
		}
		t[idx] = val
		return nil
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			k = ToString(key)
		}
		t[k] = val
		return nil
	}
	return fmt.Errorf("type %T does not support assignment", target)
}

func getAttr(target any, name string) any {
	switch t := target.(type) {
	case map[string]any:
		return t[name]
	case []any:
		if name == "length" {
			return int64(len(t))
		}
	case string:
		if name == "length" {
			return int64(len([]rune(t)))
		}
	}
	return nil
}
