package planvm

import "context"

type VM struct {
	Ctx          context.Context
	CurrentFun   *Function
	IP           int
	OperandStack []any
	SP           int
	CallStack    []Frame
	Scope        *Env
}

func NewVM(ctx context.Context, main *Function) *VM {
	return &VM{
		Ctx:          ctx,
		CurrentFun:   main,
		Scope:        &Env{},
		OperandStack: make([]any, 256),
		CallStack:    make([]Frame, 0, 16),
	}
}

func (v *VM) Get(name string) (any, bool) {
	return v.Scope.Get(name)
}

func (v *VM) Def(name string, val any) {
	v.Scope.Def(name, val)
}

func (v *VM) Set(name string, val any) (found, frozen bool) {
	return v.Scope.Set(name, val)
}

// Value is the result left on the stack once Run has finished.
func (v *VM) Value() any {
	if v.SP > 0 {
		return v.OperandStack[v.SP-1]
	}
	return nil
}

func (v *VM) push(val any) {
	if v.SP >= len(v.OperandStack) {
		v.growOperandStack()
	}
	v.OperandStack[v.SP] = val
	v.SP++
}

func (v *VM) growOperandStack() {
	newCap := len(v.OperandStack) * 2
	if newCap == 0 {
		newCap = 8
	}
	newStack := make([]any, newCap)
	copy(newStack, v.OperandStack)
	v.OperandStack = newStack
}

func (v *VM) pop() any {
	if v.SP <= 0 {
		return nil
	}
	v.SP--
	val := v.OperandStack[v.SP]
	v.OperandStack[v.SP] = nil
	return val
}

func (v *VM) drop(n int) {
	if n <= 0 {
		return
	}
	if n > v.SP {
		n = v.SP
	}
	start := v.SP - n
	for i := 0; i < n; i++ {
		v.OperandStack[start+i] = nil
	}
	v.SP = start
}
