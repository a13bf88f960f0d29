package planvm

type NativeFunc struct {
	Name string
	Func func(vm *VM, args []any) (any, error)
}
