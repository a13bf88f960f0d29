package planvm

type Closure struct {
	Fun *Function
	Env *Env
}
