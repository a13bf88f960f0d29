package planvm

type Function struct {
	Name       string
	NumParams  int
	ParamNames []string
	Async      bool
	Code       []OpCode
	Constants  []any
}
