package planvm

type Frame struct {
	Fun      *Function
	ReturnIP int
	Env      *Env
	BaseSP   int
}
