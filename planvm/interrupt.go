package planvm

type Interrupt struct {
	Await bool
}

var InterruptAwait = &Interrupt{
	Await: true,
}
