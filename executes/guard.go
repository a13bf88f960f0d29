package executes

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/reusee/taiplan/planvm"
	"github.com/reusee/taiplan/transforms"
)

const (
	DefaultMaxIterations = 100000
	DefaultLoopBudget    = 120 * time.Second
)

// LoopGuard is the cooperative defense against runaway iteration. The
// transformer plants a call to it at the top of every loop body; exceeding
// the iteration or wall-clock budget is a terminal, unrecoverable failure.
// Budgets span the whole run, not a single loop. Promoted async functions
// run loops on their own goroutines, so the counter is atomic.
type LoopGuard struct {
	maxIterations int64
	deadline      time.Time
	count         atomic.Int64
}

func NewLoopGuard(maxIterations int64, budget time.Duration) *LoopGuard {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if budget <= 0 {
		budget = DefaultLoopBudget
	}
	return &LoopGuard{
		maxIterations: maxIterations,
		deadline:      time.Now().Add(budget),
	}
}

func (g *LoopGuard) Check() error {
	if n := g.count.Add(1); n > g.maxIterations {
		return fmt.Errorf("loop guard: iteration budget exceeded (%d)", g.maxIterations)
	}
	if time.Now().After(g.deadline) {
		return fmt.Errorf("loop guard: time budget exceeded")
	}
	return nil
}

// Binding exposes the guard under the name the transformer injects.
func (g *LoopGuard) Binding() planvm.NativeFunc {
	return planvm.NativeFunc{
		Name: transforms.LoopGuardName,
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if err := g.Check(); err != nil {
				return nil, err
			}
			return nil, nil
		},
	}
}
