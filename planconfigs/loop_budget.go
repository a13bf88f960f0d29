package planconfigs

import (
	"time"

	"github.com/reusee/taiplan/cmds"
	"github.com/reusee/taiplan/configs"
	"github.com/reusee/taiplan/executes"
	"github.com/reusee/taiplan/vars"
)

type LoopIterations int64

var _ configs.Configurable = LoopIterations(0)

func (l LoopIterations) ConfigExpr() string {
	return "LoopIterations"
}

var loopIterationsFlag = cmds.Var[int64]("-loop-iterations")

func (Module) LoopIterations(
	loader configs.Loader,
) LoopIterations {
	return LoopIterations(vars.FirstNonZero(
		*loopIterationsFlag,
		configs.First[int64](loader, "loop_iterations"),
		int64(executes.DefaultMaxIterations),
	))
}

type LoopWallClock time.Duration

var _ configs.Configurable = LoopWallClock(0)

func (l LoopWallClock) ConfigExpr() string {
	return "LoopWallClock"
}

var loopSecondsFlag = cmds.Var[int]("-loop-seconds")

func (Module) LoopWallClock(
	loader configs.Loader,
) LoopWallClock {
	seconds := vars.FirstNonZero(
		*loopSecondsFlag,
		configs.First[int](loader, "loop_seconds"),
	)
	if seconds > 0 {
		return LoopWallClock(time.Duration(seconds) * time.Second)
	}
	return LoopWallClock(executes.DefaultLoopBudget)
}
