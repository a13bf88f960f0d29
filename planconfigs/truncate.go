package planconfigs

import (
	"github.com/reusee/taiplan/cmds"
	"github.com/reusee/taiplan/configs"
	"github.com/reusee/taiplan/traces"
	"github.com/reusee/taiplan/vars"
)

type TruncateLength int

var _ configs.Configurable = TruncateLength(0)

func (t TruncateLength) ConfigExpr() string {
	return "TruncateLength"
}

var truncateLengthFlag = cmds.Var[int]("-truncate-length")

func (Module) TruncateLength(
	loader configs.Loader,
) TruncateLength {
	return TruncateLength(vars.FirstNonZero(
		*truncateLengthFlag,
		configs.First[int](loader, "truncate_length"),
		traces.DefaultTruncateLen,
	))
}
