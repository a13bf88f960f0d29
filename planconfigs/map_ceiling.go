package planconfigs

import (
	"github.com/reusee/taiplan/cmds"
	"github.com/reusee/taiplan/configs"
	"github.com/reusee/taiplan/envs"
	"github.com/reusee/taiplan/vars"
)

type MapCeiling int

var _ configs.Configurable = MapCeiling(0)

func (m MapCeiling) ConfigExpr() string {
	return "MapCeiling"
}

var mapCeilingFlag = cmds.Var[int]("-map-ceiling")

func (Module) MapCeiling(
	loader configs.Loader,
) MapCeiling {
	return MapCeiling(vars.FirstNonZero(
		*mapCeilingFlag,
		configs.First[int](loader, "map_ceiling"),
		envs.DefaultMapCeiling,
	))
}
