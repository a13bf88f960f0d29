package nets

import (
	"github.com/reusee/dscope"

	"github.com/reusee/taiplan/logs"
)

type Module struct {
	dscope.Module
	Logs logs.Module
}
