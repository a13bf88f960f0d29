package main

import (
	"github.com/reusee/dscope"

	"github.com/reusee/taiplan/debugs"
	"github.com/reusee/taiplan/generators"
	"github.com/reusee/taiplan/planconfigs"
)

type Module struct {
	dscope.Module
	Generators generators.Module
	Configs    planconfigs.Module
	Debugs     debugs.Module
}
