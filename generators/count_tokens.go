package generators

import (
	"github.com/reusee/taiplan/envs"
)

type TokenCounter = envs.TokenCounter

type BPETokenCounter TokenCounter

func (Module) BPETokenCounter() BPETokenCounter {
	return BPETokenCounter(envs.NewBPETokenCounter())
}
