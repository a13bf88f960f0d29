package envs

import (
	"sync"

	"github.com/reusee/taiplan/planvm"
)

// OutputBuffer collects the fragments a plan emits through the output
// primitive. It bypasses whatever happens to the plan's return value later.
type OutputBuffer struct {
	mu        sync.Mutex
	fragments []string
}

func (b *OutputBuffer) Append(v any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fragments = append(b.fragments, planvm.ToString(v))
}

func (b *OutputBuffer) Fragments() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.fragments))
	copy(out, b.fragments)
	return out
}

func (b *OutputBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fragments = nil
}
