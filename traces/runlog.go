package traces

import "sync"

// RunLog collects the diagnostic lines of one run, in order. It is reset at
// the start of every run and handed back to the caller at the end.
type RunLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *RunLog) Append(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
}

func (l *RunLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

func (l *RunLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
}
