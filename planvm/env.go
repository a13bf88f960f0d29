package planvm

import "sync"

// Env is one scope in the chain. Async closures run on their own goroutines
// while chaining to the scopes that spawned them, so every map access holds
// the owning scope's lock.
type Env struct {
	Parent *Env

	// Frozen rejects assignments to names resolved in this scope. The
	// driver freezes the root scope after installing the capability
	// bindings.
	Frozen bool

	mu   sync.Mutex
	vars map[string]any
}

func (e *Env) Get(name string) (any, bool) {
	for ; e != nil; e = e.Parent {
		e.mu.Lock()
		v, ok := e.vars[name]
		e.mu.Unlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

func (e *Env) Def(name string, val any) {
	e.mu.Lock()
	if e.vars == nil {
		e.vars = make(map[string]any)
	}
	e.vars[name] = val
	e.mu.Unlock()
}

// Set assigns to the nearest scope already holding name. It reports whether
// the name was found, and whether the owning scope refused the assignment.
func (e *Env) Set(name string, val any) (found, frozen bool) {
	for ; e != nil; e = e.Parent {
		e.mu.Lock()
		if _, ok := e.vars[name]; ok {
			if e.Frozen {
				e.mu.Unlock()
				return true, true
			}
			e.vars[name] = val
			e.mu.Unlock()
			return true, false
		}
		e.mu.Unlock()
	}
	return false, false
}

func (e *Env) NewChild() *Env {
	return &Env{
		Parent: e,
	}
}
