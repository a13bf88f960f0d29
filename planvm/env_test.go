package planvm

import (
	"sync"
	"testing"
)

func TestEnvConcurrentMutation(t *testing.T) {
	root := &Env{}
	root.Def("n", int64(0))

	// async closures chain to the scope that spawned them and mutate outer
	// variables from their own goroutines
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scope := root.NewChild()
			for range 200 {
				v, _ := scope.Get("n")
				scope.Set("n", v.(int64)+1)
				scope.Def("local", "x")
			}
		}()
	}
	wg.Wait()

	v, ok := root.Get("n")
	if !ok {
		t.Fatal("n lost")
	}
	if v.(int64) < 1 {
		t.Errorf("n = %v", v)
	}
}

func TestEnvFrozenScope(t *testing.T) {
	root := &Env{Frozen: true}
	root.Def("search", "binding")
	scope := root.NewChild()

	found, frozen := scope.Set("search", int64(5))
	if !found || !frozen {
		t.Fatalf("found=%v frozen=%v", found, frozen)
	}
	if v, _ := root.Get("search"); v != "binding" {
		t.Errorf("binding overwritten: %v", v)
	}

	// a declaration in a child scope still shadows
	scope.Def("search", int64(5))
	if v, _ := scope.Get("search"); v != int64(5) {
		t.Errorf("shadow = %v", v)
	}

	// names resolved below the frozen scope assign as usual
	scope.Def("n", int64(0))
	if found, frozen := scope.Set("n", int64(1)); !found || frozen {
		t.Errorf("found=%v frozen=%v", found, frozen)
	}
}
