package envs

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reusee/taiplan/planvm"
)

func buildTestEnv(t *testing.T, opts Options) *Environment {
	t.Helper()
	env, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func callBinding(t *testing.T, env *Environment, name string, args ...any) any {
	t.Helper()
	binding, ok := env.Bindings[name]
	if !ok {
		t.Fatalf("%s not bound", name)
	}
	res, err := planvm.CallCallable(context.Background(), binding, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return res
}

func TestBuildBindsTools(t *testing.T) {
	env := buildTestEnv(t, Options{
		Tools: []Tool{searchTool},
	})
	if !env.AsyncNames["search"] {
		t.Error("search should be in the async set")
	}
	if !env.AsyncNames["map"] {
		t.Error("map should be in the async set")
	}
	if env.AsyncNames["range"] {
		t.Error("pure utilities do not suspend")
	}
	res := callBinding(t, env, "search", "foo")
	params := res.(map[string]any)
	if params["query"] != "foo" {
		t.Errorf("res = %v", res)
	}
}

func TestBridgedFailureIsContained(t *testing.T) {
	env := buildTestEnv(t, Options{
		Tools: []Tool{searchTool},
	})
	// validation failure surfaces as a string, not an error
	res := callBinding(t, env, "search")
	s, ok := res.(string)
	if !ok || !strings.HasPrefix(s, "ERROR: ") {
		t.Errorf("res = %v", res)
	}
	lines := env.RunLog.Lines()
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "[search] ERROR: ") {
		t.Errorf("log = %v", lines)
	}
}

func TestMapPreservesInputOrder(t *testing.T) {
	const n = 6
	release := make([]chan struct{}, n)
	for i := range release {
		release[i] = make(chan struct{})
	}

	fn := planvm.NativeFunc{
		Name: "work",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			i := args[0].(int64)
			<-release[i]
			return i * 10, nil
		},
	}

	items := make([]any, n)
	for i := range items {
		items[i] = int64(i)
	}
	// ceiling = n so every call is in flight before any completes
	prim := mapPrimitive(n)
	res, err := prim.Func(&planvm.VM{Ctx: context.Background()}, []any{items, fn})
	if err != nil {
		t.Fatal(err)
	}
	promise := res.(*planvm.Promise)

	// item 0 finishes last; slots must still line up with inputs
	go func() {
		for i := n - 1; i >= 0; i-- {
			release[i] <- struct{}{}
		}
	}()

	value, err := promise.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	results := value.([]any)
	for i, r := range results {
		if r != int64(i*10) {
			t.Errorf("slot %d = %v", i, r)
		}
	}
}

func TestMapCeiling(t *testing.T) {
	const ceiling = 3
	const n = 12

	var inFlight, maxInFlight int64
	var mu sync.Mutex

	fn := planvm.NativeFunc{
		Name: "work",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			cur := atomic.AddInt64(&inFlight, 1)
			mu.Lock()
			if cur > maxInFlight {
				maxInFlight = cur
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return nil, nil
		},
	}

	items := make([]any, n)
	prim := mapPrimitive(ceiling)
	res, err := prim.Func(&planvm.VM{Ctx: context.Background()}, []any{items, fn})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := res.(*planvm.Promise).Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	observed := maxInFlight
	mu.Unlock()
	if observed > ceiling {
		t.Errorf("max in flight = %d, ceiling %d", observed, ceiling)
	}
}

func TestMapRejectsNonList(t *testing.T) {
	prim := mapPrimitive(2)
	_, err := prim.Func(&planvm.VM{Ctx: context.Background()}, []any{"not a list", planvm.NativeFunc{}})
	if err == nil {
		t.Fatal("expected synchronous rejection")
	}
}

func TestStorePersistsAcrossRuns(t *testing.T) {
	store := NewStore()
	first := buildTestEnv(t, Options{Store: store})
	callBinding(t, first, "setData", "findings", "match one")
	callBinding(t, first, "appendData", "hits", int64(1))

	// a later run in the same session sees the values
	second := buildTestEnv(t, Options{Store: store})
	if got := callBinding(t, second, "getData", "findings"); got != "match one" {
		t.Errorf("got %v", got)
	}
	keys := callBinding(t, second, "listDataKeys").([]any)
	if len(keys) != 2 || keys[0] != "findings" || keys[1] != "hits" {
		t.Errorf("keys = %v", keys)
	}

	// a fresh session starts empty
	fresh := buildTestEnv(t, Options{})
	if got := callBinding(t, fresh, "getData", "findings"); got != nil {
		t.Errorf("fresh store has %v", got)
	}
}

func TestStoreAppendResetsNonList(t *testing.T) {
	store := NewStore()
	store.Set("k", "scalar")
	list := store.Append("k", int64(1))
	if len(list) != 1 || list[0] != int64(1) {
		t.Errorf("list = %v", list)
	}
}

func TestOutputPrimitive(t *testing.T) {
	buffer := &OutputBuffer{}
	env := buildTestEnv(t, Options{Output: buffer})
	callBinding(t, env, "output", "found 3 matches")
	callBinding(t, env, "output", map[string]any{"n": int64(1)})
	frags := buffer.Fragments()
	if len(frags) != 2 || frags[0] != "found 3 matches" || frags[1] != `{"n":1}` {
		t.Errorf("fragments = %v", frags)
	}

	// without a buffer the primitive is a no-op
	silent := buildTestEnv(t, Options{})
	callBinding(t, silent, "output", "dropped")
}

func TestBuildLeavesCallerToolsIntact(t *testing.T) {
	backing := make([]Tool, 1, 4)
	backing[0] = searchTool
	env := buildTestEnv(t, Options{
		Tools: backing,
		MCP:   newStub(),
	})
	if !env.AsyncNames["fs_read"] {
		t.Fatal("bridged tool missing")
	}
	// discovered tools must not land in the caller's spare capacity
	full := backing[:cap(backing)]
	for i := 1; i < len(full); i++ {
		if full[i].Decl.Name != "" {
			t.Errorf("slot %d overwritten: %s", i, full[i].Decl.Name)
		}
	}
}

func TestDuplicateCapabilityName(t *testing.T) {
	_, err := Build(context.Background(), Options{
		Tools: []Tool{searchTool, searchTool},
	})
	if err == nil {
		t.Fatal("expected duplicate name error")
	}
}
