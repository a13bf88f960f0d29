package envs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/reusee/taiplan/planvm"
	"github.com/reusee/taiplan/traces"
	"github.com/reusee/taiplan/transforms"
)

const DefaultMapCeiling = 8

// Options collects everything the environment builder consumes: the native
// tools, an optional externally discovered tool bridge, the model caller,
// observability, and the session-owned store and output buffer.
type Options struct {
	Tools      []Tool
	MCP        MCPClient
	LLM        ModelCaller
	MapCeiling int
	Tracer     *traces.Tracer
	Logger     *slog.Logger
	Counter    TokenCounter
	Store      *Store
	Output     *OutputBuffer
}

// Environment is the flat table handed to the interpreter, plus the async
// name set the transformer needs and the per-run log shared with the
// containment wrapper. Bindings are read-only from the plan's perspective.
type Environment struct {
	Bindings   map[string]any
	AsyncNames transforms.AsyncNames
	Store      *Store
	Output     *OutputBuffer
	RunLog     *traces.RunLog
}

// Build assembles the capability bindings. It runs once per session and
// again whenever the enabled capability set changes; repeated runs in the
// same session share the result.
func Build(ctx context.Context, opts Options) (*Environment, error) {
	if opts.Store == nil {
		opts.Store = NewStore()
	}
	ceiling := opts.MapCeiling
	if ceiling <= 0 {
		ceiling = DefaultMapCeiling
	}

	env := &Environment{
		Bindings:   make(map[string]any),
		AsyncNames: make(transforms.AsyncNames),
		Store:      opts.Store,
		Output:     opts.Output,
		RunLog:     &traces.RunLog{},
	}

	bindCapability := func(name string, fn traces.Capability) {
		contained := traces.Contain(name, fn, opts.Tracer, env.RunLog)
		env.Bindings[name] = asyncBinding(name, contained)
		env.AsyncNames[name] = true
	}

	// never grow into the caller's backing array
	tools := slices.Clone(opts.Tools)
	if opts.MCP != nil {
		discovered, err := MCPTools(ctx, opts.MCP)
		if err != nil {
			return nil, fmt.Errorf("bridge external tools: %w", err)
		}
		tools = append(tools, discovered...)
	}
	for _, tool := range tools {
		if _, ok := env.Bindings[tool.Decl.Name]; ok {
			return nil, fmt.Errorf("duplicate capability name: %s", tool.Decl.Name)
		}
		bindCapability(tool.Decl.Name, toolCapability(tool))
	}

	if opts.LLM != nil {
		bindCapability("llmCall", llmCallCapability(opts.LLM, opts.Logger))
	}

	env.Bindings[transforms.MapName] = mapPrimitive(ceiling)
	env.AsyncNames[transforms.MapName] = true

	for _, native := range []planvm.NativeFunc{
		rangePrimitive(),
		flattenPrimitive(),
		uniquePrimitive(),
		batchPrimitive(),
		groupByPrimitive(),
		chunkPrimitive(opts.Counter),
		chunkByKeyPrimitive(opts.Counter),
		extractJSONPrimitive(),
		extractPathsPrimitive(),
	} {
		env.Bindings[native.Name] = native
	}

	bindStore(env.Bindings, opts.Store)
	env.Bindings["output"] = outputPrimitive(opts.Output)

	return env, nil
}

// toolCapability chains argument normalization, schema validation, and the
// tool's own execute.
func toolCapability(tool Tool) traces.Capability {
	v := newValidator(tool)
	return func(ctx context.Context, args []any) (any, error) {
		params, err := normalizeParams(tool.Decl, args)
		if err != nil {
			return nil, err
		}
		if err := v.validate(params); err != nil {
			return nil, err
		}
		return tool.Execute(ctx, params)
	}
}

// asyncBinding exposes a contained capability as a suspending call: invoking
// it returns a promise immediately, and the transform's injected await
// resolves it in place, so the plan surface stays sequential-looking.
func asyncBinding(name string, fn traces.Capability) planvm.NativeFunc {
	return planvm.NativeFunc{
		Name: name,
		Func: func(vm *planvm.VM, args []any) (any, error) {
			// args aliases the operand stack, copy before leaving the
			// VM goroutine
			copied := make([]any, len(args))
			copy(copied, args)
			ctx := vm.Ctx
			return planvm.Go(ctx, func() (any, error) {
				return fn(ctx, copied)
			}), nil
		},
	}
}

func bindStore(bindings map[string]any, store *Store) {
	bindings["setData"] = planvm.NativeFunc{
		Name: "setData",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("setData takes (key, value)")
			}
			store.Set(planvm.ToString(args[0]), args[1])
			return nil, nil
		},
	}
	bindings["getData"] = planvm.NativeFunc{
		Name: "getData",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("getData takes (key)")
			}
			return store.Get(planvm.ToString(args[0])), nil
		},
	}
	bindings["appendData"] = planvm.NativeFunc{
		Name: "appendData",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("appendData takes (key, value)")
			}
			return store.Append(planvm.ToString(args[0]), args[1]), nil
		},
	}
	bindings["listDataKeys"] = planvm.NativeFunc{
		Name: "listDataKeys",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			keys := store.Keys()
			out := make([]any, len(keys))
			for i, key := range keys {
				out[i] = key
			}
			return out, nil
		},
	}
	bindings["getAllData"] = planvm.NativeFunc{
		Name: "getAllData",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			return store.All(), nil
		},
	}
}

// outputPrimitive writes to the buffer when one is configured, and is a
// silent no-op otherwise.
func outputPrimitive(buffer *OutputBuffer) planvm.NativeFunc {
	return planvm.NativeFunc{
		Name: "output",
		Func: func(vm *planvm.VM, args []any) (any, error) {
			if buffer == nil {
				return nil, nil
			}
			for _, arg := range args {
				buffer.Append(arg)
			}
			return nil, nil
		},
	}
}
