package executes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reusee/taiplan/envs"
	"github.com/reusee/taiplan/planlang"
	"github.com/reusee/taiplan/planvm"
	"github.com/reusee/taiplan/transforms"
)

// TransformError is terminal: the plan never started, no capability was
// invoked. Callers should regenerate the plan rather than retry verbatim.
type TransformError struct {
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform: %s", e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// ExecutionError is terminal: the transformed code itself faulted outside
// any bridged call. Contained capability failures never produce one.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution: %s", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// RunResult is the triple handed back for a successful run.
type RunResult struct {
	Result any
	Logs   []string
	Output []string
}

type Config struct {
	MaxLoopIterations int64
	LoopBudget        time.Duration
	Logger            *slog.Logger
}

// ExecutePlan runs one plan against the session's environment: reset the
// per-run state, transform, compile, execute, and await the single resolved
// value.
func ExecutePlan(ctx context.Context, source string, env *envs.Environment, config Config) (*RunResult, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	env.RunLog.Reset()
	if env.Output != nil {
		env.Output.Reset()
	}

	logger.Debug("transforming plan", "bytes", len(source))
	transformed, err := transforms.Transform("plan", source, env.AsyncNames)
	if err != nil {
		return nil, &TransformError{Err: err}
	}
	fun, err := planlang.Compile("plan", transformed)
	if err != nil {
		return nil, &TransformError{Err: err}
	}

	vm := planvm.NewVM(ctx, fun)
	for name, value := range env.Bindings {
		vm.Def(name, value)
	}
	guard := NewLoopGuard(config.MaxLoopIterations, config.LoopBudget)
	vm.Def(transforms.LoopGuardName, guard.Binding())
	// plan code runs in child scopes of this one; reassigning a binding is
	// a fault, not a shadow
	vm.Scope.Frozen = true

	logger.Debug("executing plan")
	var runErr error
	for _, err := range vm.Run {
		if err != nil {
			runErr = err
			break
		}
	}
	if runErr != nil {
		return nil, &ExecutionError{Err: runErr}
	}

	value := vm.Value()
	if p, ok := value.(*planvm.Promise); ok {
		value, err = p.Wait(ctx)
		if err != nil {
			return nil, &ExecutionError{Err: err}
		}
	}

	result := &RunResult{
		Result: value,
		Logs:   env.RunLog.Lines(),
	}
	if env.Output != nil {
		result.Output = env.Output.Fragments()
	}
	logger.Debug("plan finished", "logLines", len(result.Logs), "outputFragments", len(result.Output))
	return result, nil
}

// Session ties one environment to its run configuration. Plans executed
// through the same session share capability bindings and the session store.
type Session struct {
	Env    *envs.Environment
	Config Config
}

func NewSession(env *envs.Environment, config Config) *Session {
	return &Session{
		Env:    env,
		Config: config,
	}
}

func (s *Session) Execute(ctx context.Context, source string) (*RunResult, error) {
	return ExecutePlan(ctx, source, s.Env, s.Config)
}
