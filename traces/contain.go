package traces

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorPrefix marks a contained capability failure in the plan's data flow.
// Plans branch on this prefix instead of relying on exception propagation,
// which is not dependable across the sandbox boundary.
const ErrorPrefix = "ERROR: "

// Capability is the shape of a bridged callable before and after
// containment.
type Capability func(ctx context.Context, args []any) (any, error)

// ErrorKinder lets an error label itself in traces, for example a parameter
// validation failure versus an invocation failure.
type ErrorKinder interface {
	ErrorKind() string
}

// Contain wraps fn so that no failure ever crosses into the plan as an
// error. Successes return unchanged; failures are logged, recorded on the
// span and the run log, and resolve to an "ERROR: ..." string. tracer and
// log may both be nil; containment does not depend on observability.
func Contain(name string, fn Capability, tracer *Tracer, log *RunLog) Capability {
	return func(ctx context.Context, args []any) (any, error) {
		start := time.Now()

		var span trace.Span
		if tracer != nil && tracer.Tracer != nil {
			ctx, span = tracer.Tracer.Start(ctx, "capability."+name)
			span.SetAttributes(
				attribute.String("capability.name", name),
				attribute.String("capability.params", tracer.truncate(renderArgs(args))),
			)
		}

		res, err := invoke(fn, ctx, args)
		elapsed := time.Since(start)

		if err != nil {
			kind := "invocation"
			var kinder ErrorKinder
			if errors.As(err, &kinder) {
				kind = kinder.ErrorKind()
			}
			msg := tracer.truncate(err.Error())
			if span != nil {
				span.SetAttributes(attribute.String("capability.error_kind", kind))
				span.RecordError(err)
				span.SetStatus(codes.Error, msg)
				span.End()
			}
			if tracer != nil && tracer.Logger != nil {
				tracer.Logger.Warn("capability failed",
					"name", name,
					"kind", kind,
					"elapsed", elapsed,
					"error", msg,
				)
			}
			if tracer != nil && tracer.ResultSink != nil {
				tracer.ResultSink(Result{
					Name:    name,
					Value:   msg,
					Success: false,
					Elapsed: elapsed,
					Attrs:   map[string]string{"error_kind": kind},
				})
			}
			if log != nil {
				log.Append("[" + name + "] " + ErrorPrefix + err.Error())
			}
			return ErrorPrefix + err.Error(), nil
		}

		rendered := tracer.truncate(renderValue(res))
		if span != nil {
			span.SetAttributes(attribute.String("capability.result", rendered))
			span.End()
		}
		if tracer != nil && tracer.Logger != nil {
			tracer.Logger.Debug("capability ok",
				"name", name,
				"elapsed", elapsed,
			)
		}
		if tracer != nil && tracer.ResultSink != nil {
			tracer.ResultSink(Result{
				Name:    name,
				Value:   rendered,
				Success: true,
				Elapsed: elapsed,
			})
		}
		return res, nil
	}
}

// invoke shields the wrapper from panicking capabilities.
func invoke(fn Capability, ctx context.Context, args []any) (res any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(ctx, args)
}
