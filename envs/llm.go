package envs

import (
	"context"
	"log/slog"

	"github.com/reusee/taiplan/planvm"
	"github.com/reusee/taiplan/traces"
)

// ModelCaller is the model-call contract this engine consumes. Retry and
// provider fallback live behind it, not here.
type ModelCaller func(ctx context.Context, instruction string, data any, options map[string]any) (any, error)

// llmCallCapability adapts the injected model caller to the plan surface.
// When the options ask for structured output and the model answered with
// text, exactly one parse attempt is made; on failure the raw text flows
// on with a logged warning. Anything deeper belongs to the caller.
func llmCallCapability(call ModelCaller, logger *slog.Logger) traces.Capability {
	return func(ctx context.Context, args []any) (any, error) {
		var instruction string
		var data any
		var options map[string]any
		if len(args) > 0 {
			instruction = planvm.ToString(args[0])
		}
		if len(args) > 1 {
			data = args[1]
		}
		if len(args) > 2 {
			options, _ = args[2].(map[string]any)
		}

		res, err := call(ctx, instruction, data, options)
		if err != nil {
			return nil, err
		}

		if !structuredRequested(options) {
			return res, nil
		}
		text, ok := res.(string)
		if !ok {
			return res, nil
		}
		if parsed := ExtractJSON(text); parsed != nil {
			return parsed, nil
		}
		if logger != nil {
			logger.Warn("structured output requested but response did not parse, returning raw text",
				"instruction", traces.Truncate(instruction, 80),
			)
		}
		return text, nil
	}
}

func structuredRequested(options map[string]any) bool {
	if options == nil {
		return false
	}
	if format, ok := options["format"].(string); ok && format == "json" {
		return true
	}
	if planvm.Truthy(options["structured"]) {
		return true
	}
	if _, ok := options["schema"]; ok {
		return true
	}
	return false
}
