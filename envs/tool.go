package envs

import "context"

// Tool is one native capability implementation. Params are validated against
// the declaration before Execute runs; Execute never sees a params map that
// failed validation.
type Tool struct {
	Decl FuncDecl

	// ParamsType, when non-nil, derives the validation schema from this
	// struct type by reflection instead of Decl.Params. Decl.Params still
	// provides the positional argument order.
	ParamsType any

	// RawSchema, when non-nil, is used as the validation schema verbatim.
	// Externally discovered tools arrive with their schema already written.
	RawSchema map[string]any

	Execute func(ctx context.Context, params map[string]any) (any, error)
}
