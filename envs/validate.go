package envs

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError enumerates the schema constraints a call violated. It is
// contained like any other capability failure but labeled separately in
// traces.
type ValidationError struct {
	Tool   string
	Causes []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameters for %s: %s", e.Tool, strings.Join(e.Causes, "; "))
}

func (e *ValidationError) ErrorKind() string {
	return "validation"
}

// normalizeParams resolves the two calling conventions before validation:
// a single aggregate parameter object, or positional arguments mapped onto
// the declared parameter order. Declared defaults fill absent optional
// parameters.
func normalizeParams(decl FuncDecl, args []any) (map[string]any, error) {
	params := make(map[string]any)

	if len(args) == 1 {
		if m, ok := args[0].(map[string]any); ok {
			for k, v := range m {
				params[k] = v
			}
			applyDefaults(decl, params)
			return params, nil
		}
	}

	if len(args) > len(decl.Params) {
		return nil, &ValidationError{
			Tool: decl.Name,
			Causes: []string{fmt.Sprintf(
				"takes at most %d positional arguments, got %d",
				len(decl.Params), len(args),
			)},
		}
	}
	for i, arg := range args {
		params[decl.Params[i].Name] = arg
	}
	applyDefaults(decl, params)
	return params, nil
}

func applyDefaults(decl FuncDecl, params map[string]any) {
	for _, v := range decl.Params {
		if v.Default == nil {
			continue
		}
		if _, ok := params[v.Name]; !ok {
			params[v.Name] = v.Default
		}
	}
}

// validator compiles a tool's parameter schema once, on first use.
type validator struct {
	name    string
	schema  map[string]any
	once    sync.Once
	checked *jsonschema.Schema
	err     error
}

func newValidator(tool Tool) *validator {
	v := &validator{
		name: tool.Decl.Name,
	}
	switch {
	case tool.RawSchema != nil:
		v.schema = tool.RawSchema
	case tool.ParamsType != nil:
		schema, err := SchemaOf(tool.ParamsType)
		if err != nil {
			v.err = err
			return v
		}
		v.schema = schema
	default:
		v.schema = tool.Decl.Params.ToSchema()
	}
	return v
}

func (v *validator) compile() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		if v.err != nil {
			return
		}
		resource := v.name + ".schema.json"
		c := jsonschema.NewCompiler()
		if err := c.AddResource(resource, anyDoc(v.schema)); err != nil {
			v.err = err
			return
		}
		v.checked, v.err = c.Compile(resource)
	})
	return v.checked, v.err
}

func (v *validator) validate(params map[string]any) error {
	sch, err := v.compile()
	if err != nil {
		return fmt.Errorf("schema for %s: %w", v.name, err)
	}
	if err := sch.Validate(anyDoc(params)); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return &ValidationError{Tool: v.name, Causes: []string{err.Error()}}
		}
		var causes []string
		for _, leaf := range flattenCauses(ve) {
			loc := strings.Join(leaf.InstanceLocation, "/")
			if loc == "" {
				loc = "(params)"
			}
			causes = append(causes, fmt.Sprintf("%s: %v", loc, leaf.ErrorKind))
		}
		return &ValidationError{Tool: v.name, Causes: causes}
	}
	return nil
}

func flattenCauses(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range ve.Causes {
		leaves = append(leaves, flattenCauses(cause)...)
	}
	return leaves
}

// anyDoc round-trips a value through JSON so the schema library sees only
// plain JSON types.
func anyDoc(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return v
	}
	return doc
}
