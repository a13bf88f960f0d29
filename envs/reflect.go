package envs

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaOf derives a JSON Schema from a parameter struct by reflection, for
// tools whose parameters are naturally a Go type rather than a hand-written
// declaration.
func SchemaOf(params any) (map[string]any, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	r.ExpandedStruct = true

	s := r.Reflect(params)
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	delete(doc, "$schema")
	delete(doc, "$id")
	return doc, nil
}
