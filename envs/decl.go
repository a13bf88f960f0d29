package envs

import (
	"encoding/json"
	"fmt"
)

type Type uint8

const (
	TypeNone Type = iota
	TypeString
	TypeNumber
	TypeInteger
	TypeBoolean
	TypeArray
	TypeObject
)

var _ json.Marshaler = Type(0)

func (t Type) MarshalJSON() ([]byte, error) {
	name := t.schemaName()
	if name == "" {
		return nil, fmt.Errorf("invalid type: %v", uint8(t))
	}
	return []byte(`"` + name + `"`), nil
}

var _ json.Unmarshaler = new(Type)

func (t *Type) UnmarshalJSON(data []byte) error {
	switch s := string(data); s {
	case `"none"`, `"nil"`:
		*t = TypeNone
	case `"string"`, `"str"`:
		*t = TypeString
	case `"number"`, `"num"`:
		*t = TypeNumber
	case `"int"`, `"integer"`:
		*t = TypeInteger
	case `"bool"`, `"boolean"`:
		*t = TypeBoolean
	case `"array"`, `"list"`:
		*t = TypeArray
	case `"object"`, `"struct"`:
		*t = TypeObject
	default:
		return fmt.Errorf("invalid type: %s", data)
	}
	return nil
}

func (t Type) schemaName() string {
	switch t {
	case TypeNone:
		return "null"
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	}
	return ""
}

type Var struct {
	Name        string `json:"name"`
	Type        Type   `json:"type"`
	Optional    bool   `json:"optional"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	ItemType    *Var   `json:"item_type,omitempty"`   // for TypeArray
	Properties  Vars   `json:"properties,omitempty"`  // for TypeObject
}

type Vars []Var

// ToSchema renders the declared parameters as a JSON Schema object suitable
// for draft 2020-12 validation. Unknown parameter names are rejected.
func (v Vars) ToSchema() map[string]any {
	props := make(map[string]any, len(v))
	var required []string
	for _, variable := range v {
		props[variable.Name] = variable.toSchema()
		if !variable.Optional {
			required = append(required, variable.Name)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (v Var) toSchema() map[string]any {
	schema := map[string]any{
		"type": v.Type.schemaName(),
	}
	if v.Description != "" {
		schema["description"] = v.Description
	}
	if v.Default != nil {
		schema["default"] = v.Default
	}
	if v.Type == TypeArray && v.ItemType != nil {
		schema["items"] = v.ItemType.toSchema()
	}
	if v.Type == TypeObject && len(v.Properties) > 0 {
		inner := v.Properties.ToSchema()
		for key, value := range inner {
			if key != "type" {
				schema[key] = value
			}
		}
	}
	return schema
}

// FuncDecl declares a capability: its binding name, what it does, and the
// parameters it takes, in declaration order. The order matters because plans
// may pass arguments positionally.
type FuncDecl struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Params      Vars   `json:"params"`
}
