// Package tool adds schema generation, argument decoding, a local
// shell executor, and a static registry on top of the agent
// package's bare Tool contract.
package tool

import (
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/loomctl/loom/agent"
)

// paramsFromType reflects T's JSON struct tags into the closed
// ParamSpec shape agent.ToolSpec advertises to the model, the same way
// functiontool.generateSchema does for hector's ADK-Go-compatible
// tools — except restricted to agent's closed ParamType set rather
// than passed through as a raw JSON-schema map.
func paramsFromType[T any]() ([]agent.ParamSpec, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	return paramsFromSchema(reflector.Reflect(new(T)))
}

func paramsFromSchema(schema *jsonschema.Schema) ([]agent.ParamSpec, error) {
	if schema.Properties == nil {
		return nil, nil
	}
	required := make(map[string]bool, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = true
	}

	var params []agent.ParamSpec
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		spec, err := paramSpecFromSchema(pair.Key, pair.Value)
		if err != nil {
			return nil, err
		}
		spec.Required = required[pair.Key]
		params = append(params, spec)
	}
	return params, nil
}

func paramSpecFromSchema(name string, s *jsonschema.Schema) (agent.ParamSpec, error) {
	desc := s.Description
	nullable := false
	if branch, ok := nullableBranch(s); ok {
		nullable = true
		s = branch
		if desc == "" {
			desc = s.Description
		}
	}

	typ, err := paramType(s)
	if err != nil {
		return agent.ParamSpec{}, fmt.Errorf("field %q: %w", name, err)
	}

	spec := agent.ParamSpec{
		Name:        name,
		Description: desc,
		Type:        typ,
		Nullable:    nullable,
	}

	switch typ {
	case agent.TypeArray:
		if s.Items != nil {
			item, err := paramSpecFromSchema(name+"[]", s.Items)
			if err != nil {
				return agent.ParamSpec{}, err
			}
			spec.Items = &item
		}
	case agent.TypeObject:
		nested, err := paramsFromSchema(s)
		if err != nil {
			return agent.ParamSpec{}, err
		}
		spec.Properties = nested
	}
	return spec, nil
}

// nullableBranch recognizes the shape invopop/jsonschema emits for a
// `jsonschema:"oneof_type=...;null"` tag, and for a reflected
// pointer-typed struct field under reflector settings that expand it
// to a two-member union: a oneOf/anyOf with exactly one "null" member
// alongside the real type. It returns the non-null branch so the
// caller can reflect T out of nullable(T) instead of rejecting it.
func nullableBranch(s *jsonschema.Schema) (*jsonschema.Schema, bool) {
	for _, branches := range [][]*jsonschema.Schema{s.OneOf, s.AnyOf} {
		if len(branches) != 2 {
			continue
		}
		var nonNull *jsonschema.Schema
		sawNull := false
		for _, b := range branches {
			if b.Type == "null" {
				sawNull = true
				continue
			}
			nonNull = b
		}
		if sawNull && nonNull != nil {
			return nonNull, true
		}
	}
	return nil, false
}

// paramType maps a reflected JSON-schema type onto the closed
// ParamType set; anything outside string/integer/number/boolean/array/
// object is rejected rather than silently passed through.
func paramType(s *jsonschema.Schema) (agent.ParamType, error) {
	switch s.Type {
	case "string":
		return agent.TypeString, nil
	case "integer":
		return agent.TypeInteger, nil
	case "number":
		return agent.TypeNumber, nil
	case "boolean":
		return agent.TypeBoolean, nil
	case "array":
		return agent.TypeArray, nil
	case "object":
		return agent.TypeObject, nil
	default:
		return 0, fmt.Errorf("schema type %q is outside the closed parameter type set", s.Type)
	}
}
