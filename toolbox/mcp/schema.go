package mcp

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/loomctl/loom/agent"
)

// paramsFromInputSchema converts an MCP tool's JSON-schema input
// description into the closed ParamSpec set agent.ToolSpec advertises,
// the same restriction tool.paramsFromType applies to reflected Go
// structs. A server is free to advertise a richer schema than this
// set supports; a top-level field that doesn't fit is reported as an
// error so the caller can decide whether to drop it, while nested
// object fields and array item schemas that don't fit are dropped
// without an error.
func paramsFromInputSchema(schema mcp.ToolInputSchema) ([]agent.ParamSpec, error) {
	if len(schema.Properties) == 0 {
		return nil, nil
	}
	required := make(map[string]bool, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = true
	}

	var params []agent.ParamSpec
	for name, raw := range schema.Properties {
		spec, err := paramSpecFromRaw(name, raw)
		if err != nil {
			return nil, err
		}
		spec.Required = required[name]
		params = append(params, spec)
	}
	return params, nil
}

func paramSpecFromRaw(name string, raw any) (agent.ParamSpec, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return agent.ParamSpec{}, fmt.Errorf("field %q: unexpected schema shape %T", name, raw)
	}
	m, nullable := splitNullable(m)

	typ, _ := m["type"].(string)
	pt, err := paramTypeFromString(typ)
	if err != nil {
		return agent.ParamSpec{}, fmt.Errorf("field %q: %w", name, err)
	}

	desc, _ := m["description"].(string)
	spec := agent.ParamSpec{Name: name, Description: desc, Type: pt, Nullable: nullable}

	switch pt {
	case agent.TypeArray:
		if items, ok := m["items"].(map[string]any); ok {
			if item, err := paramSpecFromRaw(name+"[]", items); err == nil {
				spec.Items = &item
			}
		}
	case agent.TypeObject:
		if props, ok := m["properties"].(map[string]any); ok {
			nestedRequired := map[string]bool{}
			if reqs, ok := m["required"].([]any); ok {
				for _, r := range reqs {
					if s, ok := r.(string); ok {
						nestedRequired[s] = true
					}
				}
			}
			for pname, praw := range props {
				pspec, err := paramSpecFromRaw(pname, praw)
				if err != nil {
					continue
				}
				pspec.Required = nestedRequired[pname]
				spec.Properties = append(spec.Properties, pspec)
			}
		}
	}
	return spec, nil
}

// splitNullable recognizes a JSON-Schema null union — either the
// `"type": ["T", "null"]` array form, or a "oneOf"/"anyOf" with
// exactly one "null" member alongside the real type — and returns the
// effective schema to treat as the field's base type plus whether it
// was a union. Everything else passes through unchanged.
func splitNullable(m map[string]any) (map[string]any, bool) {
	if arr, ok := m["type"].([]any); ok {
		if effective, ok := splitNullableTypeArray(m, arr); ok {
			return effective, true
		}
	}
	for _, key := range []string{"oneOf", "anyOf"} {
		if branches, ok := m[key].([]any); ok {
			if effective, ok := splitNullableBranches(m, branches); ok {
				return effective, true
			}
		}
	}
	return m, false
}

func splitNullableTypeArray(m map[string]any, arr []any) (map[string]any, bool) {
	var nonNull string
	sawNull := false
	for _, v := range arr {
		s, _ := v.(string)
		if s == "null" {
			sawNull = true
			continue
		}
		if s != "" {
			nonNull = s
		}
	}
	if !sawNull || nonNull == "" {
		return nil, false
	}
	effective := make(map[string]any, len(m))
	for k, v := range m {
		effective[k] = v
	}
	effective["type"] = nonNull
	return effective, true
}

func splitNullableBranches(m map[string]any, branches []any) (map[string]any, bool) {
	if len(branches) != 2 {
		return nil, false
	}
	var nonNull map[string]any
	sawNull := false
	for _, b := range branches {
		bm, ok := b.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := bm["type"].(string); t == "null" {
			sawNull = true
			continue
		}
		nonNull = bm
	}
	if !sawNull || nonNull == nil {
		return nil, false
	}
	effective := make(map[string]any, len(nonNull)+1)
	for k, v := range nonNull {
		effective[k] = v
	}
	if _, ok := effective["description"]; !ok {
		if d, ok := m["description"]; ok {
			effective["description"] = d
		}
	}
	return effective, true
}

func paramTypeFromString(s string) (agent.ParamType, error) {
	switch s {
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
		return 0, fmt.Errorf("schema type %q is outside the closed parameter type set", s)
	}
}
