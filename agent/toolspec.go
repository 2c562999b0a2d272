package agent

// ParamType is the closed set of argument types a tool may advertise.
// Anything outside this set is rejected at schema-construction time.
type ParamType int

const (
	TypeString ParamType = iota
	TypeInteger
	TypeNumber
	TypeBoolean
	TypeArray
	TypeObject
)

func (t ParamType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// ParamSpec describes one argument (or, recursively, one field of an
// object argument, or the element type of an array argument).
type ParamSpec struct {
	Name        string
	Description string
	Type        ParamType
	Required    bool
	Nullable    bool

	// Items describes the element type when Type is TypeArray.
	Items *ParamSpec
	// Properties describes the fields when Type is TypeObject.
	Properties []ParamSpec
}

// ToolSpec is a tool's machine-readable, LLM-facing description: a
// name, a natural-language description, and its parameter schema.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  []ParamSpec
}
