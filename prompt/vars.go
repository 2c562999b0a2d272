package prompt

import "regexp"

// exprVarRe picks out the leading identifier of a {{ expr }} or
// {% if expr %} expression: the root variable name before any filter
// pipe, attribute access, or comparison.
var exprVarRe = regexp.MustCompile(`{{-?\s*([A-Za-z_][A-Za-z0-9_]*)`)
var ifVarRe = regexp.MustCompile(`{%-?\s*if\s+([A-Za-z_][A-Za-z0-9_]*)`)
var forRe = regexp.MustCompile(`{%-?\s*for\s+([A-Za-z_][A-Za-z0-9_]*)(?:\s*,\s*([A-Za-z_][A-Za-z0-9_]*))?\s+in\s+([A-Za-z_][A-Za-z0-9_]*)`)

// builtins are names that are never bindings: loop metadata and
// literal keywords that can appear where a variable would.
var builtins = map[string]bool{
	"loop": true, "true": true, "false": true, "none": true, "nil": true,
}

// firstMissingVariable returns the name of the first top-level
// variable referenced by src that is absent from bindings, or "" if
// every referenced variable is bound. For-loop targets are treated as
// locally scoped and excluded from the requirement; the loop's source
// expression itself must still be bound.
//
// This is a best-effort static scan, not a full parse: it is
// sufficient for the substitution/for/if subset spec.md names, and
// errs on the side of under-reporting rather than rejecting valid
// templates it cannot fully parse.
func firstMissingVariable(src string, bindings map[string]any) string {
	local := map[string]bool{}
	required := []string{}

	for _, m := range forRe.FindAllStringSubmatch(src, -1) {
		local[m[1]] = true
		if m[2] != "" {
			local[m[2]] = true
		}
		required = append(required, m[3])
	}
	for _, m := range exprVarRe.FindAllStringSubmatch(src, -1) {
		required = append(required, m[1])
	}
	for _, m := range ifVarRe.FindAllStringSubmatch(src, -1) {
		required = append(required, m[1])
	}

	for _, name := range required {
		if local[name] || builtins[name] {
			continue
		}
		if _, ok := bindings[name]; !ok {
			return name
		}
	}
	return ""
}

// hasTemplateMarkers reports whether src contains any Jinja-style
// marker ({{ }}, {% %}), used by Prompt's literal short-circuit.
func hasTemplateMarkers(src string) bool {
	return markerRe.MatchString(src)
}

var markerRe = regexp.MustCompile(`{{|{%`)
