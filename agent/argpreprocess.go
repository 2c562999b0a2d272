package agent

import (
	"encoding/json"
	"strings"
)

// preprocessArgs normalizes a tool call's raw JSON arguments before
// any attempt is made to decode them into a typed struct: repeated
// object keys, at any nesting level, are deduplicated with the first
// occurrence winning. This must be infallible — on anything that
// fails to parse as JSON, the input is returned unchanged and left
// for the decode step (and the retry policy) to reject.
//
// encoding/json's own Unmarshal keeps the *last* occurrence of a
// duplicate key, the opposite of what's required here, so this walks
// the token stream by hand instead of decoding into a map directly.
func preprocessArgs(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return raw
	}
	val, ok := dedupValue(tok, dec)
	if !ok {
		return raw
	}
	// Reject trailing garbage after the first JSON value.
	if dec.More() {
		return raw
	}

	out, err := json.Marshal(val)
	if err != nil {
		return raw
	}
	return string(out)
}

func dedupValue(tok json.Token, dec *json.Decoder) (any, bool) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return dedupObject(dec)
		case '[':
			return dedupArray(dec)
		default:
			return nil, false
		}
	default:
		return tok, true
	}
}

func dedupObject(dec *json.Decoder) (any, bool) {
	result := make(map[string]any)
	for {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		if delim, ok := keyTok.(json.Delim); ok && delim == '}' {
			return result, true
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		valTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		val, ok := dedupValue(valTok, dec)
		if !ok {
			return nil, false
		}
		if _, seen := result[key]; !seen {
			result[key] = val
		}
	}
}

func dedupArray(dec *json.Decoder) (any, bool) {
	result := []any{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		if delim, ok := tok.(json.Delim); ok && delim == ']' {
			return result, true
		}
		val, ok := dedupValue(tok, dec)
		if !ok {
			return nil, false
		}
		result = append(result, val)
	}
}
