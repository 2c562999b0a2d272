package node

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Metadata is an ordered string-keyed mapping to structured values
// (anything JSON-equivalent: nil, bool, number, string, []any, map[string]any).
//
// Insertion order is preserved so that templates and stores that render
// metadata deterministically produce stable output across runs.
type Metadata = *orderedmap.OrderedMap[string, any]

// NewMetadata returns an empty, ready-to-use Metadata.
func NewMetadata() Metadata {
	return orderedmap.New[string, any]()
}

// CloneMetadata returns a shallow copy of m, preserving key order.
// A nil m clones to an empty map.
func CloneMetadata(m Metadata) Metadata {
	clone := orderedmap.New[string, any]()
	if m == nil {
		return clone
	}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		clone.Set(pair.Key, pair.Value)
	}
	return clone
}

// MetadataEqual reports whether a and b hold the same keys mapped to
// equal values, regardless of order. The pipeline does not use it:
// pipeline equality is always by Node id.
func MetadataEqual(a, b Metadata) bool {
	if a == nil {
		a = NewMetadata()
	}
	if b == nil {
		b = NewMetadata()
	}
	if a.Len() != b.Len() {
		return false
	}
	for pair := a.Oldest(); pair != nil; pair = pair.Next() {
		v, ok := b.Get(pair.Key)
		if !ok || !jsonEqual(pair.Value, v) {
			return false
		}
	}
	return true
}

// jsonEqual compares two JSON-equivalent values structurally via their
// canonical JSON encoding. Good enough for test assertions; not used on
// any hot path.
func jsonEqual(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return errA == nil && errB == nil && string(ja) == string(jb)
	}
	return string(ja) == string(jb)
}
