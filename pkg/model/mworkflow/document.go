//nolint:revive // exported
package mworkflow

// Kind tags a workflow document.
type Kind string

const (
	KindModule Kind = "module"
	KindFlow   Kind = "flow"
)

// ParseKind maps the raw `kind` value onto a Kind. Anything that is not
// exactly "flow" is a module document.
func ParseKind(v any) Kind {
	if s, ok := v.(string); ok && s == string(KindFlow) {
		return KindFlow
	}
	return KindModule
}

// Document is a deserialized workflow document. It is kept as a generic
// mapping so partial edits and re-serialization never drop fields the
// compiler does not model.
type Document map[string]any

// Kind reports the document kind.
func (d Document) Kind() Kind {
	if d == nil {
		return KindModule
	}
	return ParseKind(d["kind"])
}

// Name returns the document name, or "" when absent or not a string.
func (d Document) Name() string {
	s, _ := d["name"].(string)
	return s
}

// Description returns the document description, or "".
func (d Document) Description() string {
	s, _ := d["description"].(string)
	return s
}

// Clone returns a deep copy of the document. Nested mappings and sequences
// are copied; scalar values are shared.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(CloneMap(d))
}

// CloneMap deep-copies a generic mapping.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies mappings and sequences inside v.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case Document:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}
