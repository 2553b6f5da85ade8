package patch

import "sort"

// StepPatch is a sparse update of a step mapping keyed by field name.
type StepPatch map[string]Optional[any]

// FromFields builds a patch that sets every entry of fields. A nil value
// removes the key.
func FromFields(fields map[string]any) StepPatch {
	p := make(StepPatch, len(fields))
	for k, v := range fields {
		if v == nil {
			p[k] = Unset[any]()
			continue
		}
		p[k] = NewOptional(v)
	}
	return p
}

// HasChanges reports whether any field is set.
func (p StepPatch) HasChanges() bool {
	for _, o := range p {
		if o.IsSet() {
			return true
		}
	}
	return false
}

// Keys returns the set field names in sorted order.
func (p StepPatch) Keys() []string {
	keys := make([]string, 0, len(p))
	for k, o := range p {
		if o.IsSet() {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Apply merges the patch into dst in place. Unset fields are deleted.
func (p StepPatch) Apply(dst map[string]any) {
	for k, o := range p {
		switch {
		case o.HasValue():
			dst[k] = *o.Value()
		case o.IsUnset():
			delete(dst, k)
		}
	}
}
