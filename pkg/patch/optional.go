package patch

// Optional is one field of a sparse patch. It distinguishes three states:
//   - not set: the field is left alone (zero value)
//   - unset: the field is removed
//   - value: the field is replaced
type Optional[T any] struct {
	value *T
	set   bool
}

// NewOptional returns an Optional holding val.
func NewOptional[T any](val T) Optional[T] {
	return Optional[T]{value: &val, set: true}
}

// NewOptionalPtr returns an Optional holding *val, or an unset Optional
// when val is nil.
func NewOptionalPtr[T any](val *T) Optional[T] {
	if val == nil {
		return Unset[T]()
	}
	return Optional[T]{value: val, set: true}
}

// Unset returns an Optional that removes the field.
func Unset[T any]() Optional[T] {
	return Optional[T]{set: true}
}

// NotSet returns the zero Optional.
func NotSet[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) IsSet() bool {
	return o.set
}

// Value returns the held pointer, nil when unset or not set.
func (o Optional[T]) Value() *T {
	return o.value
}

func (o Optional[T]) IsUnset() bool {
	return o.set && o.value == nil
}

func (o Optional[T]) HasValue() bool {
	return o.set && o.value != nil
}
