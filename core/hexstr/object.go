package hexstr

import (
	"maps"
	"slices"

	"github.com/kochabx/stepviz/errors"
)

// Object is a named group of hex strings converted together. The field set
// is fixed when the object is built.
type Object struct {
	fields map[string]HexString
}

// NewObject builds an Object over a copy of fields.
func NewObject(fields map[string]HexString) Object {
	return Object{fields: maps.Clone(fields)}
}

// ParseObject parses every raw value. Fields that fail are left out of the
// object and reported in the returned map, keyed by field name.
func ParseObject(raw map[string]string) (Object, map[string]error) {
	fields := make(map[string]HexString, len(raw))
	var failed map[string]error
	for name, value := range raw {
		h, err := Parse(value)
		if err != nil {
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[name] = err
			continue
		}
		fields[name] = h
	}
	return Object{fields: fields}, failed
}

// Fields returns the field names in sorted order.
func (o Object) Fields() []string {
	return slices.Sorted(maps.Keys(o.fields))
}

// Get returns the named field.
func (o Object) Get(name string) (HexString, bool) {
	h, ok := o.fields[name]
	return h, ok
}

// Len returns the number of fields.
func (o Object) Len() int {
	return len(o.fields)
}

// ConvertObject converts every field of o independently. A failing field
// never affects the result of another.
func ConvertObject[T Element](o Object, length int) map[string]errors.Result[[]T] {
	out := make(map[string]errors.Result[[]T], len(o.fields))
	for name, h := range o.fields {
		v, err := ToFixedWidth[T](h, length)
		out[name] = errors.Of(v, err)
	}
	return out
}

func (o Object) ToBytes(length int) map[string]errors.Result[[]uint8] {
	return ConvertObject[uint8](o, length)
}

func (o Object) ToHalfwords(length int) map[string]errors.Result[[]uint16] {
	return ConvertObject[uint16](o, length)
}

func (o Object) ToWords(length int) map[string]errors.Result[[]uint32] {
	return ConvertObject[uint32](o, length)
}

// Failed returns the sorted names of the fields whose conversion failed.
func Failed[T any](results map[string]errors.Result[T]) []string {
	var names []string
	for name, r := range results {
		if !r.Success {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
