// Package tag fills zero-valued struct fields from `default:"..."` tags.
package tag

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/kochabx/stepviz/errors"
)

const maxDepth = 32

var (
	ErrTargetMustBePointer = errors.New(errors.CodeInvalidInput, "target must be a non-nil pointer to a struct")
	ErrMaxDepthExceeded    = errors.New(errors.CodeInvalidInput, "max recursion depth exceeded")
	ErrUnsupportedType     = errors.New(errors.CodeInvalidInput, "unsupported type")
)

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// Option configures ApplyDefaults.
type Option func(*walker)

// WithTagName reads defaults from a tag other than "default".
func WithTagName(name string) Option {
	return func(w *walker) {
		w.tagName = name
	}
}

// ApplyDefaults sets every zero field of the struct pointed to by target to
// the value of its default tag. Non-zero fields are left alone. Nested
// structs, pointers to structs and struct slice elements are walked.
//
//	type Server struct {
//	    Addr    string        `default:":8080"`
//	    Timeout time.Duration `default:"5s"`
//	}
func ApplyDefaults(target any, opts ...Option) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrTargetMustBePointer
	}

	w := &walker{tagName: "default"}
	for _, opt := range opts {
		opt(w)
	}
	return w.walkStruct(v.Elem(), "", 0)
}

type walker struct {
	tagName string
}

func (w *walker) walkStruct(v reflect.Value, path string, depth int) error {
	if depth >= maxDepth {
		return ErrMaxDepthExceeded
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		fieldPath := field.Name
		if path != "" {
			fieldPath = path + "." + field.Name
		}
		if err := w.walkField(fv, field.Tag.Get(w.tagName), fieldPath, depth); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) walkField(v reflect.Value, tagValue, path string, depth int) error {
	switch v.Kind() {
	case reflect.Struct:
		if tagValue != "" && v.IsZero() && reflect.PointerTo(v.Type()).Implements(textUnmarshalerType) {
			return w.set(v, tagValue, path)
		}
		return w.walkStruct(v, path, depth+1)

	case reflect.Pointer:
		if v.IsNil() {
			if tagValue == "" && v.Type().Elem().Kind() != reflect.Struct {
				return nil
			}
			v.Set(reflect.New(v.Type().Elem()))
		}
		return w.walkField(v.Elem(), tagValue, path, depth)

	case reflect.Slice:
		if v.Len() > 0 {
			for i := 0; i < v.Len(); i++ {
				elem := v.Index(i)
				if elem.Kind() == reflect.Pointer && !elem.IsNil() {
					elem = elem.Elem()
				}
				if elem.Kind() == reflect.Struct {
					if err := w.walkStruct(elem, fmt.Sprintf("%s[%d]", path, i), depth+1); err != nil {
						return err
					}
				}
			}
			return nil
		}
	}

	if tagValue == "" || !v.IsZero() {
		return nil
	}
	return w.set(v, tagValue, path)
}

func (w *walker) set(v reflect.Value, tagValue, path string) error {
	if err := parseValue(v, tagValue); err != nil {
		return &FieldError{Path: path, Kind: v.Kind(), Value: tagValue, Err: err}
	}
	return nil
}

// FieldError reports a default tag that could not be parsed into its field.
type FieldError struct {
	Path  string
	Kind  reflect.Kind
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q (%s): default %q: %v", e.Path, e.Kind, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
