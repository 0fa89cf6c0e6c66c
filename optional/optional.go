// Package optional models a value that may or may not have been declared.
// The zero Value is None, which lets structs decoded from JSON or YAML tell
// "absent" apart from "present with the zero value".
package optional

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Value holds either one value of type T or nothing.
type Value[T any] struct {
	value T
	isSet bool
}

// Some creates a Value containing the given value.
func Some[T any](value T) Value[T] {
	return Value[T]{value: value, isSet: true}
}

// None creates an empty Value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// NonEmpty returns true if the Value contains a value.
func (o Value[T]) NonEmpty() bool {
	return o.isSet
}

// Empty returns true if the Value does not contain a value.
func (o Value[T]) Empty() bool {
	return !o.isSet
}

// Get returns the value and whether it is present.
func (o Value[T]) Get() (T, bool) {
	return o.value, o.isSet
}

// OrElse returns this Value if it is set, otherwise the alternative.
func (o Value[T]) OrElse(alternative Value[T]) Value[T] {
	if o.isSet {
		return o
	}

	return alternative
}

// ForEach calls f with the value if present.
func (o Value[T]) ForEach(f func(T)) {
	if o.isSet {
		f(o.value)
	}
}

// IsZero lets yaml.v3 and encoding/json (omitzero) skip unset values.
func (o Value[T]) IsZero() bool {
	return !o.isSet
}

func (o Value[T]) String() string {
	if o.isSet {
		return fmt.Sprintf("Some(%v)", o.value)
	}

	return "None"
}

// MarshalJSON encodes Some(v) as v and None as null.
func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.isSet {
		return []byte("null"), nil
	}

	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as None and anything else as Some.
func (o *Value[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None[T]()

		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*o = Some(v)

	return nil
}

// MarshalYAML encodes Some(v) as v and None as null.
func (o Value[T]) MarshalYAML() (any, error) {
	if !o.isSet {
		return nil, nil //nolint:nilnil
	}

	return o.value, nil
}

// UnmarshalYAML decodes an explicit null as None and anything else as Some.
// A key that is missing entirely never reaches this method and stays None.
func (o *Value[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		*o = None[T]()

		return nil
	}

	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}

	*o = Some(v)

	return nil
}
