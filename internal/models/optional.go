package models

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes an absent field, an explicit null and a value.
// The zero value is absent; pair it with the omitzero tag option.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present reports whether a non-null value was supplied.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

func (o Optional[T]) IsZero() bool {
	return !o.Set
}

// Ptr returns the value as a pointer, nil when absent or null.
func (o Optional[T]) Ptr() *T {
	if !o.Present() {
		return nil
	}
	v := o.Value
	return &v
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}
