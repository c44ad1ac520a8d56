/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package maybe provides an option type for entity properties that may be
// logically absent. The converter stores an absent value as NULL.
package maybe

import (
	"fmt"
	"reflect"
)

// Maybe holds either a value or nothing. The zero value is None.
type Maybe[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Maybe[T] {
	return Maybe[T]{value: v, ok: true}
}

// None returns an absent value.
func None[T any]() Maybe[T] {
	return Maybe[T]{}
}

// Get returns the value and whether it is present.
func (m Maybe[T]) Get() (T, bool) {
	return m.value, m.ok
}

// Value returns the value, or the zero value of T when absent.
func (m Maybe[T]) Value() T {
	return m.value
}

// IsSome reports whether a value is present.
func (m Maybe[T]) IsSome() bool { return m.ok }

// IsNone reports whether the value is absent.
func (m Maybe[T]) IsNone() bool { return !m.ok }

// OrElse returns the value if present, otherwise def.
func (m Maybe[T]) OrElse(def T) T {
	if m.ok {
		return m.value
	}
	return def
}

func (m Maybe[T]) String() string {
	if !m.ok {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", m.value)
}

// Optional is implemented by every Maybe instantiation. The converter uses it
// to handle option-typed fields without knowing T.
type Optional interface {
	Present() bool
	Interface() any
	ElemType() reflect.Type
}

// Assignable is implemented by *Maybe[T].
type Assignable interface {
	Optional
	Assign(v any) error
	Clear()
}

// Present reports whether a value is present.
func (m Maybe[T]) Present() bool { return m.ok }

// Interface returns the held value as any, or nil when absent.
func (m Maybe[T]) Interface() any {
	if !m.ok {
		return nil
	}
	return m.value
}

// ElemType returns the reflect.Type of T.
func (m Maybe[T]) ElemType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Assign sets the value. v must be assignable to T.
func (m *Maybe[T]) Assign(v any) error {
	tv, ok := v.(T)
	if !ok {
		var zero T
		return fmt.Errorf("maybe: cannot assign %T to Maybe[%T]", v, zero)
	}
	m.value = tv
	m.ok = true
	return nil
}

// Clear makes the value absent.
func (m *Maybe[T]) Clear() {
	var zero T
	m.value = zero
	m.ok = false
}
