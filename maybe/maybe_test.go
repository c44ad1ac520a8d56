/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package maybe

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaybeBasics(t *testing.T) {
	s := Some(42)
	v, ok := s.Get()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.True(t, s.IsSome())
	assert.Equal(t, "Some(42)", s.String())

	n := None[int]()
	assert.True(t, n.IsNone())
	assert.Equal(t, 7, n.OrElse(7))
	assert.Equal(t, "None", n.String())

	var zero Maybe[string]
	assert.Equal(t, n.IsNone(), zero.IsNone(), "zero value is None")
}

func TestMaybeOptionalInterface(t *testing.T) {
	var m Maybe[string]
	var a Assignable = &m

	assert.Equal(t, reflect.TypeOf(""), a.ElemType())
	assert.Nil(t, a.Interface())

	require.NoError(t, a.Assign("hello"))
	assert.True(t, m.Present())
	assert.Equal(t, "hello", a.Interface())

	assert.Error(t, a.Assign(3))

	a.Clear()
	assert.False(t, m.Present())
	assert.Equal(t, "", m.Value())
}
