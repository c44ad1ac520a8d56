/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package convert

import (
	"fmt"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Converter encodes values of one Go type to stored attribute values and back.
//
// Decode receives a settable destination. A nil or NULL attribute value must
// leave dst holding the zero value (or None for option types).
type Converter interface {
	Type() reflect.Type
	Encode(v reflect.Value) (types.AttributeValue, error)
	Decode(av types.AttributeValue, dst reflect.Value) error
}

type funcConverter[T any] struct {
	enc func(T) (types.AttributeValue, error)
	dec func(types.AttributeValue) (T, error)
}

// New builds a converter for T from a pair of functions.
func New[T any](enc func(T) (types.AttributeValue, error), dec func(types.AttributeValue) (T, error)) Converter {
	return &funcConverter[T]{enc: enc, dec: dec}
}

func (c *funcConverter[T]) Type() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (c *funcConverter[T]) Encode(v reflect.Value) (types.AttributeValue, error) {
	t, ok := v.Interface().(T)
	if !ok {
		return nil, fmt.Errorf("convert: expected %s, got %s", c.Type(), v.Type())
	}
	return c.enc(t)
}

func (c *funcConverter[T]) Decode(av types.AttributeValue, dst reflect.Value) error {
	if IsNull(av) {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	t, err := c.dec(av)
	if err != nil {
		return err
	}
	dst.Set(reflect.ValueOf(&t).Elem())
	return nil
}

// Null is the stored marker for absent values.
func Null() types.AttributeValue {
	return &types.AttributeValueMemberNULL{Value: true}
}

// IsNull reports whether av is missing or the NULL marker.
func IsNull(av types.AttributeValue) bool {
	if av == nil {
		return true
	}
	_, ok := av.(*types.AttributeValueMemberNULL)
	return ok
}

func mismatch(want string, av types.AttributeValue, t reflect.Type) error {
	return fmt.Errorf("convert: cannot decode %T into %s, want %s", av, t, want)
}
