/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package convert

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// Set resolves a converter per Go type. Explicit registrations win over the
// built-in converters. A Set is immutable once created and safe for
// concurrent use; resolved converters are cached.
type Set struct {
	naming NamingFunc
	custom map[reflect.Type]Converter
	cache  sync.Map
}

// NewSet creates a converter set. A nil naming function means LowerFirst.
func NewSet(naming NamingFunc, extra ...Converter) *Set {
	if naming == nil {
		naming = LowerFirst
	}
	s := &Set{naming: naming, custom: make(map[reflect.Type]Converter, len(extra))}
	for _, c := range extra {
		s.custom[c.Type()] = c
	}
	return s
}

// Naming returns the naming strategy used for nested struct fields.
func (s *Set) Naming() NamingFunc {
	return s.naming
}

// For returns the converter for t.
func (s *Set) For(t reflect.Type) (Converter, error) {
	if c, ok := s.custom[t]; ok {
		return c, nil
	}
	if c, ok := s.cache.Load(t); ok {
		return c.(Converter), nil
	}
	c, err := s.build(t)
	if err != nil {
		return nil, err
	}
	actual, _ := s.cache.LoadOrStore(t, c)
	return actual.(Converter), nil
}

func (s *Set) build(t reflect.Type) (Converter, error) {
	if t.Implements(optionalType) && reflect.PointerTo(t).Implements(assignType) {
		elem := reflect.Zero(t).Interface().(interface{ ElemType() reflect.Type }).ElemType()
		return &optionConverter{t: t, elem: elem, set: s}, nil
	}

	switch t {
	case decimalType:
		return decimalConverter{}, nil
	case timeType:
		return timeConverter{}, nil
	case dateTimeType:
		return dateTimeConverter{}, nil
	}

	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return kindConverter{t: t}, nil
	case reflect.Pointer:
		return &pointerConverter{t: t, set: s}, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return bytesConverter{t: t}, nil
		}
		return &sliceConverter{t: t, set: s}, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("convert: map key of %s must be a string kind", t)
		}
		return &mapConverter{t: t, set: s}, nil
	case reflect.Struct:
		return newStructConverter(t, s), nil
	}
	return nil, fmt.Errorf("convert: no converter for %s", t)
}

// EncodeAs encodes v as a value of type t. It is used for query values, which
// callers may supply as the element type of an option, pointer or slice
// property, or as a numeric literal of a different width.
func (s *Set) EncodeAs(t reflect.Type, v any) (types.AttributeValue, error) {
	if v == nil {
		return Null(), nil
	}
	if av, ok := v.(types.AttributeValue); ok {
		return av, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == t {
		c, err := s.For(t)
		if err != nil {
			return nil, err
		}
		return c.Encode(rv)
	}

	var elem reflect.Type
	switch {
	case t.Implements(optionalType):
		elem = reflect.Zero(t).Interface().(interface{ ElemType() reflect.Type }).ElemType()
	case t.Kind() == reflect.Pointer, t.Kind() == reflect.Slice && t != bytesType && t.Elem().Kind() != reflect.Uint8:
		elem = t.Elem()
	}
	if elem != nil {
		if o, ok := v.(interface{ Present() bool }); ok && !o.Present() {
			return Null(), nil
		}
		if inner, ok := v.(interface{ Interface() any }); ok && rv.Type().Implements(optionalType) {
			return s.EncodeAs(elem, inner.Interface())
		}
		return s.EncodeAs(elem, v)
	}

	if t == decimalType {
		if d, ok := toDecimal(v); ok {
			return decimalConverter{}.Encode(reflect.ValueOf(d))
		}
	}
	if compatible(rv.Type(), t) {
		c, err := s.For(t)
		if err != nil {
			return nil, err
		}
		return c.Encode(rv.Convert(t))
	}
	return nil, fmt.Errorf("convert: cannot use %T as %s", v, t)
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	}
	return decimal.Decimal{}, false
}

func compatible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	return kindClass(from.Kind()) != 0 && kindClass(from.Kind()) == kindClass(to.Kind())
}

func kindClass(k reflect.Kind) int {
	switch k {
	case reflect.String:
		return 1
	case reflect.Bool:
		return 2
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 3
	}
	return 0
}
