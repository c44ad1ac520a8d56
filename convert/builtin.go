/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package convert

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/shopspring/decimal"

	"github.com/suparena/entitymapper/maybe"
)

// TimeLayout stores instants in UTC with a fixed fraction width so that the
// textual order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	decimalType  = reflect.TypeOf(decimal.Decimal{})
	timeType     = reflect.TypeOf(time.Time{})
	dateTimeType = reflect.TypeOf(strfmt.DateTime{})
	bytesType    = reflect.TypeOf([]byte(nil))
	optionalType = reflect.TypeOf((*maybe.Optional)(nil)).Elem()
	assignType   = reflect.TypeOf((*maybe.Assignable)(nil)).Elem()
)

// decimalConverter writes the canonical decimal text: '.' as the decimal
// point, no grouping, no exponent. Nothing here consults host formatting.
type decimalConverter struct{}

func (decimalConverter) Type() reflect.Type { return decimalType }

func (decimalConverter) Encode(v reflect.Value) (types.AttributeValue, error) {
	d := v.Interface().(decimal.Decimal)
	return &types.AttributeValueMemberN{Value: d.String()}, nil
}

func (decimalConverter) Decode(av types.AttributeValue, dst reflect.Value) error {
	var text string
	switch tv := av.(type) {
	case nil, *types.AttributeValueMemberNULL:
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	case *types.AttributeValueMemberN:
		text = tv.Value
	case *types.AttributeValueMemberS:
		text = tv.Value
	default:
		return mismatch("N", av, decimalType)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return fmt.Errorf("convert: decimal %q: %w", text, err)
	}
	dst.Set(reflect.ValueOf(d))
	return nil
}

type timeConverter struct{}

func (timeConverter) Type() reflect.Type { return timeType }

func (timeConverter) Encode(v reflect.Value) (types.AttributeValue, error) {
	t := v.Interface().(time.Time)
	return &types.AttributeValueMemberS{Value: t.UTC().Format(TimeLayout)}, nil
}

func (timeConverter) Decode(av types.AttributeValue, dst reflect.Value) error {
	if IsNull(av) {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return mismatch("S", av, timeType)
	}
	t, err := time.Parse(time.RFC3339Nano, s.Value)
	if err != nil {
		return fmt.Errorf("convert: time %q: %w", s.Value, err)
	}
	dst.Set(reflect.ValueOf(t))
	return nil
}

type dateTimeConverter struct{}

func (dateTimeConverter) Type() reflect.Type { return dateTimeType }

func (dateTimeConverter) Encode(v reflect.Value) (types.AttributeValue, error) {
	t := time.Time(v.Interface().(strfmt.DateTime))
	return &types.AttributeValueMemberS{Value: t.UTC().Format(TimeLayout)}, nil
}

func (dateTimeConverter) Decode(av types.AttributeValue, dst reflect.Value) error {
	if IsNull(av) {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return mismatch("S", av, dateTimeType)
	}
	dt, err := strfmt.ParseDateTime(s.Value)
	if err != nil {
		return fmt.Errorf("convert: date-time %q: %w", s.Value, err)
	}
	dst.Set(reflect.ValueOf(dt))
	return nil
}

// kindConverter handles the scalar kinds, including named types such as strfmt.UUID.
type kindConverter struct {
	t reflect.Type
}

func (c kindConverter) Type() reflect.Type { return c.t }

func (c kindConverter) Encode(v reflect.Value) (types.AttributeValue, error) {
	switch c.t.Kind() {
	case reflect.String:
		return &types.AttributeValueMemberS{Value: v.String()}, nil
	case reflect.Bool:
		return &types.AttributeValueMemberBOOL{Value: v.Bool()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(v.Int(), 10)}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &types.AttributeValueMemberN{Value: strconv.FormatUint(v.Uint(), 10)}, nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("convert: %v cannot be stored", f)
		}
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(f, 'g', -1, c.t.Bits())}, nil
	}
	return nil, fmt.Errorf("convert: unsupported kind %s", c.t.Kind())
}

func (c kindConverter) Decode(av types.AttributeValue, dst reflect.Value) error {
	if IsNull(av) {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	switch c.t.Kind() {
	case reflect.String:
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return mismatch("S", av, c.t)
		}
		dst.SetString(s.Value)
	case reflect.Bool:
		b, ok := av.(*types.AttributeValueMemberBOOL)
		if !ok {
			return mismatch("BOOL", av, c.t)
		}
		dst.SetBool(b.Value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := numberText(av, c.t)
		if err != nil {
			return err
		}
		i, err := strconv.ParseInt(n, 10, c.t.Bits())
		if err != nil {
			return fmt.Errorf("convert: %s: %w", c.t, err)
		}
		dst.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := numberText(av, c.t)
		if err != nil {
			return err
		}
		u, err := strconv.ParseUint(n, 10, c.t.Bits())
		if err != nil {
			return fmt.Errorf("convert: %s: %w", c.t, err)
		}
		dst.SetUint(u)
	case reflect.Float32, reflect.Float64:
		n, err := numberText(av, c.t)
		if err != nil {
			return err
		}
		f, err := strconv.ParseFloat(n, c.t.Bits())
		if err != nil {
			return fmt.Errorf("convert: %s: %w", c.t, err)
		}
		dst.SetFloat(f)
	default:
		return fmt.Errorf("convert: unsupported kind %s", c.t.Kind())
	}
	return nil
}

func numberText(av types.AttributeValue, t reflect.Type) (string, error) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return "", mismatch("N", av, t)
	}
	return n.Value, nil
}

type bytesConverter struct {
	t reflect.Type
}

func (c bytesConverter) Type() reflect.Type { return c.t }

func (c bytesConverter) Encode(v reflect.Value) (types.AttributeValue, error) {
	if v.IsNil() {
		return Null(), nil
	}
	return &types.AttributeValueMemberB{Value: append([]byte(nil), v.Bytes()...)}, nil
}

func (c bytesConverter) Decode(av types.AttributeValue, dst reflect.Value) error {
	if IsNull(av) {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	b, ok := av.(*types.AttributeValueMemberB)
	if !ok {
		return mismatch("B", av, c.t)
	}
	dst.SetBytes(append([]byte(nil), b.Value...))
	return nil
}

// optionConverter stores maybe.None as NULL and Some(v) as the encoding of v.
type optionConverter struct {
	t    reflect.Type
	elem reflect.Type
	set  *Set
}

func (c *optionConverter) Type() reflect.Type { return c.t }

func (c *optionConverter) Encode(v reflect.Value) (types.AttributeValue, error) {
	o := v.Interface().(maybe.Optional)
	if !o.Present() {
		return Null(), nil
	}
	ec, err := c.set.For(c.elem)
	if err != nil {
		return nil, err
	}
	inner := reflect.New(c.elem).Elem()
	inner.Set(reflect.ValueOf(o.Interface()))
	return ec.Encode(inner)
}

func (c *optionConverter) Decode(av types.AttributeValue, dst reflect.Value) error {
	a := dst.Addr().Interface().(maybe.Assignable)
	if IsNull(av) {
		a.Clear()
		return nil
	}
	ec, err := c.set.For(c.elem)
	if err != nil {
		return err
	}
	inner := reflect.New(c.elem).Elem()
	if err := ec.Decode(av, inner); err != nil {
		return err
	}
	return a.Assign(inner.Interface())
}

type pointerConverter struct {
	t   reflect.Type
	set *Set
}

func (c *pointerConverter) Type() reflect.Type { return c.t }

func (c *pointerConverter) Encode(v reflect.Value) (types.AttributeValue, error) {
	if v.IsNil() {
		return Null(), nil
	}
	ec, err := c.set.For(c.t.Elem())
	if err != nil {
		return nil, err
	}
	return ec.Encode(v.Elem())
}

func (c *pointerConverter) Decode(av types.AttributeValue, dst reflect.Value) error {
	if IsNull(av) {
		dst.Set(reflect.Zero(c.t))
		return nil
	}
	ec, err := c.set.For(c.t.Elem())
	if err != nil {
		return err
	}
	p := reflect.New(c.t.Elem())
	if err := ec.Decode(av, p.Elem()); err != nil {
		return err
	}
	dst.Set(p)
	return nil
}

type sliceConverter struct {
	t   reflect.Type
	set *Set
}

func (c *sliceConverter) Type() reflect.Type { return c.t }

func (c *sliceConverter) Encode(v reflect.Value) (types.AttributeValue, error) {
	if v.IsNil() {
		return Null(), nil
	}
	ec, err := c.set.For(c.t.Elem())
	if err != nil {
		return nil, err
	}
	items := make([]types.AttributeValue, v.Len())
	for i := range items {
		if items[i], err = ec.Encode(v.Index(i)); err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return &types.AttributeValueMemberL{Value: items}, nil
}

func (c *sliceConverter) Decode(av types.AttributeValue, dst reflect.Value) error {
	if IsNull(av) {
		dst.Set(reflect.Zero(c.t))
		return nil
	}
	l, ok := av.(*types.AttributeValueMemberL)
	if !ok {
		return mismatch("L", av, c.t)
	}
	ec, err := c.set.For(c.t.Elem())
	if err != nil {
		return err
	}
	out := reflect.MakeSlice(c.t, len(l.Value), len(l.Value))
	for i, item := range l.Value {
		if err := ec.Decode(item, out.Index(i)); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	dst.Set(out)
	return nil
}

type mapConverter struct {
	t   reflect.Type
	set *Set
}

func (c *mapConverter) Type() reflect.Type { return c.t }

func (c *mapConverter) Encode(v reflect.Value) (types.AttributeValue, error) {
	if v.IsNil() {
		return Null(), nil
	}
	ec, err := c.set.For(c.t.Elem())
	if err != nil {
		return nil, err
	}
	m := make(map[string]types.AttributeValue, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		if m[k], err = ec.Encode(iter.Value()); err != nil {
			return nil, fmt.Errorf("[%q]: %w", k, err)
		}
	}
	return &types.AttributeValueMemberM{Value: m}, nil
}

func (c *mapConverter) Decode(av types.AttributeValue, dst reflect.Value) error {
	if IsNull(av) {
		dst.Set(reflect.Zero(c.t))
		return nil
	}
	m, ok := av.(*types.AttributeValueMemberM)
	if !ok {
		return mismatch("M", av, c.t)
	}
	ec, err := c.set.For(c.t.Elem())
	if err != nil {
		return err
	}
	out := reflect.MakeMapWithSize(c.t, len(m.Value))
	for k, item := range m.Value {
		val := reflect.New(c.t.Elem()).Elem()
		if err := ec.Decode(item, val); err != nil {
			return fmt.Errorf("[%q]: %w", k, err)
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(c.t.Key()), val)
	}
	dst.Set(out)
	return nil
}

// structConverter stores nested structs as maps. Field names follow the
// store tag, then the naming strategy of the owning Set.
type structConverter struct {
	t      reflect.Type
	set    *Set
	fields []structField
}

type structField struct {
	index int
	name  string
}

func newStructConverter(t reflect.Type, set *Set) *structConverter {
	c := &structConverter{t: t, set: set}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := ParseTag(f.Tag)
		if tag.Skip {
			continue
		}
		name := tag.Name
		if name == "" {
			name = set.naming(f.Name)
		}
		c.fields = append(c.fields, structField{index: i, name: name})
	}
	return c
}

func (c *structConverter) Type() reflect.Type { return c.t }

func (c *structConverter) Encode(v reflect.Value) (types.AttributeValue, error) {
	m := make(map[string]types.AttributeValue, len(c.fields))
	for _, f := range c.fields {
		fv := v.Field(f.index)
		fc, err := c.set.For(fv.Type())
		if err != nil {
			return nil, err
		}
		if m[f.name], err = fc.Encode(fv); err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return &types.AttributeValueMemberM{Value: m}, nil
}

func (c *structConverter) Decode(av types.AttributeValue, dst reflect.Value) error {
	if IsNull(av) {
		dst.Set(reflect.Zero(c.t))
		return nil
	}
	m, ok := av.(*types.AttributeValueMemberM)
	if !ok {
		return mismatch("M", av, c.t)
	}
	out := reflect.New(c.t).Elem()
	for _, f := range c.fields {
		item, present := m.Value[f.name]
		if !present {
			continue
		}
		fv := out.Field(f.index)
		fc, err := c.set.For(fv.Type())
		if err != nil {
			return err
		}
		if err := fc.Decode(item, fv); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	dst.Set(out)
	return nil
}
