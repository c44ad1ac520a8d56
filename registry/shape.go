/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"

	"github.com/suparena/entitymapper/convert"
	"github.com/suparena/entitymapper/errors"
	"github.com/suparena/entitymapper/storagemodels"
)

// PropertyMapping describes one stored property of an entity.
type PropertyMapping struct {
	// Logical is the Go field name used by filters.
	Logical string
	// Physical is the field name in stored documents.
	Physical string
	// ExcludeFromIndexes is written next to every stored value of the property.
	ExcludeFromIndexes bool
	// Type is the Go type of the field.
	Type      reflect.Type
	Converter convert.Converter

	index []int
}

// shape is the document layout of one concrete struct type.
type shape struct {
	typ   reflect.Type // struct type
	ptr   bool         // values are held as *typ
	name  string       // discriminator value
	key   []int
	keyOf string // logical name of the key field
	props []*PropertyMapping

	byLogical  map[string]*PropertyMapping
	byPhysical map[string]*PropertyMapping
}

type override struct {
	physical string
	exclude  bool
	ignore   bool
}

// shapeConfig carries the builder settings needed to lay out any struct type.
type shapeConfig struct {
	keyName       string
	overrides     map[string]*override
	infer         bool
	naming        convert.NamingFunc
	converters    *convert.Set
	discriminator string
	// strict reports declared overrides that name no field.
	strict bool
}

var keyAliases = []string{"ID", "Id"}

func buildShape(t reflect.Type, ptr bool, name string, cfg *shapeConfig) (*shape, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", errors.ErrInvalidMapping, t)
	}
	s := &shape{
		typ:        t,
		ptr:        ptr,
		name:       name,
		byLogical:  make(map[string]*PropertyMapping),
		byPhysical: make(map[string]*PropertyMapping),
	}

	fields := storableFields(t)
	keyField, err := findKey(t, fields, cfg.keyName)
	if err != nil {
		return nil, err
	}
	s.key = keyField.Index
	s.keyOf = keyField.Name

	seen := make(map[string]bool)
	for _, f := range fields {
		if f.Name == keyField.Name {
			continue
		}
		seen[f.Name] = true
		tag := convert.ParseTag(f.Tag)
		ov := cfg.overrides[f.Name]
		if tag.Skip || (ov != nil && ov.ignore) {
			continue
		}
		if ov == nil && tag.Name == "" && !tag.NoIndex && !cfg.infer {
			continue
		}

		physical := f.Name
		switch {
		case ov != nil && ov.physical != "":
			physical = ov.physical
		case tag.Name != "":
			physical = tag.Name
		case cfg.infer:
			physical = cfg.naming(f.Name)
		}

		if storagemodels.ReservedNames[physical] || physical == cfg.discriminator {
			return nil, fmt.Errorf("%w: %s.%s uses reserved field name %q", errors.ErrInvalidMapping, t.Name(), f.Name, physical)
		}
		if other, dup := s.byPhysical[physical]; dup {
			return nil, fmt.Errorf("%w: %s.%s and %s.%s both map to %q", errors.ErrInvalidMapping,
				t.Name(), other.Logical, t.Name(), f.Name, physical)
		}

		conv, err := cfg.converters.For(f.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", errors.ErrInvalidMapping, t.Name(), f.Name, err)
		}

		p := &PropertyMapping{
			Logical:            f.Name,
			Physical:           physical,
			ExcludeFromIndexes: tag.NoIndex || (ov != nil && ov.exclude),
			Type:               f.Type,
			Converter:          conv,
			index:              f.Index,
		}
		s.props = append(s.props, p)
		s.byLogical[p.Logical] = p
		s.byPhysical[p.Physical] = p
	}

	if cfg.strict {
		for name := range cfg.overrides {
			if !seen[name] && name != keyField.Name {
				return nil, fmt.Errorf("%w: %s has no field %q", errors.ErrInvalidMapping, t.Name(), name)
			}
		}
	}
	return s, nil
}

// storableFields returns exported fields, flattening embedded structs that are
// not reached through a pointer.
func storableFields(t reflect.Type) []reflect.StructField {
	var out []reflect.StructField
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && convert.ParseTag(f.Tag).Name == "" {
			continue
		}
		if throughPointer(t, f.Index) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func throughPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Pointer {
			return true
		}
		t = f.Type
	}
	return false
}

func findKey(t reflect.Type, fields []reflect.StructField, keyName string) (reflect.StructField, error) {
	var key *reflect.StructField
	switch {
	case keyName != "":
		for i := range fields {
			if fields[i].Name == keyName {
				key = &fields[i]
				break
			}
		}
	default:
		for i := range fields {
			if convert.ParseTag(fields[i].Tag).Key {
				key = &fields[i]
				break
			}
		}
		for _, alias := range keyAliases {
			if key != nil {
				break
			}
			for i := range fields {
				if fields[i].Name == alias {
					key = &fields[i]
					break
				}
			}
		}
	}

	if key == nil {
		if keyName != "" {
			return reflect.StructField{}, fmt.Errorf("%w: %s has no key field %q", errors.ErrInvalidMapping, t.Name(), keyName)
		}
		return reflect.StructField{}, fmt.Errorf("%w: %s has no key field", errors.ErrInvalidMapping, t.Name())
	}
	if key.Type.Kind() != reflect.String {
		return reflect.StructField{}, fmt.Errorf("%w: key %s.%s must be a string, got %s", errors.ErrInvalidMapping, t.Name(), key.Name, key.Type)
	}
	return *key, nil
}

// holder returns the struct value behind v, which is either the struct or a pointer to it.
func (s *shape) holder(v reflect.Value) (reflect.Value, error) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("nil %s", v.Type())
		}
		v = v.Elem()
	}
	return v, nil
}

func (s *shape) encode(v reflect.Value, kind string) (*storagemodels.Document, error) {
	sv, err := s.holder(v)
	if err != nil {
		return nil, err
	}
	doc := storagemodels.NewDocument(storagemodels.Key{Kind: kind, ID: sv.FieldByIndex(s.key).String()})
	for _, p := range s.props {
		av, err := p.Converter.Encode(sv.FieldByIndex(p.index))
		if err != nil {
			return nil, fmt.Errorf("encode %s.%s: %w", s.typ.Name(), p.Logical, err)
		}
		doc.Set(p.Physical, av, p.ExcludeFromIndexes)
	}
	return doc, nil
}

// decode builds a new value of the shape from migrated properties.
func (s *shape) decode(id string, props storagemodels.Properties) (reflect.Value, error) {
	sv := reflect.New(s.typ)
	elem := sv.Elem()
	elem.FieldByIndex(s.key).SetString(id)
	for _, p := range s.props {
		if err := p.Converter.Decode(props[p.Physical].Value, elem.FieldByIndex(p.index)); err != nil {
			return reflect.Value{}, fmt.Errorf("%s: %w", p.Physical, err)
		}
	}
	if s.ptr {
		return sv, nil
	}
	return elem, nil
}
