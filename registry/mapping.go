/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entitymapper/convert"
	"github.com/suparena/entitymapper/errors"
	"github.com/suparena/entitymapper/storagemodels"
)

// DefaultDiscriminator is the property naming the concrete type of documents
// stored through an interface mapping.
const DefaultDiscriminator = "_type"

// EntityMapping is the frozen descriptor of one entity type. It is produced by
// Builder.Build and never changes afterwards.
type EntityMapping struct {
	typ      reflect.Type
	kind     string
	root     *shape
	cfg      *shapeConfig
	pipeline *convert.Pipeline
	concrete func(reflect.Value) reflect.Value
	registry *Registry

	// polymorphic mappings only
	polymorphic   bool
	discriminator string
	variants      sync.Map // reflect.Type (struct) -> *shape
	variantNames  sync.Map // discriminator value -> *shape
}

// Type returns the Go type the mapping was built for.
func (m *EntityMapping) Type() reflect.Type { return m.typ }

// Kind returns the collection name used in keys and queries.
func (m *EntityMapping) Kind() string { return m.kind }

// Polymorphic reports whether the mapping stores several concrete types under
// one interface.
func (m *EntityMapping) Polymorphic() bool { return m.polymorphic }

// Discriminator returns the property holding the concrete type name, or "" for
// non-polymorphic mappings.
func (m *EntityMapping) Discriminator() string { return m.discriminator }

// KeyName returns the logical name of the key field.
func (m *EntityMapping) KeyName() string { return m.root.keyOf }

// Properties returns the stored properties in field order. For interface
// mappings these are the properties of the default concrete type.
func (m *EntityMapping) Properties() []*PropertyMapping {
	return append([]*PropertyMapping(nil), m.root.props...)
}

// Property returns the mapping of a logical property.
func (m *EntityMapping) Property(logical string) (*PropertyMapping, bool) {
	p, ok := m.root.byLogical[logical]
	return p, ok
}

// PropertyByField returns the mapping of a physical field.
func (m *EntityMapping) PropertyByField(physical string) (*PropertyMapping, bool) {
	p, ok := m.root.byPhysical[physical]
	return p, ok
}

// Converters returns the converter set used by the mapping.
func (m *EntityMapping) Converters() *convert.Set { return m.cfg.converters }

// Migrations returns the migration pipeline applied on decode.
func (m *EntityMapping) Migrations() *convert.Pipeline { return m.pipeline }

// FieldName resolves a logical property name to its physical field name.
// The key field resolves to storagemodels.KeyField.
func (m *EntityMapping) FieldName(logical string) (string, error) {
	if logical == m.root.keyOf {
		return storagemodels.KeyField, nil
	}
	if p, ok := m.root.byLogical[logical]; ok {
		return p.Physical, nil
	}
	return "", errors.NewResolutionError(m.kind, logical)
}

// EncodeField encodes a filter value for a physical field using the
// converter of the property that owns it.
func (m *EntityMapping) EncodeField(physical string, v any) (types.AttributeValue, error) {
	if physical == storagemodels.KeyField {
		return m.cfg.converters.EncodeAs(m.root.typ.FieldByIndex(m.root.key).Type, v)
	}
	if physical == m.discriminator && m.polymorphic {
		return m.cfg.converters.EncodeAs(reflect.TypeOf(""), v)
	}
	p, ok := m.root.byPhysical[physical]
	if !ok {
		return nil, fmt.Errorf("%s has no field %q", m.kind, physical)
	}
	return m.cfg.converters.EncodeAs(p.Type, v)
}

// shapeOf selects the layout for a value of the mapping's type.
func (m *EntityMapping) shapeOf(v reflect.Value) (*shape, reflect.Value, error) {
	if !m.polymorphic {
		return m.root, v, nil
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, v, fmt.Errorf("nil %s", m.typ)
		}
		v = v.Elem()
	}
	s, err := m.variantFor(v.Type())
	return s, v, err
}

func (m *EntityMapping) variantFor(dyn reflect.Type) (*shape, error) {
	ptr := dyn.Kind() == reflect.Pointer
	st := dyn
	if ptr {
		st = dyn.Elem()
	}
	if st == m.root.typ && ptr == m.root.ptr {
		return m.root, nil
	}
	if s, ok := m.variants.Load(dyn); ok {
		return s.(*shape), nil
	}

	var s *shape
	if reg, err := m.registry.Lookup(st); err == nil && !reg.polymorphic {
		cp := *reg.root
		cp.ptr = ptr
		cp.name = reg.kind
		s = &cp
	} else {
		built, err := buildShape(st, ptr, st.Name(), m.cfg.lenient())
		if err != nil {
			return nil, err
		}
		s = built
	}
	actual, _ := m.variants.LoadOrStore(dyn, s)
	s = actual.(*shape)
	m.variantNames.LoadOrStore(s.name, s)
	return s, nil
}

// variantNamed finds the layout for a stored discriminator value. Unknown
// names fall back to the default concrete type.
func (m *EntityMapping) variantNamed(name string) *shape {
	if name == "" || name == m.root.name {
		return m.root
	}
	if s, ok := m.variantNames.Load(name); ok {
		return s.(*shape)
	}
	reg, ok := m.registry.ByKind(name)
	if !ok || reg.polymorphic {
		return m.root
	}
	var dyn reflect.Type
	switch {
	case reg.typ.Implements(m.typ):
		dyn = reg.typ
	case reflect.PointerTo(reg.typ).Implements(m.typ):
		dyn = reflect.PointerTo(reg.typ)
	default:
		return m.root
	}
	s, err := m.variantFor(dyn)
	if err != nil {
		return m.root
	}
	return s
}

// Encode turns an entity into a document. v must hold a value of the
// mapping's type.
func (m *EntityMapping) Encode(v reflect.Value) (*storagemodels.Document, error) {
	s, cv, err := m.shapeOf(v)
	if err != nil {
		return nil, err
	}
	doc, err := s.encode(cv, m.kind)
	if err != nil {
		return nil, err
	}
	if m.polymorphic {
		doc.Set(m.discriminator, &types.AttributeValueMemberS{Value: s.name}, false)
	}
	return doc, nil
}

// Decode turns a stored document into a value of the mapping's type. It runs
// the migration pipeline, selects the concrete type of polymorphic documents
// and applies the concrete resolution function.
func (m *EntityMapping) Decode(doc *storagemodels.Document) (reflect.Value, error) {
	props, err := m.pipeline.Apply(doc.Properties)
	if err != nil {
		return reflect.Value{}, errors.NewDecodeError(doc.Key, err)
	}

	s := m.root
	if m.polymorphic {
		var name string
		if tag, ok := props[m.discriminator].Value.(*types.AttributeValueMemberS); ok {
			name = tag.Value
		}
		s = m.variantNamed(name)
	}

	cv, err := s.decode(doc.Key.ID, props)
	if err != nil {
		return reflect.Value{}, errors.NewDecodeError(doc.Key, err)
	}

	out := reflect.New(m.typ).Elem()
	out.Set(cv)
	if m.concrete != nil {
		out = m.concrete(out)
	}
	return out, nil
}

// KeyOf returns the key ID held by an entity value; "" means unkeyed.
func (m *EntityMapping) KeyOf(v reflect.Value) (string, error) {
	s, cv, err := m.shapeOf(v)
	if err != nil {
		return "", err
	}
	sv, err := s.holder(cv)
	if err != nil {
		return "", err
	}
	return sv.FieldByIndex(s.key).String(), nil
}

// SetKey writes a key ID into the entity behind ptr, a pointer to the
// mapping's type. Interface values holding a struct are replaced by an updated copy.
func (m *EntityMapping) SetKey(ptr reflect.Value, id string) error {
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("SetKey needs a non-nil pointer, got %s", ptr.Type())
	}
	target := ptr.Elem()
	s, cv, err := m.shapeOf(target)
	if err != nil {
		return err
	}
	if cv.Kind() == reflect.Pointer {
		if cv.IsNil() {
			return fmt.Errorf("nil %s", cv.Type())
		}
		cv.Elem().FieldByIndex(s.key).SetString(id)
		return nil
	}
	if target.Kind() == reflect.Interface {
		cp := reflect.New(cv.Type()).Elem()
		cp.Set(cv)
		cp.FieldByIndex(s.key).SetString(id)
		target.Set(cp)
		return nil
	}
	target.FieldByIndex(s.key).SetString(id)
	return nil
}

func (c *shapeConfig) lenient() *shapeConfig {
	cp := *c
	cp.strict = false
	cp.infer = true
	return &cp
}
