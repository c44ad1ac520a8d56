/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"

	"github.com/suparena/entitymapper/convert"
	"github.com/suparena/entitymapper/errors"
)

// Builder configures the mapping of T. Calls are applied in order and the
// mapping is frozen by Build. A Builder must not be used after Build.
type Builder[T any] struct {
	reg        *Registry
	typ        reflect.Type
	concrete   reflect.Type // default concrete type of interface mappings
	kind       string
	keyName    string
	overrides  map[string]*override
	infer      bool
	naming     convert.NamingFunc
	converters []convert.Converter
	migrations []convert.Migration
	disc       string
	concreteFn func(reflect.Value) reflect.Value
	err        error
}

// PropertyOption adjusts one property of a mapping.
type PropertyOption func(*override)

// RenameTo stores the property under a different physical name.
func RenameTo(physical string) PropertyOption {
	return func(o *override) { o.physical = physical }
}

// ExcludeFromIndexes hides the property from query predicates and orders.
func ExcludeFromIndexes() PropertyOption {
	return func(o *override) { o.exclude = true }
}

// Ignore leaves the property out of stored documents.
func Ignore() PropertyOption {
	return func(o *override) { o.ignore = true }
}

// Entity starts the mapping of struct type T in r.
func Entity[T any](r *Registry) *Builder[T] {
	b := newBuilder[T](r)
	if b.typ.Kind() != reflect.Struct {
		b.fail(fmt.Errorf("%w: %s is not a struct; use Interface for interface types", errors.ErrInvalidMapping, b.typ))
	}
	return b
}

// Interface starts a polymorphic mapping: values of interface type I are
// stored in one collection and decoded as C unless the stored discriminator
// names another registered type implementing I. Name inference starts enabled
// so that fields of concrete types not declared here are kept.
func Interface[I any, C any](r *Registry) *Builder[I] {
	b := newBuilder[I](r)
	b.concrete = typeOf[C]()
	b.infer = true
	b.disc = DefaultDiscriminator
	if b.typ.Kind() != reflect.Interface {
		b.fail(fmt.Errorf("%w: %s is not an interface", errors.ErrInvalidMapping, b.typ))
	}
	return b
}

func newBuilder[T any](r *Registry) *Builder[T] {
	t := typeOf[T]()
	return &Builder[T]{
		reg:       r,
		typ:       t,
		kind:      t.Name(),
		overrides: make(map[string]*override),
		naming:    convert.LowerFirst,
	}
}

func (b *Builder[T]) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder[T]) override(name string) *override {
	o, ok := b.overrides[name]
	if !ok {
		o = &override{}
		b.overrides[name] = o
	}
	return o
}

// Kind sets the collection name. It defaults to the Go type name.
func (b *Builder[T]) Kind(name string) *Builder[T] {
	if name == "" {
		b.fail(fmt.Errorf("%w: empty kind for %s", errors.ErrInvalidMapping, b.typ))
	}
	b.kind = name
	return b
}

// Key selects the key field by name. Without it the field tagged
// `store:",key"` is used, then a field named ID or Id.
func (b *Builder[T]) Key(field string) *Builder[T] {
	b.keyName = field
	return b
}

// KeyOf selects the key field with an accessor such as func(u *User) any { return &u.Email }.
func (b *Builder[T]) KeyOf(sel func(*T) any) *Builder[T] {
	name, err := selectField(b.typ, sel)
	if err != nil {
		b.fail(err)
		return b
	}
	b.keyName = name
	return b
}

// Property declares a property by its Go field name.
func (b *Builder[T]) Property(field string, opts ...PropertyOption) *Builder[T] {
	o := b.override(field)
	for _, opt := range opts {
		opt(o)
	}
	return b
}

// PropertyOf declares a property with an accessor such as func(u *User) any { return &u.Name }.
func (b *Builder[T]) PropertyOf(sel func(*T) any, opts ...PropertyOption) *Builder[T] {
	name, err := selectField(b.typ, sel)
	if err != nil {
		b.fail(err)
		return b
	}
	return b.Property(name, opts...)
}

// WithConcreteFunc sets the function every decoded value passes through
// before it is returned.
func (b *Builder[T]) WithConcreteFunc(fn func(T) T) *Builder[T] {
	b.concreteFn = func(v reflect.Value) reflect.Value {
		out := fn(v.Interface().(T))
		return reflect.ValueOf(&out).Elem()
	}
	return b
}

// Infer maps every exported field, naming it with the naming strategy.
func (b *Builder[T]) Infer(enabled bool) *Builder[T] {
	b.infer = enabled
	return b
}

// Naming replaces the inference strategy. It defaults to convert.LowerFirst.
func (b *Builder[T]) Naming(fn convert.NamingFunc) *Builder[T] {
	if fn != nil {
		b.naming = fn
	}
	return b
}

// Convert registers converters that take precedence over the built-ins.
func (b *Builder[T]) Convert(c ...convert.Converter) *Builder[T] {
	b.converters = append(b.converters, c...)
	return b
}

// Migrate appends migrations run, in order, on every decoded document.
func (b *Builder[T]) Migrate(m ...convert.Migration) *Builder[T] {
	b.migrations = append(b.migrations, m...)
	return b
}

// Discriminator renames the property holding the concrete type of
// interface mappings.
func (b *Builder[T]) Discriminator(field string) *Builder[T] {
	if b.concrete == nil {
		b.fail(fmt.Errorf("%w: discriminator on non-interface mapping %s", errors.ErrInvalidMapping, b.typ))
		return b
	}
	if field == "" {
		b.fail(fmt.Errorf("%w: empty discriminator for %s", errors.ErrInvalidMapping, b.typ))
		return b
	}
	b.disc = field
	return b
}

// Build freezes the mapping and registers it.
func (b *Builder[T]) Build() (*EntityMapping, error) {
	if b.err != nil {
		return nil, b.err
	}

	cfg := &shapeConfig{
		keyName:       b.keyName,
		overrides:     b.overrides,
		infer:         b.infer,
		naming:        b.naming,
		converters:    convert.NewSet(b.naming, b.converters...),
		discriminator: b.disc,
		strict:        true,
	}

	m := &EntityMapping{
		typ:           b.typ,
		kind:          b.kind,
		cfg:           cfg,
		pipeline:      convert.NewPipeline(b.migrations...),
		concrete:      b.concreteFn,
		registry:      b.reg,
		polymorphic:   b.concrete != nil,
		discriminator: b.disc,
	}

	var err error
	if m.polymorphic {
		if !b.concrete.Implements(b.typ) {
			return nil, fmt.Errorf("%w: %s does not implement %s", errors.ErrInvalidMapping, b.concrete, b.typ)
		}
		st, ptr := b.concrete, false
		if st.Kind() == reflect.Pointer {
			st, ptr = st.Elem(), true
		}
		m.root, err = buildShape(st, ptr, st.Name(), cfg)
	} else {
		m.root, err = buildShape(b.typ, false, b.kind, cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := b.reg.register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// MustBuild is Build for package-level setup; it panics on error.
func (b *Builder[T]) MustBuild() *EntityMapping {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}
