/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/entitymapper/errors"
)

// Registry holds built mappings keyed by Go type and by kind. Registration
// happens through Builder.Build; lookups are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*EntityMapping
	byKind map[string]*EntityMapping
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]*EntityMapping),
		byKind: make(map[string]*EntityMapping),
	}
}

func (r *Registry) register(m *EntityMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byType[m.typ]; exists {
		return fmt.Errorf("%w: type %s already registered", errors.ErrInvalidMapping, m.typ)
	}
	if other, exists := r.byKind[m.kind]; exists {
		return fmt.Errorf("%w: kind %q already used by %s", errors.ErrInvalidMapping, m.kind, other.typ)
	}
	r.byType[m.typ] = m
	r.byKind[m.kind] = m
	return nil
}

// Lookup returns the mapping registered for t.
func (r *Registry) Lookup(t reflect.Type) (*EntityMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byType[t]
	if !ok {
		return nil, errors.NewUnregisteredError(t.String())
	}
	return m, nil
}

// ByKind returns the mapping registered under a kind name.
func (r *Registry) ByKind(kind string) (*EntityMapping, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byKind[kind]
	return m, ok
}

// Kinds lists the registered kind names in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.byKind))
	for k := range r.byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// MappingFor returns the mapping registered for T.
func MappingFor[T any](r *Registry) (*EntityMapping, error) {
	return r.Lookup(typeOf[T]())
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
