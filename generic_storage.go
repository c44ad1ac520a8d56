/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitymapper

import (
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/entitymapper/datastore"
	"github.com/suparena/entitymapper/registry"
)

// RepositorySet hands out one Repository per entity type, all bound to the
// same store and registry.
type RepositorySet struct {
	mu    sync.RWMutex
	store datastore.Store
	reg   *registry.Registry
	opts  []Option
	repos map[reflect.Type]any
}

// NewRepositorySet creates a RepositorySet. opts apply to every repository it creates.
func NewRepositorySet(store datastore.Store, reg *registry.Registry, opts ...Option) *RepositorySet {
	return &RepositorySet{
		store: store,
		reg:   reg,
		opts:  opts,
		repos: make(map[reflect.Type]any),
	}
}

// For returns the repository for T, creating it if necessary
func For[T any](s *RepositorySet) *Repository[T] {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	s.mu.RLock()
	repo, exists := s.repos[typ]
	s.mu.RUnlock()
	if exists {
		return repo.(*Repository[T])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if repo, exists := s.repos[typ]; exists {
		return repo.(*Repository[T])
	}
	created := New[T](s.store, s.reg, s.opts...)
	s.repos[typ] = created
	return created
}

// Types lists the entity types that have a repository, sorted by name.
func (s *RepositorySet) Types() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.repos))
	for t := range s.repos {
		names = append(names, t.String())
	}
	sort.Strings(names)
	return names
}

// Store returns the shared store.
func (s *RepositorySet) Store() datastore.Store {
	return s.store
}

// Registry returns the shared registry.
func (s *RepositorySet) Registry() *registry.Registry {
	return s.reg
}

// Close closes the store when it holds connections.
func (s *RepositorySet) Close() error {
	if c, ok := s.store.(datastore.Closer); ok {
		return c.Close()
	}
	return nil
}
