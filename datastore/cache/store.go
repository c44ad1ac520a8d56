/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/suparena/entitymapper/datastore"
	"github.com/suparena/entitymapper/storagemodels"
)

// KeyPrefix namespaces cache entries written by Store.
const KeyPrefix = "entitymapper:"

// TombstoneTTL is how long a written key bypasses the cache.
const TombstoneTTL = time.Minute

// tombstone marks a key written since it was last cached. It is never valid
// document JSON.
var tombstone = []byte("\x00tombstone")

// Store is a read-through cache in front of another datastore.Store. Get
// results are cached; writes and deletes replace the affected keys with a
// tombstone for TombstoneTTL, and Get only fills keys that are absent, so a
// read that started before a write cannot cache the old document. Queries
// always go to the underlying store. Cache failures are logged and the
// underlying store is used instead.
type Store struct {
	inner        datastore.Store
	cache        Cache
	ttl          time.Duration
	tombstoneTTL time.Duration
	logger       *log.Logger
}

var (
	_ datastore.Store  = (*Store)(nil)
	_ datastore.Closer = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long documents stay cached.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithTombstoneTTL sets how long written keys bypass the cache. It must
// outlast the slowest read of the underlying store.
func WithTombstoneTTL(ttl time.Duration) Option {
	return func(s *Store) { s.tombstoneTTL = ttl }
}

// WithLogger sets the logger used to report cache failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New wraps inner with c.
func New(inner datastore.Store, c Cache, opts ...Option) *Store {
	s := &Store{inner: inner, cache: c, ttl: DefaultTTL, tombstoneTTL: TombstoneTTL, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func cacheKey(key storagemodels.Key) string {
	return KeyPrefix + key.Kind + "/" + key.ID
}

func (s *Store) Get(ctx context.Context, key storagemodels.Key) (*storagemodels.Document, error) {
	ck := cacheKey(key)
	if data, ok, err := s.cache.Get(ctx, ck); err != nil {
		s.logger.Warn("cache get failed", "key", ck, "err", err)
	} else if ok && bytes.Equal(data, tombstone) {
		return s.inner.Get(ctx, key)
	} else if ok {
		doc, err := storagemodels.UnmarshalDocument(data)
		if err == nil {
			return doc, nil
		}
		s.logger.Warn("dropping unreadable cache entry", "key", ck, "err", err)
		if err := s.cache.Delete(ctx, ck); err != nil {
			s.logger.Warn("cache delete failed", "key", ck, "err", err)
		}
	}

	doc, err := s.inner.Get(ctx, key)
	if err != nil || doc == nil {
		return doc, err
	}

	data, err := storagemodels.MarshalDocument(doc)
	if err != nil {
		return nil, err
	}
	if _, err := s.cache.Add(ctx, ck, data, s.ttl); err != nil {
		s.logger.Warn("cache fill failed", "key", ck, "err", err)
	}
	return doc, nil
}

func (s *Store) Commit(ctx context.Context, mutations ...storagemodels.Mutation) ([]storagemodels.Key, error) {
	keys, err := s.inner.Commit(ctx, mutations...)
	if err != nil {
		return nil, err
	}
	cks := make([]string, len(keys))
	for i, k := range keys {
		cks[i] = cacheKey(k)
	}
	s.invalidate(ctx, cks...)
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, key storagemodels.Key) error {
	if err := s.inner.Delete(ctx, key); err != nil {
		return err
	}
	s.invalidate(ctx, cacheKey(key))
	return nil
}

func (s *Store) RunQuery(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error) {
	return s.inner.RunQuery(ctx, q)
}

// Close closes the cache and, when it holds connections, the underlying store.
func (s *Store) Close() error {
	err := s.cache.Close()
	if c, ok := s.inner.(datastore.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}

func (s *Store) invalidate(ctx context.Context, keys ...string) {
	for _, k := range keys {
		if err := s.cache.Put(ctx, k, tombstone, s.tombstoneTTL); err != nil {
			s.logger.Warn("cache invalidation failed", "key", k, "err", err)
		}
	}
}
