/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitymapper

import (
	"context"
	"reflect"
	"time"

	"github.com/charmbracelet/log"

	"github.com/suparena/entitymapper/datastore"
	"github.com/suparena/entitymapper/errors"
	"github.com/suparena/entitymapper/maybe"
	"github.com/suparena/entitymapper/registry"
	"github.com/suparena/entitymapper/storagemodels"
)

// Repository performs typed CRUD and paged queries for entities of type T.
// It holds no per-call state and is safe for concurrent use.
type Repository[T any] struct {
	store   datastore.Store
	reg     *registry.Registry
	logger  *log.Logger
	metrics *Metrics
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	logger  *log.Logger
	metrics *Metrics
}

// WithLogger sets the logger for per-operation debug output.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records operations in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New binds a repository to a store and a registry. The mapping of T is
// looked up on each operation, so T may be registered after New.
func New[T any](store datastore.Store, reg *registry.Registry, opts ...Option) *Repository[T] {
	o := buildOptions(opts)
	return &Repository[T]{store: store, reg: reg, logger: o.logger, metrics: o.metrics}
}

func (r *Repository[T]) mapping() (*registry.EntityMapping, error) {
	return registry.MappingFor[T](r.reg)
}

func (r *Repository[T]) done(m *registry.EntityMapping, op string, start time.Time, err error, kv ...any) {
	r.metrics.observe(m.Kind(), op, start, err)
	kv = append([]any{"kind", m.Kind(), "duration", time.Since(start)}, kv...)
	if err != nil {
		r.logger.Debug(op+" failed", append(kv, "err", err)...)
		return
	}
	r.logger.Debug(op, kv...)
}

func entityValue[T any](entity *T) (reflect.Value, error) {
	if entity == nil {
		return reflect.Value{}, errors.NewValidationError("entity", "nil entity")
	}
	return reflect.ValueOf(entity).Elem(), nil
}

func asEntity[T any](v reflect.Value) T {
	var out T
	reflect.ValueOf(&out).Elem().Set(v)
	return out
}

// prepareInsert rejects keyed entities and encodes the rest.
func prepareInsert[T any](m *registry.EntityMapping, entity *T) (*storagemodels.Document, error) {
	v, err := entityValue(entity)
	if err != nil {
		return nil, err
	}
	id, err := m.KeyOf(v)
	if err != nil {
		return nil, err
	}
	if id != "" {
		return nil, errors.NewInsertWithKeyError(m.Kind())
	}
	return m.Encode(v)
}

// Insert writes a new entity and stores the assigned key in its key property.
func (r *Repository[T]) Insert(ctx context.Context, entity *T) (string, error) {
	ids, err := r.insert(ctx, "insert", []*T{entity})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// InsertMany writes all entities in one atomic commit. No entity may carry a key.
func (r *Repository[T]) InsertMany(ctx context.Context, entities []*T) ([]string, error) {
	if len(entities) == 0 {
		return nil, nil
	}
	return r.insert(ctx, "insert_many", entities)
}

func (r *Repository[T]) insert(ctx context.Context, op string, entities []*T) (ids []string, err error) {
	m, err := r.mapping()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { r.done(m, op, start, err, "count", len(entities)) }()

	mutations := make([]storagemodels.Mutation, len(entities))
	for i, e := range entities {
		doc, err := prepareInsert(m, e)
		if err != nil {
			return nil, err
		}
		mutations[i] = storagemodels.Insert(doc)
	}

	keys, err := r.store.Commit(ctx, mutations...)
	if err != nil {
		return nil, err
	}

	ids = make([]string, len(keys))
	for i, k := range keys {
		if err := m.SetKey(reflect.ValueOf(entities[i]), k.ID); err != nil {
			return nil, err
		}
		ids[i] = k.ID
	}
	return ids, nil
}

// Update overwrites the stored document of a keyed entity. A missing document
// fails with the store's own error.
func (r *Repository[T]) Update(ctx context.Context, entity *T) (err error) {
	m, err := r.mapping()
	if err != nil {
		return err
	}
	start := time.Now()
	var id string
	defer func() { r.done(m, "update", start, err, "id", id) }()

	v, err := entityValue(entity)
	if err != nil {
		return err
	}
	id, err = m.KeyOf(v)
	if err != nil {
		return err
	}
	if id == "" {
		return errors.NewUpdateWithoutKeyError(m.Kind())
	}

	doc, err := m.Encode(v)
	if err != nil {
		return err
	}
	_, err = r.store.Commit(ctx, storagemodels.Update(doc))
	return err
}

// FindByID returns None when no document exists at id.
func (r *Repository[T]) FindByID(ctx context.Context, id string) (found maybe.Maybe[T], err error) {
	m, err := r.mapping()
	if err != nil {
		return maybe.None[T](), err
	}
	start := time.Now()
	defer func() { r.done(m, "find", start, err, "id", id, "found", found.IsSome()) }()

	if id == "" {
		return maybe.None[T](), nil
	}
	doc, err := r.store.Get(ctx, storagemodels.Key{Kind: m.Kind(), ID: id})
	if err != nil {
		return maybe.None[T](), err
	}
	if doc == nil {
		return maybe.None[T](), nil
	}

	v, err := m.Decode(doc)
	if err != nil {
		r.metrics.decodeFailed(m.Kind())
		return maybe.None[T](), err
	}
	return maybe.Some(asEntity[T](v)), nil
}

// Delete removes the document at id. Missing documents are ignored.
func (r *Repository[T]) Delete(ctx context.Context, id string) (err error) {
	m, err := r.mapping()
	if err != nil {
		return err
	}
	start := time.Now()
	defer func() { r.done(m, "delete", start, err, "id", id) }()

	if id == "" {
		return nil
	}
	return r.store.Delete(ctx, storagemodels.Key{Kind: m.Kind(), ID: id})
}

// Query returns one page of entities matching f, resuming after cursor when
// it is not empty. A nil filter matches everything.
func (r *Repository[T]) Query(ctx context.Context, f Filter, cursor storagemodels.Cursor) (res *QueryResult[T], err error) {
	m, err := r.mapping()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		kv := []any{"cursor", cursor != ""}
		if res != nil {
			kv = append(kv, "count", len(res.Entities), "hasMore", res.HasMoreResults)
		}
		r.done(m, "query", start, err, kv...)
	}()

	q, err := buildQuery(m, f)
	if err != nil {
		return nil, err
	}
	return r.page(ctx, m, q, cursor)
}

// QueryAll returns every entity of T.
func (r *Repository[T]) QueryAll(ctx context.Context) (*QueryResult[T], error) {
	return r.Query(ctx, nil, "")
}

// QueryBy returns the entities whose property equals value.
func (r *Repository[T]) QueryBy(ctx context.Context, property string, value any) (*QueryResult[T], error) {
	return r.Query(ctx, Where(property, storagemodels.Equal, value), "")
}

// buildQuery applies f and encodes predicate values with the converter of
// the property owning each field.
func buildQuery(m *registry.EntityMapping, f Filter) (*storagemodels.Query, error) {
	q := storagemodels.NewQuery(m.Kind())
	if f != nil {
		if err := f.ApplyTo(q, m); err != nil {
			return nil, err
		}
	}
	if q.Offset < 0 {
		return nil, errors.NewValidationError("skip", "must not be negative")
	}
	if q.Limit != nil && *q.Limit < 0 {
		return nil, errors.NewValidationError("take", "must not be negative")
	}
	for i, p := range q.Predicates {
		av, err := m.EncodeField(p.Field, p.Value)
		if err != nil {
			return nil, err
		}
		q.Predicates[i].Value = av
	}
	return q, nil
}

// page runs q for one page. It asks the store for one document more than
// the page size to learn whether more results follow.
func (r *Repository[T]) page(ctx context.Context, m *registry.EntityMapping, q *storagemodels.Query, cursor storagemodels.Cursor) (*QueryResult[T], error) {
	out, err := r.store.RunQuery(ctx, q.PageQuery(cursor))
	if err != nil {
		return nil, err
	}

	pg := q.PageOf(out, cursor)
	entries := pg.Entries
	res := &QueryResult[T]{HasMoreResults: pg.HasMoreResults, NextCursor: pg.NextCursor}
	res.Entities = make([]T, 0, len(entries))
	for _, e := range entries {
		v, err := m.Decode(e.Document)
		if err != nil {
			r.metrics.decodeFailed(m.Kind())
			r.logger.Warn("skipping undecodable document", "key", e.Document.Key, "err", err)
			res.Failures = append(res.Failures, err)
			res.failed = append(res.failed, e.Document)
			continue
		}
		res.Entities = append(res.Entities, asEntity[T](v))
		res.documents = append(res.documents, e.Document)
	}
	return res, nil
}
