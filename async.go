/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitymapper

import (
	"context"

	"github.com/suparena/entitymapper/maybe"
	"github.com/suparena/entitymapper/storagemodels"
)

// Future is the pending result of a non-blocking repository call.
type Future[R any] struct {
	done  chan struct{}
	value R
	err   error
}

func spawn[R any](fn func() (R, error)) *Future[R] {
	f := &Future[R]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn()
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the call finishes or ctx ends. Ending ctx does not
// cancel the call itself; cancel the context passed to the call for that.
func (f *Future[R]) Await(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// InsertAsync runs Insert in the background.
func (r *Repository[T]) InsertAsync(ctx context.Context, entity *T) *Future[string] {
	return spawn(func() (string, error) { return r.Insert(ctx, entity) })
}

// InsertManyAsync runs InsertMany in the background.
func (r *Repository[T]) InsertManyAsync(ctx context.Context, entities []*T) *Future[[]string] {
	return spawn(func() ([]string, error) { return r.InsertMany(ctx, entities) })
}

// UpdateAsync runs Update in the background.
func (r *Repository[T]) UpdateAsync(ctx context.Context, entity *T) *Future[struct{}] {
	return spawn(func() (struct{}, error) { return struct{}{}, r.Update(ctx, entity) })
}

// FindByIDAsync runs FindByID in the background.
func (r *Repository[T]) FindByIDAsync(ctx context.Context, id string) *Future[maybe.Maybe[T]] {
	return spawn(func() (maybe.Maybe[T], error) { return r.FindByID(ctx, id) })
}

// DeleteAsync runs Delete in the background.
func (r *Repository[T]) DeleteAsync(ctx context.Context, id string) *Future[struct{}] {
	return spawn(func() (struct{}, error) { return struct{}{}, r.Delete(ctx, id) })
}

// QueryAsync runs Query in the background.
func (r *Repository[T]) QueryAsync(ctx context.Context, f Filter, cursor storagemodels.Cursor) *Future[*QueryResult[T]] {
	return spawn(func() (*QueryResult[T], error) { return r.Query(ctx, f, cursor) })
}

// QueryAllAsync runs QueryAll in the background.
func (r *Repository[T]) QueryAllAsync(ctx context.Context) *Future[*QueryResult[T]] {
	return spawn(func() (*QueryResult[T], error) { return r.QueryAll(ctx) })
}
