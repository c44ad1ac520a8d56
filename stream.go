/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitymapper

import (
	"context"
	"fmt"
	"time"

	"github.com/suparena/entitymapper/registry"
	"github.com/suparena/entitymapper/storagemodels"
)

// Stream walks every entity matching f by chaining page cursors. A take set
// by f caps the total number of streamed entities. Documents that fail to
// decode are sent as error results; the error handler may stop the walk. The
// channel is closed when the walk ends or ctx is done.
func (r *Repository[T]) Stream(ctx context.Context, f Filter, opts ...storagemodels.StreamOption) <-chan StreamResult[T] {
	// Apply options
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if options.PageSize <= 0 {
		options.PageSize = storagemodels.DefaultStreamOptions().PageSize
	}

	resultCh := make(chan StreamResult[T], options.BufferSize)
	go r.streamWorker(ctx, f, options, resultCh)
	return resultCh
}

func (r *Repository[T]) streamWorker(
	ctx context.Context,
	f Filter,
	options storagemodels.StreamOptions,
	resultCh chan<- StreamResult[T],
) {
	defer close(resultCh)

	var itemIndex int64
	var pageNumber int
	var errs []error
	var cursor storagemodels.Cursor
	startTime := time.Now()

	reportProgress := func() {
		if options.ProgressHandler == nil {
			return
		}
		progress := storagemodels.StreamProgress{
			ItemsProcessed: itemIndex,
			PagesProcessed: pageNumber,
			LastCursor:     cursor,
			Errors:         errs,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(itemIndex) / elapsed
		}
		options.ProgressHandler(progress)
	}

	send := func(res StreamResult[T]) bool {
		select {
		case <-ctx.Done():
			return false
		case resultCh <- res:
			return true
		}
	}
	meta := func() storagemodels.StreamMeta {
		return storagemodels.StreamMeta{Index: itemIndex, PageNumber: pageNumber, Timestamp: time.Now()}
	}

	var m *registry.EntityMapping
	q, err := func() (*storagemodels.Query, error) {
		var err error
		if m, err = r.mapping(); err != nil {
			return nil, err
		}
		return buildQuery(m, f)
	}()
	if err != nil {
		send(StreamResult[T]{Error: err, Meta: meta()})
		return
	}

	remaining := int64(-1)
	if q.Limit != nil {
		remaining = int64(*q.Limit)
	}

	for remaining != 0 {
		if ctx.Err() != nil {
			return
		}

		pq := q.Clone()
		size := options.PageSize
		if remaining > 0 && int64(size) > remaining {
			size = int32(remaining)
		}
		pq.Limit = &size

		page, err := r.page(ctx, m, pq, cursor)
		if err != nil {
			send(StreamResult[T]{Error: fmt.Errorf("query failed: %w", err), Meta: meta()})
			return
		}
		pageNumber++

		for i, item := range page.Entities {
			if !send(StreamResult[T]{Item: item, Document: page.documents[i], Meta: meta()}) {
				return
			}
			itemIndex++
			if remaining > 0 {
				remaining--
			}
		}
		for i, ferr := range page.Failures {
			errs = append(errs, ferr)
			if !send(StreamResult[T]{Error: ferr, Document: page.failed[i], Meta: meta()}) {
				return
			}
			if options.ErrorHandler != nil && !options.ErrorHandler(ferr) {
				return
			}
		}

		cursor = page.NextCursor
		reportProgress()
		if !page.HasMoreResults {
			break
		}
	}
}
