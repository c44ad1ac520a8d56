/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitymapper

import (
	"github.com/suparena/entitymapper/storagemodels"
)

// QueryResult is one page of decoded entities.
type QueryResult[T any] struct {
	Entities []T
	// HasMoreResults reports that at least one more match follows this page.
	HasMoreResults bool
	// NextCursor resumes after the last document of this page. It is the
	// cursor the query started from when the page is empty.
	NextCursor storagemodels.Cursor
	// Failures holds one decode error per document that could not be decoded.
	// Those documents are missing from Entities.
	Failures []error

	// stored documents, parallel to Entities and Failures
	documents []*storagemodels.Document
	failed    []*storagemodels.Document
}

// Len returns the number of decoded entities.
func (r *QueryResult[T]) Len() int {
	return len(r.Entities)
}

// StreamResult is a single entity in a stream with metadata.
type StreamResult[T any] struct {
	Item T
	// Document is the stored document Item was decoded from, or the one that
	// failed to decode when Error is a decode error.
	Document *storagemodels.Document
	Error    error
	Meta     storagemodels.StreamMeta
}
