/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/google/uuid"

	"github.com/suparena/entitymapper/storagemodels"
)

// Store is the persistence capability the repository consumes.
type Store interface {
	// Commit applies all mutations or none. It returns the key of every
	// mutated document in order; incomplete insert keys come back completed.
	Commit(ctx context.Context, mutations ...storagemodels.Mutation) ([]storagemodels.Key, error)

	// Get returns nil, nil when no document exists at key.
	Get(ctx context.Context, key storagemodels.Key) (*storagemodels.Document, error)

	// Delete is idempotent.
	Delete(ctx context.Context, key storagemodels.Key) error

	// RunQuery evaluates a store-native query.
	RunQuery(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error)
}

// Closer is implemented by stores holding connections.
type Closer interface {
	Close() error
}

// NewID returns a store-assigned document ID. IDs are UUIDv7, so within one
// process they sort in creation order.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// CompleteKey assigns a new ID to an incomplete key.
func CompleteKey(key storagemodels.Key) storagemodels.Key {
	if key.Incomplete() {
		key.ID = NewID()
	}
	return key
}
