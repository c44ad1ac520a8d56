/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of datastore.Store for testing
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/suparena/entitymapper/datastore"
	"github.com/suparena/entitymapper/datastore/scan"
	"github.com/suparena/entitymapper/errors"
	"github.com/suparena/entitymapper/storagemodels"
)

// Calls counts the operations a DataStore has served.
type Calls struct {
	Commit   int
	Get      int
	Delete   int
	RunQuery int
}

// DataStore is an in-memory datastore.Store. Queries run through the scan engine.
type DataStore struct {
	mu          sync.RWMutex
	data        map[storagemodels.Key]*storagemodels.Document
	calls       Calls
	queryFunc   func(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error)
	commitError error
	getError    error
	deleteError error
	queryError  error
}

var _ datastore.Store = (*DataStore)(nil)

// New creates a new mock DataStore
func New() *DataStore {
	return &DataStore{
		data: make(map[storagemodels.Key]*storagemodels.Document),
	}
}

// WithQueryFunc sets a custom query function for testing
func (m *DataStore) WithQueryFunc(f func(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error)) *DataStore {
	m.queryFunc = f
	return m
}

// WithCommitError makes Commit operations return an error
func (m *DataStore) WithCommitError(err error) *DataStore {
	m.commitError = err
	return m
}

// WithGetError makes Get operations return an error
func (m *DataStore) WithGetError(err error) *DataStore {
	m.getError = err
	return m
}

// WithDeleteError makes Delete operations return an error
func (m *DataStore) WithDeleteError(err error) *DataStore {
	m.deleteError = err
	return m
}

// WithQueryError makes RunQuery operations return an error
func (m *DataStore) WithQueryError(err error) *DataStore {
	m.queryError = err
	return m
}

// Commit applies all mutations or none
func (m *DataStore) Commit(ctx context.Context, mutations ...storagemodels.Mutation) ([]storagemodels.Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Commit++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.commitError != nil {
		return nil, m.commitError
	}

	// Stage against a view of the data so a failing mutation leaves nothing behind.
	staged := make(map[storagemodels.Key]*storagemodels.Document, len(mutations))
	exists := func(k storagemodels.Key) bool {
		if _, ok := staged[k]; ok {
			return true
		}
		_, ok := m.data[k]
		return ok
	}

	keys := make([]storagemodels.Key, len(mutations))
	for i, mut := range mutations {
		if mut.Document == nil {
			return nil, errors.NewValidationError("document", "mutation without document")
		}
		doc := mut.Document.Clone()
		switch mut.Op {
		case storagemodels.OpInsert:
			doc.Key = datastore.CompleteKey(doc.Key)
			if exists(doc.Key) {
				return nil, errors.NewAlreadyExistsError(doc.Key)
			}
		case storagemodels.OpUpdate:
			if doc.Key.Incomplete() || !exists(doc.Key) {
				return nil, errors.NewNoEntityToUpdateError(doc.Key)
			}
		case storagemodels.OpUpsert:
			doc.Key = datastore.CompleteKey(doc.Key)
		default:
			return nil, errors.NewValidationError("op", "unknown mutation "+mut.Op.String())
		}
		staged[doc.Key] = doc
		keys[i] = doc.Key
	}

	for k, doc := range staged {
		m.data[k] = doc
	}
	return keys, nil
}

// Get retrieves a document by key
func (m *DataStore) Get(ctx context.Context, key storagemodels.Key) (*storagemodels.Document, error) {
	m.mu.Lock()
	m.calls.Get++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.getError != nil {
		return nil, m.getError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key].Clone(), nil
}

// Delete removes a document by key
func (m *DataStore) Delete(ctx context.Context, key storagemodels.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Delete++

	if err := ctx.Err(); err != nil {
		return err
	}
	if m.deleteError != nil {
		return m.deleteError
	}
	delete(m.data, key)
	return nil
}

// RunQuery executes a query
func (m *DataStore) RunQuery(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error) {
	m.mu.Lock()
	m.calls.RunQuery++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.queryError != nil {
		return nil, m.queryError
	}
	if m.queryFunc != nil {
		return m.queryFunc(ctx, q)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return scan.Run(m.documents(q.Kind), q)
}

// Helper methods for testing

// Put writes documents directly, bypassing existence checks
func (m *DataStore) Put(docs ...*storagemodels.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range docs {
		m.data[doc.Key] = doc.Clone()
	}
}

// Documents returns copies of the stored documents of one kind, ordered by ID
func (m *DataStore) Documents(kind string) []*storagemodels.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.documents(kind)
	for i, d := range docs {
		docs[i] = d.Clone()
	}
	return docs
}

func (m *DataStore) documents(kind string) []*storagemodels.Document {
	var docs []*storagemodels.Document
	for k, d := range m.data {
		if k.Kind == kind {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Key.ID < docs[j].Key.ID })
	return docs
}

// Count returns the number of stored documents of one kind
func (m *DataStore) Count(kind string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for k := range m.data {
		if k.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the number of stored documents
func (m *DataStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Calls returns the operation counters
func (m *DataStore) Calls() Calls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Clear removes all data and resets the counters
func (m *DataStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[storagemodels.Key]*storagemodels.Document)
	m.calls = Calls{}
}
