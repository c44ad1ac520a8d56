/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sqlite stores documents in an embedded SQLite database.
//
// Each document is one row of the documents table keyed by (kind, id), with
// the properties serialized as DynamoDB JSON in the body column. Queries load
// the rows of one kind and are evaluated by package scan.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/suparena/entitymapper/datastore"
	"github.com/suparena/entitymapper/datastore/scan"
	emerrors "github.com/suparena/entitymapper/errors"
	"github.com/suparena/entitymapper/storagemodels"
)

//go:embed schema.sql
var schemaSQL string

// Store implements datastore.Store on SQLite.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

var (
	_ datastore.Store  = (*Store)(nil)
	_ datastore.Closer = (*Store)(nil)
)

// Open opens or creates the database at path and applies the schema.
// The special path ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Commit applies all mutations in one transaction.
func (s *Store) Commit(ctx context.Context, mutations ...storagemodels.Mutation) ([]storagemodels.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	keys := make([]storagemodels.Key, 0, len(mutations))
	for _, mut := range mutations {
		if mut.Document == nil {
			return nil, emerrors.NewValidationError("document", "mutation without document")
		}
		doc := mut.Document.Clone()
		if mut.Op == storagemodels.OpUpdate && doc.Key.Incomplete() {
			return nil, emerrors.NewNoEntityToUpdateError(doc.Key)
		}
		doc.Key = datastore.CompleteKey(doc.Key)

		body, err := storagemodels.MarshalDocument(doc)
		if err != nil {
			return nil, emerrors.NewStoreError(mut.Op.String(), doc.Key, err)
		}

		var res sql.Result
		switch mut.Op {
		case storagemodels.OpInsert:
			res, err = tx.ExecContext(ctx,
				`INSERT INTO documents (kind, id, body, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT (kind, id) DO NOTHING`,
				doc.Key.Kind, doc.Key.ID, string(body), now)
		case storagemodels.OpUpdate:
			res, err = tx.ExecContext(ctx,
				`UPDATE documents SET body = ?, updated_at = ? WHERE kind = ? AND id = ?`,
				string(body), now, doc.Key.Kind, doc.Key.ID)
		case storagemodels.OpUpsert:
			res, err = tx.ExecContext(ctx,
				`INSERT INTO documents (kind, id, body, updated_at) VALUES (?, ?, ?, ?)
				 ON CONFLICT (kind, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
				doc.Key.Kind, doc.Key.ID, string(body), now)
		default:
			return nil, emerrors.NewValidationError("op", "unknown mutation "+mut.Op.String())
		}
		if err != nil {
			return nil, emerrors.NewStoreError(mut.Op.String(), doc.Key, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return nil, emerrors.NewStoreError(mut.Op.String(), doc.Key, err)
		}
		if n == 0 {
			if mut.Op == storagemodels.OpUpdate {
				return nil, emerrors.NewNoEntityToUpdateError(doc.Key)
			}
			return nil, emerrors.NewAlreadyExistsError(doc.Key)
		}
		keys = append(keys, doc.Key)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Get returns nil, nil when the row does not exist.
func (s *Store) Get(ctx context.Context, key storagemodels.Key) (*storagemodels.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE kind = ? AND id = ?`, key.Kind, key.ID).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, emerrors.NewStoreError("get", key, err)
	}
	return storagemodels.UnmarshalDocument([]byte(body))
}

// Delete removes the row if present.
func (s *Store) Delete(ctx context.Context, key storagemodels.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE kind = ? AND id = ?`, key.Kind, key.ID); err != nil {
		return emerrors.NewStoreError("delete", key, err)
	}
	return nil
}

// RunQuery loads every document of the query kind and evaluates the query in process.
func (s *Store) RunQuery(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error) {
	if err := scan.Validate(q); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT body FROM documents WHERE kind = ? ORDER BY id`, q.Kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*storagemodels.Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		doc, err := storagemodels.UnmarshalDocument([]byte(body))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return scan.Run(docs, q)
}

// Count returns the number of stored documents of a kind.
func (s *Store) Count(ctx context.Context, kind string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE kind = ?`, kind).Scan(&n)
	return n, err
}
