/*
Package datastore defines the persistence capability consumed by entitymapper repositories.

The main interface is Store, which works on generic documents rather than typed entities:

	type Store interface {
	    Commit(ctx context.Context, mutations ...storagemodels.Mutation) ([]storagemodels.Key, error)
	    Get(ctx context.Context, key storagemodels.Key) (*storagemodels.Document, error)
	    Delete(ctx context.Context, key storagemodels.Key) error
	    RunQuery(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error)
	}

Contract:
  - Commit is atomic. Inserts fail when the document exists, updates fail with
    errors.ErrNoEntityToUpdate when it does not, upserts always write.
  - Get returns nil, nil for a missing document.
  - Delete of a missing document is not an error.
  - RunQuery honours predicates, orders (ties broken by key ID), offset, limit
    and start cursor. Properties excluded from indexes are invisible to
    predicates and orders.

Implementations:
  - ddb: DynamoDB single-table store (PK = kind, SK = id)
  - sqlite: embedded SQLite store
  - mock: in-memory store with error injection for testing
  - cache: read-through cache decorator over any Store

The scan subpackage is the reference query engine shared by stores that
evaluate queries in process.

Keys are assigned by NewID (UUIDv7) when an insert carries an incomplete key.
*/
package datastore
