/*
Package cache puts a read-through document cache in front of any datastore.Store.

	inner, _ := sqlite.Open("data/documents.db")
	store := cache.New(inner, cache.NewRedisCache("localhost:6379", "", 0), cache.WithTTL(10*time.Minute))

Documents are cached in their DynamoDB JSON form under "entitymapper:<kind>/<id>".
Absent documents are never cached. Commit and Delete overwrite the keys they
touch with a short-lived tombstone after the underlying store succeeds; reads
of a tombstoned key go to the underlying store, and Get fills the cache only
when the key is absent (SETNX on Redis). RunQuery is not cached.

MemoryCache is a process-local Cache for tests and single-instance tools.
*/
package cache
