/*
Package entitymapper maps typed Go entities to schemaless documents and back,
and translates typed filters into store-native queries.

The library follows a build-once, use-everywhere workflow:
  - Build mappings for each entity type into a Registry
  - Bind a Repository to a store and the registry
  - Issue CRUD calls and paged queries against logical property names

Key Features:
  - Immutable per-type mappings with key selection, renames and exclude-from-index flags
  - Polymorphic storage of interface types with a discriminator field
  - Locale-independent value conversion (decimals, times, option values)
  - Migrations that upgrade old document shapes on read
  - Cursor pagination with "has more results" detection
  - DynamoDB, SQLite and in-memory stores, with an optional Redis document cache

Basic Usage:

	reg := registry.New()
	registry.Entity[User](reg).
	    PropertyOf(func(u *User) any { return &u.Email }, registry.RenameTo("mail")).
	    Property("Bio", registry.ExcludeFromIndexes()).
	    Infer(true).
	    MustBuild()

	store, err := entitymapper.OpenStore(ctx, cfg)
	repo := entitymapper.New[User](store, reg)

	id, err := repo.Insert(ctx, &User{Name: "Ada"})
	user, err := repo.FindByID(ctx, id)

	page, err := repo.Query(ctx, entitymapper.Where("Name", storagemodels.Equal, "Ada").Take(20), "")
	next, err := repo.Query(ctx, entitymapper.Where("Name", storagemodels.Equal, "Ada").Take(20), page.NextCursor)

Key lifecycle:
  - Insert rejects entities whose key is already set
  - Update rejects entities without a key; a missing document fails with the store's error
  - FindByID returns maybe.None for a missing document
  - Delete of a missing key is a no-op

Every blocking operation has a non-blocking form returning a Future.
*/
package entitymapper
