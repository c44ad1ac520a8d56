/*
Package storagemodels defines the store-level data structures used throughout entitymapper.

Key Types:

Document:
The generic field/value container exchanged with a store. Values use the DynamoDB
attribute value vocabulary; each property carries its own exclude-from-indexes flag:

	doc := storagemodels.NewDocument(storagemodels.Key{Kind: "User"})
	doc.Set("name", &types.AttributeValueMemberS{Value: "ada"}, false)
	doc.Set("bio", &types.AttributeValueMemberS{Value: longText}, true)

Mutation:
A write within an atomic commit (insert, update or upsert).

Query:
The store-native query shape: predicates on physical field names, orders, offset,
limit and a start cursor:

	q := storagemodels.NewQuery("User").
	    Filter("name", storagemodels.Equal, &types.AttributeValueMemberS{Value: "ada"}).
	    OrderBy("createdAt", storagemodels.Descending).
	    Take(25)

QueryResult:
Documents in result order, each paired with the cursor positioned right after it.

StreamOptions:
Configuration for repository streaming:

	opts := []StreamOption{
	    WithBufferSize(100),
	    WithPageSize(25),
	    WithProgressHandler(progressFunc),
	}

The codec (MarshalDocument / UnmarshalDocument) persists documents as DynamoDB JSON
for the SQLite store and the document cache.
*/
package storagemodels
