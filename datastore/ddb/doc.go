/*
Package ddb stores documents in a single DynamoDB table.

Every document becomes one item: the partition key PK holds the kind, the sort
key SK holds the document ID and each property is stored as a top-level
attribute under its physical name. Properties excluded from indexes are listed
in the string set attribute _noindex so they round trip with their flag.

	client, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{Region: "us-east-1"})
	if err != nil {
	    return err
	}
	store := ddb.NewStore(client, "documents", ddb.WithPageSize(50))

Writes:

  - a single mutation is a PutItem guarded by attribute_not_exists(PK) for
    inserts and attribute_exists(PK) for updates
  - several mutations are sent as one TransactWriteItems call, so they
    succeed or fail together

Queries read the partition of the requested kind with a paginator, retrying
throttled pages with linear backoff, and evaluate predicates, orders and
cursors with package scan.
*/
package ddb
