/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emerrors "github.com/suparena/entitymapper/errors"
	"github.com/suparena/entitymapper/storagemodels"
)

// fakeAPI is an in-memory table that honours the condition expressions the
// store sends.
type fakeAPI struct {
	mu         sync.Mutex
	items      map[string]map[string]types.AttributeValue
	queryCalls int
	throttle   int
	queryErr   error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: make(map[string]map[string]types.AttributeValue)}
}

func rowKey(item map[string]types.AttributeValue) string {
	pk := item[AttrPK].(*types.AttributeValueMemberS).Value
	sk := item[AttrSK].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func (f *fakeAPI) checkCondition(cond *string, item map[string]types.AttributeValue) bool {
	if cond == nil {
		return true
	}
	_, exists := f.items[rowKey(item)]
	switch *cond {
	case "attribute_not_exists(PK)":
		return !exists
	case "attribute_exists(PK)":
		return exists
	}
	return false
}

func (f *fakeAPI) GetItem(_ context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &sdk.GetItemOutput{Item: f.items[rowKey(in.Key)]}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.checkCondition(in.ConditionExpression, in.Item) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	f.items[rowKey(in.Item)] = in.Item
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, rowKey(in.Key))
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeAPI) TransactWriteItems(_ context.Context, in *sdk.TransactWriteItemsInput, _ ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, ti := range in.TransactItems {
		if f.checkCondition(ti.Put.ConditionExpression, ti.Put.Item) {
			reasons[i] = types.CancellationReason{Code: aws.String("None")}
			continue
		}
		reasons[i] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
		failed = true
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}
	for _, ti := range in.TransactItems {
		f.items[rowKey(ti.Put.Item)] = ti.Put.Item
	}
	return &sdk.TransactWriteItemsOutput{}, nil
}

// Query pages through the partition in SK order using ExclusiveStartKey.
func (f *fakeAPI) Query(_ context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	if f.throttle > 0 {
		f.throttle--
		return nil, &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}
	}
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	kind := in.ExpressionAttributeValues[":kind"].(*types.AttributeValueMemberS).Value
	var rows []map[string]types.AttributeValue
	for _, item := range f.items {
		if item[AttrPK].(*types.AttributeValueMemberS).Value == kind {
			rows = append(rows, item)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rowKey(rows[i]) < rowKey(rows[j]) })

	if in.ExclusiveStartKey != nil {
		after := rowKey(in.ExclusiveStartKey)
		i := sort.Search(len(rows), func(i int) bool { return rowKey(rows[i]) > after })
		rows = rows[i:]
	}

	out := &sdk.QueryOutput{}
	limit := len(rows)
	if in.Limit != nil && int(*in.Limit) < limit {
		limit = int(*in.Limit)
		last := rows[limit-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{AttrPK: last[AttrPK], AttrSK: last[AttrSK]}
	}
	out.Items = rows[:limit]
	out.Count = int32(limit)
	return out, nil
}

func scoreDoc(kind, id string, score int) *storagemodels.Document {
	doc := storagemodels.NewDocument(storagemodels.Key{Kind: kind, ID: id})
	doc.Set("score", &types.AttributeValueMemberN{Value: fmt.Sprint(score)}, false)
	return doc
}

func TestStoreCommitGetDelete(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	store := NewStore(api, "documents")

	doc := storagemodels.NewDocument(storagemodels.Key{Kind: "Player"})
	doc.Set("name", &types.AttributeValueMemberS{Value: "Ana"}, false)
	doc.Set("bio", &types.AttributeValueMemberS{Value: "left handed"}, true)

	keys, err := store.Commit(ctx, storagemodels.Insert(doc))
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.False(t, keys[0].Incomplete())
	assert.True(t, doc.Key.Incomplete(), "caller document must not be mutated")

	stored := api.items["Player|"+keys[0].ID]
	require.NotNil(t, stored)
	assert.Equal(t, &types.AttributeValueMemberSS{Value: []string{"bio"}}, stored[AttrNoIndex])

	got, err := store.Get(ctx, keys[0])
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, keys[0], got.Key)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "Ana"}, got.Properties["name"].Value)
	assert.True(t, got.Properties["bio"].ExcludeFromIndexes)
	assert.False(t, got.Properties["name"].ExcludeFromIndexes)
	_, hasNoIndex := got.Properties[AttrNoIndex]
	assert.False(t, hasNoIndex)

	require.NoError(t, store.Delete(ctx, keys[0]))
	got, err = store.Get(ctx, keys[0])
	require.NoError(t, err)
	assert.Nil(t, got)

	// deleting again is fine
	require.NoError(t, store.Delete(ctx, keys[0]))
}

func TestStoreExistenceConditions(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newFakeAPI(), "documents")

	_, err := store.Commit(ctx, storagemodels.Update(scoreDoc("Player", "missing", 1)))
	assert.True(t, emerrors.IsNoEntityToUpdate(err), "got %v", err)

	_, err = store.Commit(ctx, storagemodels.Update(storagemodels.NewDocument(storagemodels.Key{Kind: "Player"})))
	assert.True(t, emerrors.IsNoEntityToUpdate(err), "got %v", err)

	_, err = store.Commit(ctx, storagemodels.Insert(scoreDoc("Player", "p1", 1)))
	require.NoError(t, err)
	_, err = store.Commit(ctx, storagemodels.Insert(scoreDoc("Player", "p1", 2)))
	assert.True(t, emerrors.IsAlreadyExists(err), "got %v", err)

	_, err = store.Commit(ctx, storagemodels.Update(scoreDoc("Player", "p1", 3)))
	require.NoError(t, err)
	_, err = store.Commit(ctx, storagemodels.Upsert(scoreDoc("Player", "p2", 4)))
	require.NoError(t, err)

	got, err := store.Get(ctx, storagemodels.Key{Kind: "Player", ID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "3"}, got.Properties["score"].Value)
}

func TestStoreTransactionalCommit(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	store := NewStore(api, "documents")

	_, err := store.Commit(ctx, storagemodels.Insert(scoreDoc("Player", "p1", 1)))
	require.NoError(t, err)

	_, err = store.Commit(ctx,
		storagemodels.Insert(scoreDoc("Player", "p2", 2)),
		storagemodels.Update(scoreDoc("Player", "ghost", 3)),
	)
	assert.True(t, emerrors.IsNoEntityToUpdate(err), "got %v", err)
	assert.Len(t, api.items, 1, "nothing may be written when one mutation fails")

	keys, err := store.Commit(ctx,
		storagemodels.Insert(scoreDoc("Player", "", 2)),
		storagemodels.Update(scoreDoc("Player", "p1", 5)),
	)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.False(t, keys[0].Incomplete())
	assert.Equal(t, "p1", keys[1].ID)
	assert.Len(t, api.items, 2)

	var many []storagemodels.Mutation
	for i := 0; i <= maxTransactItems; i++ {
		many = append(many, storagemodels.Upsert(scoreDoc("Player", "", i)))
	}
	_, err = store.Commit(ctx, many...)
	assert.True(t, emerrors.IsValidationError(err))
}

func TestStoreRunQueryPages(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	store := NewStore(api, "documents", WithPageSize(3))

	for i := 0; i < 10; i++ {
		_, err := store.Commit(ctx, storagemodels.Insert(scoreDoc("Player", fmt.Sprintf("p%02d", i), i%4)))
		require.NoError(t, err)
	}
	_, err := store.Commit(ctx, storagemodels.Insert(scoreDoc("Club", "c1", 1)))
	require.NoError(t, err)

	q := storagemodels.NewQuery("Player").
		Filter("score", storagemodels.GreaterThanOrEqual, &types.AttributeValueMemberN{Value: "2"}).
		OrderBy("score", storagemodels.Descending).
		Take(3)

	res, err := store.RunQuery(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 4, api.queryCalls, "10 items at 3 per page take 4 requests")

	var ids []string
	for _, d := range res.Documents() {
		ids = append(ids, d.Key.ID)
	}
	assert.Equal(t, []string{"p03", "p07", "p02"}, ids)

	res, err = store.RunQuery(ctx, q.Clone().StartAt(res.End))
	require.NoError(t, err)
	ids = ids[:0]
	for _, d := range res.Documents() {
		ids = append(ids, d.Key.ID)
	}
	assert.Equal(t, []string{"p06"}, ids)
}

func TestStoreRunQueryRetriesThrottling(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	store := NewStore(api, "documents", WithRetries(2, time.Millisecond))
	_, err := store.Commit(ctx, storagemodels.Insert(scoreDoc("Player", "p1", 1)))
	require.NoError(t, err)

	api.throttle = 2
	res, err := store.RunQuery(ctx, storagemodels.NewQuery("Player"))
	require.NoError(t, err)
	assert.Len(t, res.Entries, 1)
	assert.Equal(t, 3, api.queryCalls)

	api.queryCalls = 0
	api.throttle = 5
	_, err = store.RunQuery(ctx, storagemodels.NewQuery("Player"))
	require.Error(t, err)
	assert.Equal(t, 3, api.queryCalls)

	api.queryCalls = 0
	api.throttle = 0
	api.queryErr = errors.New("validation exception")
	_, err = store.RunQuery(ctx, storagemodels.NewQuery("Player"))
	require.Error(t, err)
	assert.Equal(t, 1, api.queryCalls, "non-retryable errors fail immediately")
}

func TestStoreRunQueryRejectsUnencodedPredicates(t *testing.T) {
	store := NewStore(newFakeAPI(), "documents")
	_, err := store.RunQuery(context.Background(), storagemodels.NewQuery("Player").Filter("score", storagemodels.Equal, 3))
	assert.Error(t, err)
}

func TestRetryLogic(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{
			name:      "ProvisionedThroughputExceededException",
			err:       &types.ProvisionedThroughputExceededException{Message: aws.String("Rate exceeded")},
			retryable: true,
		},
		{
			name:      "RequestLimitExceeded",
			err:       &types.RequestLimitExceeded{Message: aws.String("Request limit exceeded")},
			retryable: true,
		},
		{
			name:      "wrapped InternalServerError",
			err:       fmt.Errorf("page 2: %w", &types.InternalServerError{Message: aws.String("boom")}),
			retryable: true,
		},
		{
			name:      "Generic error",
			err:       errors.New("some other error"),
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableError(tt.err))
		})
	}
}
