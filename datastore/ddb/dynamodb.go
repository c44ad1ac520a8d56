/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/charmbracelet/log"

	"github.com/suparena/entitymapper/datastore"
	emerrors "github.com/suparena/entitymapper/errors"
	"github.com/suparena/entitymapper/storagemodels"
)

// Attribute names of the single-table item layout.
const (
	AttrPK      = "PK"
	AttrSK      = "SK"
	AttrNoIndex = "_noindex"
)

// maxTransactItems is the DynamoDB limit for one TransactWriteItems call.
const maxTransactItems = 100

// API is the part of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *sdk.TransactWriteItemsInput, optFns ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error)
}

// Options tunes the store.
type Options struct {
	// PageSize is the Limit of each Query request.
	PageSize int32
	// MaxRetries bounds retries of throttled Query requests.
	MaxRetries int
	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff time.Duration
}

// DefaultOptions returns the defaults used by NewStore.
func DefaultOptions() Options {
	return Options{
		PageSize:     100,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
	}
}

// Store implements datastore.Store on one DynamoDB table with PK = kind and SK = id.
type Store struct {
	client    API
	tableName string
	options   Options
}

var _ datastore.Store = (*Store)(nil)

// ClientConfig describes how to reach DynamoDB.
type ClientConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string
}

// NewDynamoDBClient initializes a DynamoDB client. Static credentials are used
// when an access key is given, otherwise the default AWS credential chain.
func NewDynamoDBClient(ctx context.Context, cc ClientConfig) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cc.Region)}
	if cc.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cc.AccessKey, cc.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if cc.Endpoint != "" {
			o.BaseEndpoint = aws.String(cc.Endpoint)
		}
	})

	log.Debug("DynamoDB client initialized", "region", cc.Region, "endpoint", cc.Endpoint)
	return client, nil
}

// NewStore constructs a store over an existing client.
func NewStore(client API, tableName string, opts ...func(*Options)) *Store {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Store{client: client, tableName: tableName, options: options}
}

// WithPageSize sets the Query page size.
func WithPageSize(n int32) func(*Options) {
	return func(o *Options) { o.PageSize = n }
}

// WithRetries sets the retry budget for throttled queries.
func WithRetries(max int, backoff time.Duration) func(*Options) {
	return func(o *Options) {
		o.MaxRetries = max
		o.RetryBackoff = backoff
	}
}

// TableName returns the table the store writes to.
func (d *Store) TableName() string {
	return d.tableName
}

func itemKey(key storagemodels.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPK: &types.AttributeValueMemberS{Value: key.Kind},
		AttrSK: &types.AttributeValueMemberS{Value: key.ID},
	}
}

// toItem lays a document out as a DynamoDB item. Excluded property names are
// kept in a string set next to the values.
func toItem(doc *storagemodels.Document) map[string]types.AttributeValue {
	item := itemKey(doc.Key)
	var noindex []string
	for name, p := range doc.Properties {
		value := p.Value
		if value == nil {
			value = &types.AttributeValueMemberNULL{Value: true}
		}
		item[name] = value
		if p.ExcludeFromIndexes {
			noindex = append(noindex, name)
		}
	}
	if len(noindex) > 0 {
		sort.Strings(noindex)
		item[AttrNoIndex] = &types.AttributeValueMemberSS{Value: noindex}
	}
	return item
}

func fromItem(item map[string]types.AttributeValue) (*storagemodels.Document, error) {
	pk, ok := item[AttrPK].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("item without string %s", AttrPK)
	}
	sk, ok := item[AttrSK].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("item without string %s", AttrSK)
	}

	excluded := make(map[string]bool)
	if ss, ok := item[AttrNoIndex].(*types.AttributeValueMemberSS); ok {
		for _, name := range ss.Value {
			excluded[name] = true
		}
	}

	doc := storagemodels.NewDocument(storagemodels.Key{Kind: pk.Value, ID: sk.Value})
	for name, value := range item {
		if name == AttrPK || name == AttrSK || name == AttrNoIndex {
			continue
		}
		doc.Set(name, value, excluded[name])
	}
	return doc, nil
}

type preparedWrite struct {
	op        storagemodels.Op
	key       storagemodels.Key
	item      map[string]types.AttributeValue
	condition *string
}

func prepare(mut storagemodels.Mutation) (preparedWrite, error) {
	if mut.Document == nil {
		return preparedWrite{}, emerrors.NewValidationError("document", "mutation without document")
	}
	doc := mut.Document.Clone()
	w := preparedWrite{op: mut.Op}

	switch mut.Op {
	case storagemodels.OpInsert:
		doc.Key = datastore.CompleteKey(doc.Key)
		w.condition = aws.String("attribute_not_exists(" + AttrPK + ")")
	case storagemodels.OpUpdate:
		if doc.Key.Incomplete() {
			return preparedWrite{}, emerrors.NewNoEntityToUpdateError(doc.Key)
		}
		w.condition = aws.String("attribute_exists(" + AttrPK + ")")
	case storagemodels.OpUpsert:
		doc.Key = datastore.CompleteKey(doc.Key)
	default:
		return preparedWrite{}, emerrors.NewValidationError("op", "unknown mutation "+mut.Op.String())
	}

	w.key = doc.Key
	w.item = toItem(doc)
	return w, nil
}

// conditionError maps a failed existence condition to the store error of the write.
func (w preparedWrite) conditionError() error {
	if w.op == storagemodels.OpUpdate {
		return emerrors.NewNoEntityToUpdateError(w.key)
	}
	return emerrors.NewAlreadyExistsError(w.key)
}

// Commit writes all mutations atomically. A single mutation is a conditional
// PutItem; several use one TransactWriteItems call.
func (d *Store) Commit(ctx context.Context, mutations ...storagemodels.Mutation) ([]storagemodels.Key, error) {
	if len(mutations) == 0 {
		return nil, nil
	}
	if len(mutations) > maxTransactItems {
		return nil, emerrors.NewValidationError("mutations", fmt.Sprintf("at most %d mutations per commit", maxTransactItems))
	}

	writes := make([]preparedWrite, len(mutations))
	keys := make([]storagemodels.Key, len(mutations))
	for i, mut := range mutations {
		w, err := prepare(mut)
		if err != nil {
			return nil, err
		}
		writes[i] = w
		keys[i] = w.key
	}

	if len(writes) == 1 {
		w := writes[0]
		_, err := d.client.PutItem(ctx, &sdk.PutItemInput{
			TableName:           &d.tableName,
			Item:                w.item,
			ConditionExpression: w.condition,
		})
		if err != nil {
			var cfe *types.ConditionalCheckFailedException
			if errors.As(err, &cfe) {
				return nil, w.conditionError()
			}
			return nil, emerrors.NewStoreError(w.op.String(), w.key, fmt.Errorf("PutItem failed: %w", err))
		}
		return keys, nil
	}

	items := make([]types.TransactWriteItem, len(writes))
	for i, w := range writes {
		items[i] = types.TransactWriteItem{Put: &types.Put{
			TableName:           &d.tableName,
			Item:                w.item,
			ConditionExpression: w.condition,
		}}
	}
	_, err := d.client.TransactWriteItems(ctx, &sdk.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		return nil, mapTransactionError(err, writes)
	}
	return keys, nil
}

// mapTransactionError reports the first write whose condition failed.
func mapTransactionError(err error, writes []preparedWrite) error {
	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for i, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" && i < len(writes) {
				return writes[i].conditionError()
			}
		}
	}
	return emerrors.NewStoreError("commit", writes[0].key, fmt.Errorf("TransactWriteItems failed: %w", err))
}

// Get retrieves a single document. It returns nil, nil if no item is found.
func (d *Store) Get(ctx context.Context, key storagemodels.Key) (*storagemodels.Document, error) {
	if key.Incomplete() {
		return nil, nil
	}
	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &d.tableName,
		Key:            itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, emerrors.NewStoreError("get", key, fmt.Errorf("GetItem error: %w", err))
	}
	if out.Item == nil {
		return nil, nil
	}
	return fromItem(out.Item)
}

// Delete removes an item. Deleting a missing item succeeds.
func (d *Store) Delete(ctx context.Context, key storagemodels.Key) error {
	if key.Incomplete() {
		return nil
	}
	_, err := d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: &d.tableName,
		Key:       itemKey(key),
	})
	if err != nil {
		return emerrors.NewStoreError("delete", key, fmt.Errorf("failed to delete item in DynamoDB: %w", err))
	}
	return nil
}
