/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entitymapper/datastore/scan"
	"github.com/suparena/entitymapper/storagemodels"
)

// RunQuery reads the partition of the query kind page by page and evaluates
// predicates, orders and the cursor with the scan engine. Filters are not
// pushed down because list matching and excluded properties follow document
// semantics that FilterExpression does not share.
func (d *Store) RunQuery(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error) {
	if err := scan.Validate(q); err != nil {
		return nil, err
	}

	input := &sdk.QueryInput{
		TableName:              &d.tableName,
		KeyConditionExpression: aws.String("#pk = :kind"),
		ExpressionAttributeNames: map[string]string{
			"#pk": AttrPK,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":kind": &types.AttributeValueMemberS{Value: q.Kind},
		},
		ConsistentRead: aws.Bool(true),
	}
	if d.options.PageSize > 0 {
		input.Limit = aws.Int32(d.options.PageSize)
	}

	var docs []*storagemodels.Document
	paginator := sdk.NewQueryPaginator(&retryingClient{api: d.client, options: d.options}, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query error: %w", err)
		}
		for _, item := range page.Items {
			doc, err := fromItem(item)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}

	return scan.Run(docs, q)
}

// retryingClient retries throttled Query calls with linear backoff.
type retryingClient struct {
	api     API
	options Options
}

func (c *retryingClient) Query(ctx context.Context, input *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= c.options.MaxRetries; attempt++ {
		// Check context before retry
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		out, err := c.api.Query(ctx, input, optFns...)
		if err == nil {
			return out, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}

		// Don't sleep after last attempt
		if attempt < c.options.MaxRetries {
			backoff := time.Duration(attempt+1) * c.options.RetryBackoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("query failed after %d retries: %w", c.options.MaxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var limit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if errors.As(err, &throughput) || errors.As(err, &limit) || errors.As(err, &internal) {
		return true
	}

	// Check for AWS SDK retryable errors
	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	return false
}
