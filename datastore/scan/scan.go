/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package scan is the reference query engine for stores that evaluate
// queries in process. It implements the full storagemodels.Query contract
// over a slice of documents.
package scan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entitymapper/storagemodels"
)

type candidate struct {
	doc    *storagemodels.Document
	values []types.AttributeValue
}

// Validate checks that a query can be evaluated.
func Validate(q *storagemodels.Query) error {
	if q == nil {
		return fmt.Errorf("nil query")
	}
	if q.Kind == "" {
		return fmt.Errorf("query without kind")
	}
	if q.Offset < 0 {
		return fmt.Errorf("negative offset %d", q.Offset)
	}
	if q.Limit != nil && *q.Limit < 0 {
		return fmt.Errorf("negative limit %d", *q.Limit)
	}
	for _, p := range q.Predicates {
		if !p.Op.Valid() {
			return fmt.Errorf("unsupported operator %q on %s", p.Op, p.Field)
		}
		if _, ok := p.Value.(types.AttributeValue); !ok && p.Value != nil {
			return fmt.Errorf("predicate on %s holds unencoded %T", p.Field, p.Value)
		}
	}
	return nil
}

// Run evaluates q over docs. Documents of other kinds are ignored. Returned
// documents are copies.
func Run(docs []*storagemodels.Document, q *storagemodels.Query) (*storagemodels.QueryResult, error) {
	if err := Validate(q); err != nil {
		return nil, err
	}

	var start []types.AttributeValue
	var startID string
	if q.Start != "" {
		var err error
		if start, startID, err = DecodeCursor(q.Start); err != nil {
			return nil, err
		}
		if len(start) != len(q.Orders) {
			return nil, fmt.Errorf("cursor does not match the query orders")
		}
	}

	var matched []candidate
	for _, doc := range docs {
		if doc.Key.Kind != q.Kind || !filter(doc, q.Predicates) {
			continue
		}
		values, ok := orderValues(doc, q.Orders)
		if !ok {
			continue
		}
		matched = append(matched, candidate{doc: doc, values: values})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return compareTuple(matched[i].values, matched[i].doc.Key.ID, matched[j].values, matched[j].doc.Key.ID, q.Orders) < 0
	})

	if q.Start != "" {
		i := sort.Search(len(matched), func(i int) bool {
			return compareTuple(matched[i].values, matched[i].doc.Key.ID, start, startID, q.Orders) > 0
		})
		matched = matched[i:]
	}

	if int(q.Offset) >= len(matched) {
		matched = nil
	} else {
		matched = matched[q.Offset:]
	}
	if q.Limit != nil && int(*q.Limit) < len(matched) {
		matched = matched[:*q.Limit]
	}

	result := &storagemodels.QueryResult{End: q.Start}
	for _, c := range matched {
		cursor, err := EncodeCursor(c.values, c.doc.Key.ID)
		if err != nil {
			return nil, err
		}
		result.Entries = append(result.Entries, storagemodels.Entry{Document: c.doc.Clone(), Cursor: cursor})
		result.End = cursor
	}
	return result, nil
}

// indexed returns the value of a field visible to predicates and orders.
func indexed(doc *storagemodels.Document, field string) (types.AttributeValue, bool) {
	if field == storagemodels.KeyField {
		return &types.AttributeValueMemberS{Value: doc.Key.ID}, true
	}
	p, ok := doc.Properties[field]
	if !ok || p.ExcludeFromIndexes {
		return nil, false
	}
	if p.Value == nil {
		return &types.AttributeValueMemberNULL{Value: true}, true
	}
	return p.Value, true
}

func filter(doc *storagemodels.Document, predicates []storagemodels.Predicate) bool {
	for _, p := range predicates {
		v, ok := indexed(doc, p.Field)
		if !ok {
			return false
		}
		want, _ := p.Value.(types.AttributeValue)
		if items := elements(v); items != nil {
			if !anyMatches(items, p.Op, want) {
				return false
			}
			continue
		}
		if !matches(p.Op, Compare(v, want)) {
			return false
		}
	}
	return true
}

func anyMatches(items []types.AttributeValue, op storagemodels.Operator, want types.AttributeValue) bool {
	for _, item := range items {
		if matches(op, Compare(item, want)) {
			return true
		}
	}
	return false
}

// orderValues reports false for documents lacking an indexed value for an
// order field; such documents are left out of ordered results.
func orderValues(doc *storagemodels.Document, orders []storagemodels.Order) ([]types.AttributeValue, bool) {
	values := make([]types.AttributeValue, len(orders))
	for i, o := range orders {
		v, ok := indexed(doc, o.Field)
		if !ok {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

func compareTuple(a []types.AttributeValue, aID string, b []types.AttributeValue, bID string, orders []storagemodels.Order) int {
	for i, o := range orders {
		c := Compare(a[i], b[i])
		if o.Direction == storagemodels.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return strings.Compare(aID, bID)
}
