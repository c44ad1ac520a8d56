/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entitymapper/storagemodels"
)

// operators are tried longest first so that ">=" is not read as ">".
var operators = []storagemodels.Operator{
	storagemodels.GreaterThanOrEqual,
	storagemodels.LessThanOrEqual,
	storagemodels.NotEqual,
	storagemodels.GreaterThan,
	storagemodels.LessThan,
	storagemodels.Equal,
}

func buildQuery(kind string, where, order []string, desc bool) (*storagemodels.Query, error) {
	q := storagemodels.NewQuery(kind)
	for _, w := range where {
		field, op, value, err := parseCondition(w)
		if err != nil {
			return nil, err
		}
		q.Filter(field, op, value)
	}
	dir := storagemodels.Ascending
	if desc {
		dir = storagemodels.Descending
	}
	for _, field := range order {
		q.OrderBy(field, dir)
	}
	return q, nil
}

// parseCondition splits "field<op>value" at the first operator.
func parseCondition(s string) (string, storagemodels.Operator, types.AttributeValue, error) {
	at, opLen := -1, 0
	var found storagemodels.Operator
	for _, op := range operators {
		i := strings.Index(s, string(op))
		if i < 0 {
			continue
		}
		if at < 0 || i < at || (i == at && len(op) > opLen) {
			at, opLen, found = i, len(op), op
		}
	}
	if at <= 0 {
		return "", "", nil, fmt.Errorf("invalid condition %q: want field<op>value", s)
	}
	field := strings.TrimSpace(s[:at])
	return field, found, literal(strings.TrimSpace(s[at+opLen:])), nil
}

// literal reads a command line value as the attribute value it most likely denotes.
func literal(s string) types.AttributeValue {
	switch {
	case s == "null":
		return &types.AttributeValueMemberNULL{Value: true}
	case s == "true" || s == "false":
		return &types.AttributeValueMemberBOOL{Value: s == "true"}
	case len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"':
		if u, err := strconv.Unquote(s); err == nil {
			return &types.AttributeValueMemberS{Value: u}
		}
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return &types.AttributeValueMemberN{Value: s}
	}
	return &types.AttributeValueMemberS{Value: s}
}

// render prints a document as plain JSON with its key, or in the typed
// storage encoding when raw is set.
func render(doc *storagemodels.Document, raw bool) (json.RawMessage, error) {
	if raw {
		return storagemodels.MarshalDocument(doc)
	}

	item := make(map[string]types.AttributeValue, len(doc.Properties))
	for name, p := range doc.Properties {
		if p.Value == nil {
			item[name] = &types.AttributeValueMemberNULL{Value: true}
			continue
		}
		item[name] = p.Value
	}
	var plain map[string]any
	if err := attributevalue.UnmarshalMap(item, &plain); err != nil {
		return nil, fmt.Errorf("decode %s: %w", doc.Key, err)
	}
	if plain == nil {
		plain = map[string]any{}
	}
	plain[storagemodels.KeyField] = doc.Key.ID

	out, err := json.MarshalIndent(plain, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", doc.Key, err)
	}
	return out, nil
}
