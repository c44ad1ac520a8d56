/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package scan

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entitymapper/storagemodels"
)

// position is the decoded form of a cursor: the order values and key ID of
// the last document handed out.
type position struct {
	Values []any  `json:"v"`
	ID     string `json:"id"`
}

// EncodeCursor builds the cursor positioned right after a document with the
// given order values and ID.
func EncodeCursor(values []types.AttributeValue, id string) (storagemodels.Cursor, error) {
	pos := position{Values: make([]any, len(values)), ID: id}
	for i, v := range values {
		raw, err := storagemodels.EncodeValue(v)
		if err != nil {
			return "", err
		}
		pos.Values[i] = raw
	}
	data, err := json.Marshal(pos)
	if err != nil {
		return "", err
	}
	return storagemodels.Cursor(base64.RawURLEncoding.EncodeToString(data)), nil
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(c storagemodels.Cursor) ([]types.AttributeValue, string, error) {
	data, err := base64.RawURLEncoding.DecodeString(string(c))
	if err != nil {
		return nil, "", fmt.Errorf("invalid cursor: %w", err)
	}
	var pos position
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, "", fmt.Errorf("invalid cursor: %w", err)
	}
	values := make([]types.AttributeValue, len(pos.Values))
	for i, raw := range pos.Values {
		if values[i], err = storagemodels.DecodeValue(raw); err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", err)
		}
	}
	return values, pos.ID, nil
}
