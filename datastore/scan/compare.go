/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package scan

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/suparena/entitymapper/storagemodels"
)

// Values of different types order by rank: NULL < BOOL < N < S < B < others.
func rank(av types.AttributeValue) int {
	switch av.(type) {
	case nil, *types.AttributeValueMemberNULL:
		return 0
	case *types.AttributeValueMemberBOOL:
		return 1
	case *types.AttributeValueMemberN:
		return 2
	case *types.AttributeValueMemberS:
		return 3
	case *types.AttributeValueMemberB:
		return 4
	default:
		return 5
	}
}

// Compare orders two attribute values. Numbers compare by value, so "10.50"
// equals "10.5".
func Compare(a, b types.AttributeValue) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch av := a.(type) {
	case *types.AttributeValueMemberBOOL:
		bv := b.(*types.AttributeValueMemberBOOL)
		switch {
		case av.Value == bv.Value:
			return 0
		case !av.Value:
			return -1
		default:
			return 1
		}
	case *types.AttributeValueMemberN:
		bv := b.(*types.AttributeValueMemberN)
		da, errA := decimal.NewFromString(av.Value)
		db, errB := decimal.NewFromString(bv.Value)
		if errA != nil || errB != nil {
			return strings.Compare(av.Value, bv.Value)
		}
		return da.Cmp(db)
	case *types.AttributeValueMemberS:
		return strings.Compare(av.Value, b.(*types.AttributeValueMemberS).Value)
	case *types.AttributeValueMemberB:
		return bytes.Compare(av.Value, b.(*types.AttributeValueMemberB).Value)
	case nil, *types.AttributeValueMemberNULL:
		return 0
	}
	return strings.Compare(canonical(a), canonical(b))
}

// canonical gives composite values a deterministic order.
func canonical(av types.AttributeValue) string {
	raw, err := storagemodels.EncodeValue(av)
	if err != nil {
		return ""
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(data)
}

// elements expands list and set values for predicate matching.
func elements(av types.AttributeValue) []types.AttributeValue {
	switch v := av.(type) {
	case *types.AttributeValueMemberL:
		return v.Value
	case *types.AttributeValueMemberSS:
		out := make([]types.AttributeValue, len(v.Value))
		for i, s := range v.Value {
			out[i] = &types.AttributeValueMemberS{Value: s}
		}
		return out
	case *types.AttributeValueMemberNS:
		out := make([]types.AttributeValue, len(v.Value))
		for i, n := range v.Value {
			out[i] = &types.AttributeValueMemberN{Value: n}
		}
		return out
	case *types.AttributeValueMemberBS:
		out := make([]types.AttributeValue, len(v.Value))
		for i, b := range v.Value {
			out[i] = &types.AttributeValueMemberB{Value: b}
		}
		return out
	}
	return nil
}

func matches(op storagemodels.Operator, c int) bool {
	switch op {
	case storagemodels.Equal:
		return c == 0
	case storagemodels.NotEqual:
		return c != 0
	case storagemodels.LessThan:
		return c < 0
	case storagemodels.LessThanOrEqual:
		return c <= 0
	case storagemodels.GreaterThan:
		return c > 0
	case storagemodels.GreaterThanOrEqual:
		return c >= 0
	}
	return false
}
