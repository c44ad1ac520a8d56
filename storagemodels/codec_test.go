/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestDocumentCodec(t *testing.T) {
	doc := NewDocument(Key{Kind: "Order", ID: "o-1"})
	doc.Set("total", &types.AttributeValueMemberN{Value: "10.5"}, false)
	doc.Set("notes", &types.AttributeValueMemberS{Value: "leave at door"}, true)
	doc.Set("paid", &types.AttributeValueMemberBOOL{Value: true}, false)
	doc.Set("coupon", &types.AttributeValueMemberNULL{Value: true}, false)
	doc.Set("blob", &types.AttributeValueMemberB{Value: []byte{1, 2, 3}}, true)
	doc.Set("lines", &types.AttributeValueMemberL{Value: []types.AttributeValue{
		&types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"sku": &types.AttributeValueMemberS{Value: "A-1"},
			"qty": &types.AttributeValueMemberN{Value: "2"},
		}},
	}}, false)
	doc.Set("tags", &types.AttributeValueMemberSS{Value: []string{"x", "y"}}, false)

	data, err := MarshalDocument(doc)
	if err != nil {
		t.Fatalf("MarshalDocument failed: %v", err)
	}

	got, err := UnmarshalDocument(data)
	if err != nil {
		t.Fatalf("UnmarshalDocument failed: %v", err)
	}

	if got.Key != doc.Key {
		t.Fatalf("Expected key %v, got %v", doc.Key, got.Key)
	}
	if !reflect.DeepEqual(got.Properties, doc.Properties) {
		t.Fatalf("Properties mismatch:\nwant %#v\ngot  %#v", doc.Properties, got.Properties)
	}
	if !got.Properties["notes"].ExcludeFromIndexes || got.Properties["total"].ExcludeFromIndexes {
		t.Fatal("exclude-from-indexes flags were not preserved")
	}
}

func TestDecodeValueRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"not an object", "S"},
		{"two members", map[string]any{"S": "a", "N": "1"}},
		{"unknown tag", map[string]any{"X": "a"}},
		{"S not string", map[string]any{"S": 1.0}},
		{"bad base64", map[string]any{"B": "%%%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeValue(tt.raw); err == nil {
				t.Errorf("expected error for %v", tt.raw)
			}
		})
	}
}

func TestQueryClone(t *testing.T) {
	q := NewQuery("Order").
		Filter("status", Equal, &types.AttributeValueMemberS{Value: "open"}).
		OrderBy("createdAt", Descending).
		Take(5)

	c := q.Clone()
	*c.Limit = 6
	c.Filter("paid", Equal, &types.AttributeValueMemberBOOL{Value: true})

	if *q.Limit != 5 {
		t.Errorf("expected original limit 5, got %d", *q.Limit)
	}
	if len(q.Predicates) != 1 {
		t.Errorf("expected original to keep 1 predicate, got %d", len(q.Predicates))
	}
}

func TestKeyString(t *testing.T) {
	if got := (Key{Kind: "User"}).String(); got != "User/<incomplete>" {
		t.Errorf("unexpected incomplete key string %q", got)
	}
	if got := (Key{Kind: "User", ID: "42"}).String(); got != "User/42" {
		t.Errorf("unexpected key string %q", got)
	}
}
