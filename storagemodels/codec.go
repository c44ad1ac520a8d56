/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// The codec writes attribute values in the DynamoDB JSON shape
// ({"S":"x"}, {"N":"1.5"}, {"L":[...]}, ...), so documents persisted by the
// SQLite store or a cache stay readable by the DynamoDB tooling.

// EncodeValue converts an attribute value into its DynamoDB JSON form.
func EncodeValue(av types.AttributeValue) (map[string]any, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return map[string]any{"S": v.Value}, nil
	case *types.AttributeValueMemberN:
		return map[string]any{"N": v.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return map[string]any{"BOOL": v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return map[string]any{"NULL": true}, nil
	case *types.AttributeValueMemberB:
		return map[string]any{"B": base64.StdEncoding.EncodeToString(v.Value)}, nil
	case *types.AttributeValueMemberSS:
		return map[string]any{"SS": append([]string(nil), v.Value...)}, nil
	case *types.AttributeValueMemberNS:
		return map[string]any{"NS": append([]string(nil), v.Value...)}, nil
	case *types.AttributeValueMemberBS:
		out := make([]string, len(v.Value))
		for i, b := range v.Value {
			out[i] = base64.StdEncoding.EncodeToString(b)
		}
		return map[string]any{"BS": out}, nil
	case *types.AttributeValueMemberL:
		out := make([]any, len(v.Value))
		for i, item := range v.Value {
			enc, err := EncodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			out[i] = enc
		}
		return map[string]any{"L": out}, nil
	case *types.AttributeValueMemberM:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			enc, err := EncodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("map entry %q: %w", k, err)
			}
			out[k] = enc
		}
		return map[string]any{"M": out}, nil
	case nil:
		return map[string]any{"NULL": true}, nil
	default:
		return nil, fmt.Errorf("unsupported attribute value %T", av)
	}
}

// DecodeValue is the inverse of EncodeValue for values produced by encoding/json.
func DecodeValue(raw any) (types.AttributeValue, error) {
	m, ok := raw.(map[string]any)
	if !ok || len(m) != 1 {
		return nil, fmt.Errorf("attribute value must be an object with exactly one member, got %T", raw)
	}
	for tag, v := range m {
		switch tag {
		case "S":
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("S member must be a string")
			}
			return &types.AttributeValueMemberS{Value: s}, nil
		case "N":
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("N member must be a string")
			}
			return &types.AttributeValueMemberN{Value: s}, nil
		case "BOOL":
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("BOOL member must be a boolean")
			}
			return &types.AttributeValueMemberBOOL{Value: b}, nil
		case "NULL":
			return &types.AttributeValueMemberNULL{Value: true}, nil
		case "B":
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("B member must be a base64 string")
			}
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("B member: %w", err)
			}
			return &types.AttributeValueMemberB{Value: b}, nil
		case "SS", "NS", "BS":
			items, err := stringList(v)
			if err != nil {
				return nil, fmt.Errorf("%s member: %w", tag, err)
			}
			switch tag {
			case "SS":
				return &types.AttributeValueMemberSS{Value: items}, nil
			case "NS":
				return &types.AttributeValueMemberNS{Value: items}, nil
			}
			bs := make([][]byte, len(items))
			for i, s := range items {
				b, err := base64.StdEncoding.DecodeString(s)
				if err != nil {
					return nil, fmt.Errorf("BS member %d: %w", i, err)
				}
				bs[i] = b
			}
			return &types.AttributeValueMemberBS{Value: bs}, nil
		case "L":
			items, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("L member must be an array")
			}
			out := make([]types.AttributeValue, len(items))
			for i, item := range items {
				av, err := DecodeValue(item)
				if err != nil {
					return nil, fmt.Errorf("list element %d: %w", i, err)
				}
				out[i] = av
			}
			return &types.AttributeValueMemberL{Value: out}, nil
		case "M":
			entries, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("M member must be an object")
			}
			out := make(map[string]types.AttributeValue, len(entries))
			for k, item := range entries {
				av, err := DecodeValue(item)
				if err != nil {
					return nil, fmt.Errorf("map entry %q: %w", k, err)
				}
				out[k] = av
			}
			return &types.AttributeValueMemberM{Value: out}, nil
		default:
			return nil, fmt.Errorf("unknown attribute value tag %q", tag)
		}
	}
	return nil, fmt.Errorf("empty attribute value")
}

func stringList(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return ss, nil
		}
		return nil, fmt.Errorf("must be an array of strings")
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("element %d is not a string", i)
		}
		out[i] = s
	}
	return out, nil
}

type documentJSON struct {
	Kind       string                    `json:"kind"`
	ID         string                    `json:"id"`
	Properties map[string]map[string]any `json:"properties"`
	NoIndex    []string                  `json:"noindex,omitempty"`
}

// MarshalDocument serializes a document, including its exclude-from-indexes annotations.
func MarshalDocument(doc *Document) ([]byte, error) {
	out := documentJSON{
		Kind:       doc.Key.Kind,
		ID:         doc.Key.ID,
		Properties: make(map[string]map[string]any, len(doc.Properties)),
	}
	for name, prop := range doc.Properties {
		enc, err := EncodeValue(prop.Value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		out.Properties[name] = enc
		if prop.ExcludeFromIndexes {
			out.NoIndex = append(out.NoIndex, name)
		}
	}
	sort.Strings(out.NoIndex)
	return json.Marshal(out)
}

// UnmarshalDocument parses the output of MarshalDocument.
func UnmarshalDocument(data []byte) (*Document, error) {
	var in struct {
		Kind       string         `json:"kind"`
		ID         string         `json:"id"`
		Properties map[string]any `json:"properties"`
		NoIndex    []string       `json:"noindex"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	noIndex := make(map[string]bool, len(in.NoIndex))
	for _, name := range in.NoIndex {
		noIndex[name] = true
	}
	doc := NewDocument(Key{Kind: in.Kind, ID: in.ID})
	for name, raw := range in.Properties {
		av, err := DecodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		doc.Set(name, av, noIndex[name])
	}
	return doc, nil
}
