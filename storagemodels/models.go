/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Key identifies a stored document. An empty ID marks an incomplete key that
// the store completes on insert.
type Key struct {
	Kind string
	ID   string
}

// Incomplete reports whether the key still waits for a store-assigned ID.
func (k Key) Incomplete() bool {
	return k.ID == ""
}

func (k Key) String() string {
	if k.Incomplete() {
		return k.Kind + "/<incomplete>"
	}
	return k.Kind + "/" + k.ID
}

// Property is a single stored value together with its per-property annotations.
type Property struct {
	// Value is the encoded value using the DynamoDB attribute value vocabulary.
	Value types.AttributeValue
	// ExcludeFromIndexes hides the property from query predicates and orders.
	// It never changes how the value itself is encoded.
	ExcludeFromIndexes bool
}

// Properties maps physical field names to stored properties.
type Properties map[string]Property

// Clone returns a shallow copy; attribute values are immutable by convention.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Document is the generic field/value container exchanged with a store.
type Document struct {
	Key        Key
	Properties Properties
}

// NewDocument creates an empty document for the given key.
func NewDocument(key Key) *Document {
	return &Document{Key: key, Properties: make(Properties)}
}

// Set stores a property value.
func (d *Document) Set(name string, value types.AttributeValue, excludeFromIndexes bool) {
	if d.Properties == nil {
		d.Properties = make(Properties)
	}
	d.Properties[name] = Property{Value: value, ExcludeFromIndexes: excludeFromIndexes}
}

// Clone copies the document so that stores never share property maps with callers.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return &Document{Key: d.Key, Properties: d.Properties.Clone()}
}

// Op is the kind of write a mutation performs.
type Op int

const (
	// OpInsert writes a new document; the store assigns an ID to incomplete keys
	// and fails if the document already exists.
	OpInsert Op = iota
	// OpUpdate overwrites an existing document and fails if there is none.
	OpUpdate
	// OpUpsert writes the document unconditionally.
	OpUpsert
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpUpsert:
		return "upsert"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Mutation is one write within a commit.
type Mutation struct {
	Op       Op
	Document *Document
}

// Insert builds an insert mutation.
func Insert(doc *Document) Mutation { return Mutation{Op: OpInsert, Document: doc} }

// Update builds an update mutation.
func Update(doc *Document) Mutation { return Mutation{Op: OpUpdate, Document: doc} }

// Upsert builds an upsert mutation.
func Upsert(doc *Document) Mutation { return Mutation{Op: OpUpsert, Document: doc} }

// KeyField is the pseudo field name under which predicates and orders address
// the document key ID.
const KeyField = "__key__"

// ReservedNames are physical names that stores use for their own bookkeeping.
// Mappings may not declare properties with these names.
var ReservedNames = map[string]bool{
	"PK":       true,
	"SK":       true,
	"_noindex": true,
	KeyField:   true,
}
