/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// Operator is a comparison used by a query predicate.
type Operator string

const (
	Equal              Operator = "="
	NotEqual           Operator = "!="
	LessThan           Operator = "<"
	LessThanOrEqual    Operator = "<="
	GreaterThan        Operator = ">"
	GreaterThanOrEqual Operator = ">="
)

// Valid reports whether the operator is supported by the stores.
func (o Operator) Valid() bool {
	switch o {
	case Equal, NotEqual, LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual:
		return true
	}
	return false
}

// Predicate compares a physical field against a value.
//
// Value is whatever the filter supplied. The repository encodes it to a
// types.AttributeValue before the query reaches a store; stores only accept
// encoded values.
type Predicate struct {
	Field string
	Op    Operator
	Value any
}

// Direction of an order clause.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Order sorts results by a physical field.
type Order struct {
	Field     string
	Direction Direction
}

// Cursor is an opaque continuation token. The empty cursor means "from the start".
type Cursor string

// Query is the store-native query shape.
type Query struct {
	// Kind selects the logical collection.
	Kind string
	// Predicates are combined with AND.
	Predicates []Predicate
	// Orders are applied in sequence; stores break ties by key ID.
	Orders []Order
	// Offset skips matching documents after Start.
	Offset int32
	// Limit caps the number of returned documents; nil means no limit.
	Limit *int32
	// Start resumes scanning after the position it encodes.
	Start Cursor
}

// NewQuery starts a query over one kind.
func NewQuery(kind string) *Query {
	return &Query{Kind: kind}
}

// Filter adds a predicate.
func (q *Query) Filter(field string, op Operator, value any) *Query {
	q.Predicates = append(q.Predicates, Predicate{Field: field, Op: op, Value: value})
	return q
}

// OrderBy adds an order clause.
func (q *Query) OrderBy(field string, dir Direction) *Query {
	q.Orders = append(q.Orders, Order{Field: field, Direction: dir})
	return q
}

// Skip sets the offset.
func (q *Query) Skip(n int32) *Query {
	q.Offset = n
	return q
}

// Take sets the limit.
func (q *Query) Take(n int32) *Query {
	q.Limit = &n
	return q
}

// StartAt resumes after the cursor.
func (q *Query) StartAt(c Cursor) *Query {
	q.Start = c
	return q
}

// Clone copies the query so it can be rewritten without affecting the caller.
func (q *Query) Clone() *Query {
	out := *q
	out.Predicates = append([]Predicate(nil), q.Predicates...)
	out.Orders = append([]Order(nil), q.Orders...)
	if q.Limit != nil {
		limit := *q.Limit
		out.Limit = &limit
	}
	return &out
}

// Entry is one document returned by a query with the cursor positioned right after it.
type Entry struct {
	Document *Document
	Cursor   Cursor
}

// QueryResult is what a store returns for a query.
type QueryResult struct {
	Entries []Entry
	// End is positioned after the last returned entry, or equals the start
	// cursor when nothing was returned.
	End Cursor
}

// Documents returns the documents in result order.
func (r *QueryResult) Documents() []*Document {
	docs := make([]*Document, len(r.Entries))
	for i, e := range r.Entries {
		docs[i] = e.Document
	}
	return docs
}
