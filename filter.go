/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitymapper

import (
	"github.com/suparena/entitymapper/registry"
	"github.com/suparena/entitymapper/storagemodels"
)

// Filter shapes a query using logical property names. Implementations resolve
// every name through the resolver; unknown names must fail.
type Filter interface {
	ApplyTo(q *storagemodels.Query, r registry.FieldResolver) error
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(q *storagemodels.Query, r registry.FieldResolver) error

func (f FilterFunc) ApplyTo(q *storagemodels.Query, r registry.FieldResolver) error {
	return f(q, r)
}

// By matches entities whose property, selected by a typed accessor, equals value.
//
//	repo.Query(ctx, entitymapper.By(func(u *User) any { return &u.Email }, "ada@example.com"), "")
func By[T any](sel func(*T) any, value any) Filter {
	return FilterFunc(func(q *storagemodels.Query, r registry.FieldResolver) error {
		field, err := registry.FieldOf(r, sel)
		if err != nil {
			return err
		}
		q.Filter(field, storagemodels.Equal, value)
		return nil
	})
}

type condition struct {
	property string
	op       storagemodels.Operator
	value    any
}

type ordering struct {
	property  string
	direction storagemodels.Direction
}

// Criteria is the common Filter: conditions combined with AND, orders, skip
// and take, all against logical property names.
type Criteria struct {
	conditions []condition
	orders     []ordering
	skip       *int32
	take       *int32
}

var _ Filter = (*Criteria)(nil)

// Where starts a Criteria with one condition.
func Where(property string, op storagemodels.Operator, value any) *Criteria {
	return (&Criteria{}).And(property, op, value)
}

// All starts an empty Criteria.
func All() *Criteria {
	return &Criteria{}
}

// And adds a condition.
func (c *Criteria) And(property string, op storagemodels.Operator, value any) *Criteria {
	c.conditions = append(c.conditions, condition{property: property, op: op, value: value})
	return c
}

// OrderBy sorts ascending by property.
func (c *Criteria) OrderBy(property string) *Criteria {
	c.orders = append(c.orders, ordering{property: property, direction: storagemodels.Ascending})
	return c
}

// OrderByDescending sorts descending by property.
func (c *Criteria) OrderByDescending(property string) *Criteria {
	c.orders = append(c.orders, ordering{property: property, direction: storagemodels.Descending})
	return c
}

// Skip drops the first n matches. It is ignored when the query resumes from a cursor.
func (c *Criteria) Skip(n int32) *Criteria {
	c.skip = &n
	return c
}

// Take caps the page size.
func (c *Criteria) Take(n int32) *Criteria {
	c.take = &n
	return c
}

func (c *Criteria) ApplyTo(q *storagemodels.Query, r registry.FieldResolver) error {
	for _, cond := range c.conditions {
		field, err := r.FieldName(cond.property)
		if err != nil {
			return err
		}
		q.Filter(field, cond.op, cond.value)
	}
	for _, o := range c.orders {
		field, err := r.FieldName(o.property)
		if err != nil {
			return err
		}
		q.OrderBy(field, o.direction)
	}
	if c.skip != nil {
		q.Skip(*c.skip)
	}
	if c.take != nil {
		q.Take(*c.take)
	}
	return nil
}
