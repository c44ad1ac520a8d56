/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"

	"github.com/suparena/entitymapper/errors"
)

// FieldResolver turns logical property names into physical field names.
// Unknown names are an error, never passed through.
type FieldResolver interface {
	FieldName(logical string) (string, error)
}

var _ FieldResolver = (*EntityMapping)(nil)

// FieldOf resolves a typed accessor such as func(u *User) any { return &u.Name }.
func FieldOf[T any](r FieldResolver, sel func(*T) any) (string, error) {
	name, err := selectField(typeOf[T](), sel)
	if err != nil {
		return "", err
	}
	return r.FieldName(name)
}

// selectField runs sel against a fresh value and reports which top-level
// field the returned pointer addresses.
func selectField[T any](t reflect.Type, sel func(*T) any) (name string, err error) {
	if t.Kind() != reflect.Struct {
		return "", fmt.Errorf("%w: field selectors need a struct type, got %s", errors.ErrInvalidMapping, t)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: selector on %s panicked: %v", errors.ErrInvalidMapping, t, r)
		}
	}()

	holder := reflect.New(t)
	got := reflect.ValueOf(sel(holder.Interface().(*T)))
	if !got.IsValid() || got.Kind() != reflect.Pointer {
		return "", fmt.Errorf("%w: selector on %s must return a field pointer", errors.ErrInvalidMapping, t)
	}

	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || throughPointer(t, f.Index) {
			continue
		}
		fv := holder.Elem().FieldByIndex(f.Index)
		if fv.Addr().Pointer() == got.Pointer() && fv.Addr().Type() == got.Type() {
			return f.Name, nil
		}
	}
	return "", fmt.Errorf("%w: selector on %s does not address an exported field", errors.ErrInvalidMapping, t)
}
