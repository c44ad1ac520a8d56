/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"

	"github.com/suparena/entitymapper/storagemodels"
)

// Common sentinel errors
var (
	// ErrPersistence is matched by every key lifecycle misuse
	ErrPersistence = errors.New("persistence error")

	// ErrResolution is matched when a logical property name cannot be resolved
	ErrResolution = errors.New("unknown property")

	// ErrDecode is matched when a stored document cannot be decoded into an entity
	ErrDecode = errors.New("document decode failed")

	// ErrUnregistered is returned when no mapping is registered for a type
	ErrUnregistered = errors.New("no mapping registered for type")

	// ErrInvalidMapping is returned when a mapping cannot be built
	ErrInvalidMapping = errors.New("invalid mapping")

	// ErrNoEntityToUpdate is returned by stores when an update targets a missing document
	ErrNoEntityToUpdate = errors.New("no entity to update")

	// ErrAlreadyExists is returned by stores when an insert targets an existing document
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrNotFound is returned when a document does not exist and absence is an error
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// Messages used by the repository for key lifecycle violations.
const (
	MsgInsertWithKey    = "Cannot insert instance that already has key set"
	MsgUpdateWithoutKey = "Cannot update an entity that has key null"
)

// PersistenceError reports caller misuse of the key lifecycle. It is raised
// before any store call is made.
type PersistenceError struct {
	Op      string
	Type    string
	Message string
}

func (e *PersistenceError) Error() string {
	return e.Message
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// ResolutionError reports an unknown logical property name.
type ResolutionError struct {
	Type     string
	Property string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s has no mapped property %q", e.Type, e.Property)
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// DecodeError reports a document that could not be brought into the shape of
// its mapping. It only ever concerns the document identified by Key.
type DecodeError struct {
	Key storagemodels.Key
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// StoreError is the store-native error shape. Repositories return it unchanged.
type StoreError struct {
	Op  string
	Key storagemodels.Key
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// UnregisteredError names the type that has no mapping.
type UnregisteredError struct {
	Type string
}

func (e *UnregisteredError) Error() string {
	return fmt.Sprintf("no mapping registered for type %s", e.Type)
}

func (e *UnregisteredError) Is(target error) bool {
	return target == ErrUnregistered
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Helper functions for creating errors

// NewInsertWithKeyError creates the error for inserting an already keyed entity
func NewInsertWithKeyError(entityType string) error {
	return &PersistenceError{Op: "insert", Type: entityType, Message: MsgInsertWithKey}
}

// NewUpdateWithoutKeyError creates the error for updating an unkeyed entity
func NewUpdateWithoutKeyError(entityType string) error {
	return &PersistenceError{Op: "update", Type: entityType, Message: MsgUpdateWithoutKey}
}

// NewResolutionError creates a new ResolutionError
func NewResolutionError(entityType, property string) error {
	return &ResolutionError{Type: entityType, Property: property}
}

// NewDecodeError creates a new DecodeError
func NewDecodeError(key storagemodels.Key, err error) error {
	return &DecodeError{Key: key, Err: err}
}

// NewStoreError creates a new StoreError
func NewStoreError(op string, key storagemodels.Key, err error) error {
	return &StoreError{Op: op, Key: key, Err: err}
}

// NewNoEntityToUpdateError creates the store error for updating a missing document
func NewNoEntityToUpdateError(key storagemodels.Key) error {
	return &StoreError{Op: "update", Key: key, Err: ErrNoEntityToUpdate}
}

// NewAlreadyExistsError creates the store error for inserting an existing document
func NewAlreadyExistsError(key storagemodels.Key) error {
	return &StoreError{Op: "insert", Key: key, Err: ErrAlreadyExists}
}

// NewUnregisteredError creates a new UnregisteredError
func NewUnregisteredError(typeName string) error {
	return &UnregisteredError{Type: typeName}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsPersistence checks if an error is a key lifecycle error
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsResolution checks if an error is an unknown property error
func IsResolution(err error) bool {
	return errors.Is(err, ErrResolution)
}

// IsDecode checks if an error is a document decode error
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsUnregistered checks if an error is a missing mapping error
func IsUnregistered(err error) bool {
	return errors.Is(err, ErrUnregistered)
}

// IsNoEntityToUpdate checks if an error reports an update of a missing document
func IsNoEntityToUpdate(err error) bool {
	return errors.Is(err, ErrNoEntityToUpdate)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
