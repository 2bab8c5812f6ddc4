/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an archived record or stream is not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration is returned when a stream has no usable archive configuration
	ErrConfiguration = errors.New("archive configuration error")

	// ErrStoreRequest is returned when a scan, query or get against the archive fails
	ErrStoreRequest = errors.New("archive store request failed")

	// ErrHandler is returned when a per-record handler fails
	ErrHandler = errors.New("record handler failed")

	// ErrProtocolMisuse is returned when the engine is driven without a record sink
	ErrProtocolMisuse = errors.New("protocol misuse")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
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

// ConfigurationError is fatal and raised before any store I/O takes place.
type ConfigurationError struct {
	Stream string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("archive configuration for stream %q: %s", e.Stream, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// StoreRequestError wraps a failed Scan, Query or GetItem call. Page is the
// 1-based number of the page request that failed.
type StoreRequestError struct {
	Operation string
	Table     string
	Page      int
	Err       error
}

func (e *StoreRequestError) Error() string {
	return fmt.Sprintf("%s on table %q failed at page %d: %v", e.Operation, e.Table, e.Page, e.Err)
}

func (e *StoreRequestError) Is(target error) bool {
	return target == ErrStoreRequest
}

func (e *StoreRequestError) Unwrap() error {
	return e.Err
}

// HandlerError represents a single record that could not be processed
type HandlerError struct {
	PartitionKey   string
	SequenceNumber string
	Err            error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler failed for record %s/%s: %v", e.PartitionKey, e.SequenceNumber, e.Err)
}

func (e *HandlerError) Is(target error) bool {
	return target == ErrHandler
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// ProtocolMisuseError is returned immediately when an operation is started incorrectly
type ProtocolMisuseError struct {
	Message string
}

func (e *ProtocolMisuseError) Error() string {
	return "protocol misuse: " + e.Message
}

func (e *ProtocolMisuseError) Is(target error) bool {
	return target == ErrProtocolMisuse
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(stream, reason string, err error) error {
	return &ConfigurationError{Stream: stream, Reason: reason, Err: err}
}

// NewStoreRequestError creates a new StoreRequestError
func NewStoreRequestError(operation, table string, page int, err error) error {
	return &StoreRequestError{Operation: operation, Table: table, Page: page, Err: err}
}

// NewHandlerError creates a new HandlerError
func NewHandlerError(partitionKey, sequenceNumber string, err error) error {
	return &HandlerError{PartitionKey: partitionKey, SequenceNumber: sequenceNumber, Err: err}
}

// NewProtocolMisuseError creates a new ProtocolMisuseError
func NewProtocolMisuseError(message string) error {
	return &ProtocolMisuseError{Message: message}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsStoreRequestError checks if an error came from the archive store
func IsStoreRequestError(err error) bool {
	return errors.Is(err, ErrStoreRequest)
}

// IsHandlerError checks if an error came from a per-record handler
func IsHandlerError(err error) bool {
	return errors.Is(err, ErrHandler)
}

// IsProtocolMisuse checks if an error is a protocol misuse error
func IsProtocolMisuse(err error) bool {
	return errors.Is(err, ErrProtocolMisuse)
}
