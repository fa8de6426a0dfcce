// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidInstrument  = errors.New("invalid instrument")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrEmptyInputSet      = errors.New("empty input set")
	ErrDegenerateCategory = errors.New("degenerate category")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidDirection   = errors.New("invalid direction")
	ErrInvalidOutcome     = errors.New("invalid outcome")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
	ErrDatabaseError      = errors.New("database error")
)

// TradeError represents a fault that excluded a single trade from a run.
type TradeError struct {
	Index int
	Pair  string
	Field string
	Err   error
}

func (e *TradeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("trade #%d %s: %s: %v", e.Index, e.Pair, e.Field, e.Err)
	}
	return fmt.Sprintf("trade #%d %s: %v", e.Index, e.Pair, e.Err)
}

func (e *TradeError) Unwrap() error {
	return e.Err
}

// NewTradeError creates a new TradeError.
func NewTradeError(index int, pair, field string, err error) *TradeError {
	return &TradeError{
		Index: index,
		Pair:  pair,
		Field: field,
		Err:   err,
	}
}

// Kind returns a short name for the sentinel wrapped by err.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInstrument):
		return "InvalidInstrument"
	case errors.Is(err, ErrInvalidPrice):
		return "InvalidPrice"
	case errors.Is(err, ErrInvalidDate):
		return "InvalidDate"
	case errors.Is(err, ErrInvalidDirection):
		return "InvalidDirection"
	case errors.Is(err, ErrInvalidOutcome):
		return "InvalidOutcome"
	case errors.Is(err, ErrEmptyInputSet):
		return "EmptyInputSet"
	case errors.Is(err, ErrDegenerateCategory):
		return "DegenerateCategory"
	default:
		return "Unknown"
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrConfigInvalid
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Key      string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Key, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, key, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Key:      key,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
