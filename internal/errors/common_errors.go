package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeProcessing ErrorType = "DATA_PROCESSING"
	ErrTypeFileLoad   ErrorType = "FILE_LOAD"
	ErrTypeEmptyData  ErrorType = "EMPTY_DATA"
	ErrTypeSchema     ErrorType = "SCHEMA_VALIDATION"
	ErrTypeQuality    ErrorType = "DATA_QUALITY"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError is the base of every pipeline error. Stages either complete their
// contract or return one of these.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Sentinels for errors.Is. Matching is by Type only.
var (
	ErrProcessing = &AppError{Type: ErrTypeProcessing}
	ErrFileLoad   = &AppError{Type: ErrTypeFileLoad}
	ErrEmptyData  = &AppError{Type: ErrTypeEmptyData}
	ErrSchema     = &AppError{Type: ErrTypeSchema}
	ErrQuality    = &AppError{Type: ErrTypeQuality}
	ErrStorage    = &AppError{Type: ErrTypeStorage}
	ErrConfig     = &AppError{Type: ErrTypeConfig}
)

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError of the same type. Every type is
// also a DataProcessingError, so ErrProcessing matches all of them.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type || t.Type == ErrTypeProcessing
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// SchemaValidationError is returned when required columns are absent.
type SchemaValidationError struct {
	*AppError
	MissingColumns []string
}

// Unwrap exposes the base error so errors.Is matches ErrSchema.
func (e *SchemaValidationError) Unwrap() error {
	return e.AppError
}

// DataQualityError is returned when quality falls below the acceptance
// threshold. Issues holds the offending metrics.
type DataQualityError struct {
	*AppError
	Issues map[string]float64
}

// Unwrap exposes the base error so errors.Is matches ErrQuality.
func (e *DataQualityError) Unwrap() error {
	return e.AppError
}

// NewProcessingError creates a generic processing error
func NewProcessingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeProcessing, message, cause)
}

// NewFileLoadError creates an error for an unreachable, missing or unparsable source
func NewFileLoadError(message string, cause error) *AppError {
	return NewAppError(ErrTypeFileLoad, message, cause)
}

// NewEmptyDataError creates an error for a table without rows
func NewEmptyDataError(message string) *AppError {
	return NewAppError(ErrTypeEmptyData, message, nil)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewSchemaValidationError lists the missing columns in order.
func NewSchemaValidationError(missing, required []string) *SchemaValidationError {
	msg := fmt.Sprintf("missing required columns: [%s]; the source must contain at least: [%s]",
		strings.Join(missing, ", "), strings.Join(required, ", "))
	base := NewAppError(ErrTypeSchema, msg, nil).WithContext("missing_columns", missing)
	return &SchemaValidationError{AppError: base, MissingColumns: missing}
}

// NewDataQualityError carries the metrics that made the data unacceptable.
func NewDataQualityError(message string, issues map[string]float64) *DataQualityError {
	if issues == nil {
		issues = map[string]float64{}
	}
	base := NewAppError(ErrTypeQuality, message, nil)
	keys := make([]string, 0, len(issues))
	for k := range issues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		base.WithContext(k, issues[k])
	}
	return &DataQualityError{AppError: base, Issues: issues}
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or ""
// when err carries none.
func TypeOf(err error) ErrorType {
	for err != nil {
		switch e := err.(type) {
		case *AppError:
			return e.Type
		case *SchemaValidationError:
			return e.Type
		case *DataQualityError:
			return e.Type
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
