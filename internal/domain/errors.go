package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeInvalidOperation  = "INVALID_OPERATION"
	ErrCodeTransientExternal = "TRANSIENT_EXTERNAL"
	ErrCodeSchemaValidation  = "SCHEMA_VALIDATION"
	ErrCodeDimensionMismatch = "DIMENSION_MISMATCH"
	ErrCodeCorpusLoad        = "CORPUS_LOAD"
)

// Validation errors
var (
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidSourceType    = NewDomainError(ErrCodeValidation, "invalid document source type")
	ErrInvalidThresholds    = NewDomainError(ErrCodeValidation, "duplicate threshold must be >= merge threshold")
)

// Not found errors
var (
	ErrRunNotFound   = NewDomainError(ErrCodeNotFound, "pipeline run not found")
	ErrEntryNotFound = NewDomainError(ErrCodeNotFound, "index entry not found")
)

// Pipeline error taxonomy
var (
	// ErrTransientExternal wraps network/timeout failures on embedding or
	// generation calls. Eligible for bounded retry, then downgraded to a
	// recorded failure for that unit of work.
	ErrTransientExternal = NewDomainError(ErrCodeTransientExternal, "transient external call failure")

	// ErrSchemaValidation marks a generative response that does not conform
	// to the candidate schema. Retried like transient errors, then the
	// batch is marked failed while the run continues.
	ErrSchemaValidation = NewDomainError(ErrCodeSchemaValidation, "generative response failed schema validation")

	// ErrDimensionMismatch is fatal for the offending vector operation
	// only: skip the item, log, continue.
	ErrDimensionMismatch = NewDomainError(ErrCodeDimensionMismatch, "vector dimensionality does not match index")

	// ErrCorpusLoad is fatal for the whole run: composing without a dedup
	// baseline would break the duplicate-prevention guarantee.
	ErrCorpusLoad = NewDomainError(ErrCodeCorpusLoad, "idea corpus could not be loaded")

	// ErrGenerationFailed records a batch whose generation attempts were
	// exhausted. The run completes with whatever candidates succeeded.
	ErrGenerationFailed = NewDomainError(ErrCodeInvalidOperation, "idea generation failed for batch")
)
