package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Authorization error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeExceedsBalance is used when an allocation exceeds an invoice balance
	ErrCodeExceedsBalance = "ERR_EXCEEDS_BALANCE"
	// ErrCodeExceedsUnallocated is used when an allocation exceeds a payment's free funds
	ErrCodeExceedsUnallocated = "ERR_EXCEEDS_UNALLOCATED"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Authorization errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:       http.StatusUnprocessableEntity,
	ErrCodeExceedsBalance:     http.StatusUnprocessableEntity,
	ErrCodeExceedsUnallocated: http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the standardized
// ERR_ codes used on the wire
var DomainErrorCodeMapping = map[string]string{
	// Generic domain errors
	"NOT_FOUND":      ErrCodeNotFound,
	"ALREADY_EXISTS": ErrCodeAlreadyExists,
	"INVALID_INPUT":  ErrCodeInvalidInput,
	"INVALID_STATE":  ErrCodeInvalidState,
	"UNAUTHORIZED":   ErrCodeUnauthorized,
	"FORBIDDEN":      ErrCodeForbidden,
	"BAD_REQUEST":    ErrCodeBadRequest,
	"INTERNAL_ERROR": ErrCodeInternal,

	// Lookup failures
	"INVOICE_NOT_FOUND":    ErrCodeNotFound,
	"PAYMENT_NOT_FOUND":    ErrCodeNotFound,
	"ALLOCATION_NOT_FOUND": ErrCodeNotFound,
	"BATCH_NOT_FOUND":      ErrCodeNotFound,
	"ITEM_NOT_FOUND":       ErrCodeNotFound,
	"SUPPLIER_NOT_FOUND":   ErrCodeNotFound,
	"CUSTOMER_NOT_FOUND":   ErrCodeNotFound,

	// Duplicates and conflicts
	"DUPLICATE_INVOICE_NUMBER": ErrCodeAlreadyExists,
	"ALREADY_ALLOCATED":        ErrCodeConflict,
	"ALREADY_IN_BATCH":         ErrCodeConflict,

	// State machine violations
	"ALREADY_ACTIVE":   ErrCodeInvalidState,
	"ALREADY_INACTIVE": ErrCodeInvalidState,

	// Allocation and batch business rules
	"EXCEEDS_BALANCE":     ErrCodeExceedsBalance,
	"EXCEEDS_UNALLOCATED": ErrCodeExceedsUnallocated,
	"FULLY_ALLOCATED":     ErrCodeBusinessRule,
	"INVOICE_FULLY_PAID":  ErrCodeBusinessRule,
	"EMPTY_BATCH":         ErrCodeBusinessRule,

	// Field-level validation raised by aggregates
	"INVALID_AMOUNT":          ErrCodeInvalidInput,
	"INVALID_QUANTITY":        ErrCodeInvalidInput,
	"INVALID_UNIT_PRICE":      ErrCodeInvalidInput,
	"INVALID_GST_RATE":        ErrCodeInvalidInput,
	"INVALID_DESCRIPTION":     ErrCodeInvalidInput,
	"INVALID_DUE_DATE":        ErrCodeInvalidInput,
	"INVALID_INVOICE_NUMBER":  ErrCodeInvalidInput,
	"INVALID_INVOICE_TYPE":    ErrCodeInvalidInput,
	"INVALID_PAYMENT_NUMBER":  ErrCodeInvalidInput,
	"INVALID_BATCH_REFERENCE": ErrCodeInvalidInput,
	"INVALID_METHOD":          ErrCodeInvalidInput,
	"INVALID_CODE":            ErrCodeInvalidInput,
	"INVALID_NAME":            ErrCodeInvalidInput,
	"INVALID_EMAIL":           ErrCodeInvalidInput,
	"INVALID_ADDRESS":         ErrCodeInvalidInput,
	"INVALID_CONTACT_NAME":    ErrCodeInvalidInput,
	"INVALID_PAYMENT_DAYS":    ErrCodeInvalidInput,
	"INVALID_BANK_NAME":       ErrCodeInvalidInput,
	"INVALID_BANK_ACCOUNT":    ErrCodeInvalidInput,

	"VALIDATION_ERROR": ErrCodeValidation,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
