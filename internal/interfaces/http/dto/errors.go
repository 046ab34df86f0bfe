package dto

import (
	"net/http"

	"github.com/erp/posledger/internal/domain/shared"
)

// Error code constants returned by the API.
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeTransactionFailed is returned when the ledger rolled a write back
	ErrCodeTransactionFailed = "ERR_TRANSACTION_FAILED"
)

// Validation error codes
const (
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for input the domain rejected
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidQuantity = "ERR_INVALID_QUANTITY"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound         = "ERR_NOT_FOUND"
	ErrCodeSessionConflict  = "ERR_SESSION_CONFLICT"
	ErrCodeDuplicateRequest = "ERR_DUPLICATE_REQUEST"
)

// Ledger rule error codes
const (
	ErrCodeInvalidState            = "ERR_INVALID_STATE"
	ErrCodeInvalidStatusTransition = "ERR_INVALID_STATUS_TRANSITION"
	ErrCodeInvalidReturnLine       = "ERR_RETURN_LINE_INVALID"
	ErrCodeOverReturn              = "ERR_OVER_RETURN"
	ErrCodePaymentMismatch         = "ERR_PAYMENT_MISMATCH"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:           http.StatusInternalServerError,
	ErrCodeInternal:          http.StatusInternalServerError,
	ErrCodeTransactionFailed: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidQuantity: http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeSessionConflict:  http.StatusConflict,
	ErrCodeDuplicateRequest: http.StatusConflict,

	ErrCodeInvalidState:            http.StatusUnprocessableEntity,
	ErrCodeInvalidStatusTransition: http.StatusUnprocessableEntity,
	ErrCodeInvalidReturnLine:       http.StatusUnprocessableEntity,
	ErrCodeOverReturn:              http.StatusUnprocessableEntity,
	ErrCodePaymentMismatch:         http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping maps ledger domain codes to API codes
var domainCodeMapping = map[string]string{
	shared.CodeNotFound:                ErrCodeNotFound,
	shared.CodeInvalidInput:            ErrCodeInvalidInput,
	shared.CodeInvalidQuantity:         ErrCodeInvalidQuantity,
	shared.CodeInvalidState:            ErrCodeInvalidState,
	shared.CodeInvalidStatusTransition: ErrCodeInvalidStatusTransition,
	shared.CodeInvalidReturnLine:       ErrCodeInvalidReturnLine,
	shared.CodeOverReturn:              ErrCodeOverReturn,
	shared.CodeSessionConflict:         ErrCodeSessionConflict,
	shared.CodeTransactionFailed:       ErrCodeTransactionFailed,
	shared.CodePaymentMismatch:         ErrCodePaymentMismatch,
	shared.CodeForbidden:               ErrCodeForbidden,
	shared.CodeUnauthorized:            ErrCodeUnauthorized,
	shared.CodeDuplicateRequest:        ErrCodeDuplicateRequest,
}

// NormalizeErrorCode converts a domain error code to its API code.
// Codes already in API form, and unknown codes, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
