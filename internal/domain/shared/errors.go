package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code.
// This lets errors.Is(err, shared.ErrNotFound) match any NOT_FOUND error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps the underlying cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error codes used across the ledger
const (
	CodeNotFound                = "NOT_FOUND"
	CodeInvalidInput            = "INVALID_INPUT"
	CodeInvalidQuantity         = "INVALID_QUANTITY"
	CodeInvalidState            = "INVALID_STATE"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeInvalidReturnLine       = "RETURN_LINE_INVALID"
	CodeOverReturn              = "OVER_RETURN"
	CodeSessionConflict         = "SESSION_CONFLICT"
	CodeTransactionFailed       = "TRANSACTION_FAILED"
	CodePaymentMismatch         = "PAYMENT_MISMATCH"
	CodeForbidden               = "FORBIDDEN"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeDuplicateRequest        = "DUPLICATE_REQUEST"
)

// Common domain errors
var (
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput      = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState      = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInvalidReturnLine = NewDomainError(CodeInvalidReturnLine, "Return line does not match the original sale")
	ErrOverReturn        = NewDomainError(CodeOverReturn, "Requested quantity exceeds the returnable quantity")
	ErrSessionConflict   = NewDomainError(CodeSessionConflict, "An open till session already exists")
	ErrTransactionFailed = NewDomainError(CodeTransactionFailed, "Ledger transaction failed")
	ErrUnauthorized      = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden         = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)

// ErrorCode returns the domain error code carried by err, or "" when err is
// not a domain error.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsDomainError reports whether err wraps a DomainError
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}
