// Package apierr generalizes the teacher's blockchain.RuleError /
// blockchain.ErrorCode idiom (see blockchain/shell_validate.go's
// `ruleError(ErrScriptValidation, "...")` pattern) into the error kinds
// spec.md §7 names, each carrying its own HTTP status instead of relying on
// string matching at the transport layer.
package apierr

import "fmt"

// Code identifies the semantic kind of a ledger error.
type Code int

const (
	// CodeInternal wraps an opaque storage or infrastructure failure.
	CodeInternal Code = iota
	CodeNotFound
	CodeBadRequest
	CodeEmptyTree
	CodeNotInitialized
	CodeLeavesExceedSize
	CodeDeserializing
	CodeInvalidSignature
	CodeInvalidPublicKey
	CodeInvalidPrivateKey
	CodeInvalidMessage
)

// String names the code, used in logging and in test assertions.
func (c Code) String() string {
	switch c {
	case CodeInternal:
		return "Internal"
	case CodeNotFound:
		return "NotFound"
	case CodeBadRequest:
		return "BadRequest"
	case CodeEmptyTree:
		return "EmptyTree"
	case CodeNotInitialized:
		return "NotInitialized"
	case CodeLeavesExceedSize:
		return "LeavesExceedSize"
	case CodeDeserializing:
		return "Deserializing"
	case CodeInvalidSignature:
		return "InvalidSignature"
	case CodeInvalidPublicKey:
		return "InvalidPublicKey"
	case CodeInvalidPrivateKey:
		return "InvalidPrivateKey"
	case CodeInvalidMessage:
		return "InvalidMessage"
	default:
		return "Unknown"
	}
}

// HTTPStatus returns the status code the HTTP surface must respond with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return 404
	case CodeInternal:
		return 500
	default:
		return 400
	}
}

// Error is a Code paired with a human-readable description, the ledger's
// single error type crossing component boundaries.
type Error struct {
	Code        Code
	Description string
	cause       error
}

// New builds an *Error with the given code and description.
func New(code Code, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Wrap builds an Internal *Error around a lower-level cause, matching the
// "Server/Database: wrapped storage-layer failure" kind in spec.md §7.
func Wrap(cause error) *Error {
	return &Error{Code: CodeInternal, Description: "internal server error", cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// PublicMessage returns the string to surface to an API caller: the
// description verbatim for codes below 500, and the fixed generic string
// for Internal errors, per spec.md §7.
func (e *Error) PublicMessage() string {
	if e.Code.HTTPStatus() >= 500 {
		return "Internal server error"
	}
	return e.Description
}
