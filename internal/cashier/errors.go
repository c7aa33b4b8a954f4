package cashier

import "time"

// Code discriminates the expected failure modes of manager operations.
// Every failing operation returns exactly one of these and leaves all
// state unchanged.
type Code string

const (
	CodeValidation        Code = "validation"
	CodeInvalidOperation  Code = "invalid_operation"
	CodeInsufficientFunds Code = "insufficient_funds"
	CodeNotFound          Code = "not_found"
)

// Error is the single error type returned by manager operations. The message
// is user-facing and rendered verbatim by the presentation layer.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

func errValidation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func errInvalidOperation(msg string) *Error {
	return &Error{Code: CodeInvalidOperation, Message: msg}
}

func errInsufficientFunds(msg string) *Error {
	return &Error{Code: CodeInsufficientFunds, Message: msg}
}

func errNotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// PersistenceWarning signals that a snapshot or history write failed. The
// in-memory state is the source of truth for the running session, so nothing
// is rolled back — but the operator must be told a reload may lose data.
type PersistenceWarning struct {
	Op   string // operation that triggered the write
	Err  error  // underlying store error
	Time time.Time
}

func (w PersistenceWarning) Error() string {
	return "persistence warning during " + w.Op + ": " + w.Err.Error()
}
