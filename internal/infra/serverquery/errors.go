package serverquery

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResponse indicates a request was written but the server sent nothing back
	// within the read window.
	ErrNoResponse = errors.New("connection produced nothing")

	// ErrSessionClosed indicates an operation on a session that was already closed.
	ErrSessionClosed = errors.New("session closed")
)

// Synthetic QueryError codes for failures that did not come from a status line.
const (
	// CodeEmptyResponse marks a response that was expected to carry a result line but had none.
	CodeEmptyResponse = -1
	// CodeLocal marks a local or transport failure (I/O, decoding).
	CodeLocal = -2
)

// QueryError is the failure projection of a status line.
type QueryError struct {
	Code    int
	Message string
	Cause   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s(%d)", e.Message, e.Code)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

// NewEmptyResponseError reports a missing result line.
func NewEmptyResponseError() *QueryError {
	return &QueryError{Code: CodeEmptyResponse, Message: "expect result but none found"}
}

// NewLocalError wraps a lower-level failure as a QueryError. An existing QueryError
// is returned unchanged.
func NewLocalError(err error) *QueryError {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe
	}
	return &QueryError{Code: CodeLocal, Message: err.Error(), Cause: err}
}

// DecodeError reports malformed protocol text.
type DecodeError struct {
	Input  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %s", truncate(e.Input, 80), e.Reason)
}

func newDecodeError(input, format string, args ...any) error {
	return &DecodeError{Input: input, Reason: fmt.Sprintf(format, args...)}
}

// ConnectError reports a stream that could not be established.
type ConnectError struct {
	Addr  string
	Cause error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Addr, e.Cause)
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// IOError reports a read or write failure on an established stream.
type IOError struct {
	Op    string
	Cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *IOError) Unwrap() error {
	return e.Cause
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
