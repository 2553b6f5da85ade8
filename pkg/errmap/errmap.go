package errmap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"gopkg.in/yaml.v3"
)

// Code classifies high-level error categories for user-facing messages.
type Code string

const (
	CodeCanceled         Code = "canceled"
	CodeTimeout          Code = "timeout"
	CodeDecode           Code = "decode_error"
	CodeNotObject        Code = "not_object"
	CodeWrongKind        Code = "wrong_kind"
	CodeNotFound         Code = "not_found"
	CodeDuplicateName    Code = "duplicate_name"
	CodeConflict         Code = "conflict"
	CodeInvalidArgument  Code = "invalid_argument"
	CodeExpressionSyntax Code = "expression_syntax"
	CodeUnexpected       Code = "unexpected"
)

// Error is a small, idiomatic wrapper that carries a code and context while
// preserving the original cause via Unwrap.
type Error struct {
	Code     Code
	Message  string
	Workflow string
	cause    error
}

// New builds an Error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error around cause. A nil cause yields nil.
func Wrap(code Code, message string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: cause}
}

// WithWorkflow returns a copy of e tagged with a workflow identifier.
func (e *Error) WithWorkflow(id string) *Error {
	cp := *e
	cp.Workflow = id
	return &cp
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" {
		msg = humanize(e.Code, e.cause)
	} else if e.cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.cause.Error())
	}
	if e.Workflow != "" {
		return fmt.Sprintf("workflow %q: %s", e.Workflow, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error carrying the same code, so callers can write
// errors.Is(err, errmap.New(errmap.CodeNotFound, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return t.Code == e.Code
}

// humanize produces a friendly message for a given code + cause.
func humanize(code Code, cause error) string {
	switch code {
	case CodeCanceled:
		return "request was canceled"
	case CodeTimeout:
		return "request timed out"
	case CodeDecode:
		if cause != nil {
			return fmt.Sprintf("document is not valid YAML: %s", cause.Error())
		}
		return "document is not valid YAML"
	case CodeNotObject:
		return "document must be a mapping"
	case CodeWrongKind:
		return "operation is not defined for this document kind"
	case CodeNotFound:
		return "workflow not found"
	case CodeDuplicateName:
		return "duplicate step or module name"
	case CodeConflict:
		return "workflow was modified concurrently"
	case CodeInvalidArgument:
		return "invalid argument"
	case CodeExpressionSyntax:
		if cause != nil {
			return fmt.Sprintf("expression syntax error: %s", cause.Error())
		}
		return "expression syntax error"
	default:
		if cause != nil {
			return cause.Error()
		}
		return "unexpected error"
	}
}

// Map converts an arbitrary error into an *Error with a best-effort code.
// It keeps the original error as the cause.
func Map(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err // already mapped
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Code: CodeCanceled, cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeTimeout, cause: err}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Code: CodeNotFound, cause: err}
	}
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) || strings.HasPrefix(err.Error(), "yaml:") {
		return &Error{Code: CodeDecode, cause: err}
	}
	return &Error{Code: CodeUnexpected, cause: err}
}

// CodeOf returns the code of a mapped error, or CodeUnexpected.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(Map(err), &e) {
		return e.Code
	}
	return CodeUnexpected
}

// ConnectCode translates an error code into the RPC status sent to clients.
func ConnectCode(code Code) connect.Code {
	switch code {
	case CodeCanceled:
		return connect.CodeCanceled
	case CodeTimeout:
		return connect.CodeDeadlineExceeded
	case CodeDecode, CodeNotObject, CodeInvalidArgument, CodeExpressionSyntax, CodeDuplicateName:
		return connect.CodeInvalidArgument
	case CodeWrongKind:
		return connect.CodeFailedPrecondition
	case CodeNotFound:
		return connect.CodeNotFound
	case CodeConflict:
		return connect.CodeAborted
	default:
		return connect.CodeInternal
	}
}

// ToConnect wraps err as a *connect.Error with the mapped status code.
func ToConnect(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}
	return connect.NewError(ConnectCode(CodeOf(err)), Map(err))
}
