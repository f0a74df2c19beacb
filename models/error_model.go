package models

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the queue and the state machines can
// raise. The worker decides between retry and acknowledge from it.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindValidation
	KindSignatureInvalid
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "ValidationFailed"
	case KindSignatureInvalid:
		return "SignatureInvalid"
	case KindTransient:
		return "TransientDependencyFailure"
	default:
		return "Unknown"
	}
}

type AppError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors of the same kind and message, so package sentinels
// work with errors.Is after being wrapped with an Op.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func newError(kind ErrorKind, msg string) *AppError {
	return &AppError{Kind: kind, Message: msg}
}

func NotFound(msg string) *AppError   { return newError(KindNotFound, msg) }
func Validation(msg string) *AppError { return newError(KindValidation, msg) }

func Transient(op string, err error) *AppError {
	return &AppError{Kind: KindTransient, Op: op, Message: "dependency unavailable", Err: err}
}

var ErrSignatureInvalid = newError(KindSignatureInvalid, "invalid signature")

// Wrap attaches an operation name to err while keeping its kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var app *AppError
	if errors.As(err, &app) {
		return &AppError{Kind: app.Kind, Op: op, Message: app.Message, Err: app.Err}
	}
	return &AppError{Kind: KindUnknown, Op: op, Err: err}
}

func KindOf(err error) ErrorKind {
	var app *AppError
	if errors.As(err, &app) {
		return app.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether a job failing with err should be attempted
// again. Business outcomes are final; infrastructure noise is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch KindOf(err) {
	case KindNotFound, KindValidation, KindSignatureInvalid:
		return false
	default:
		return true
	}
}

// InternalError is returned to RPC callers when nothing more specific can be
// said about a failure.
type InternalError int

const (
	InternalErrorUnknown InternalError = iota
	InternalErrorInvalidRequest
	InternalErrorInvalidResponse
	InternalErrorInvalidState
)

func (e InternalError) Error() error {
	switch e {
	case InternalErrorInvalidRequest:
		return fmt.Errorf("invalid request")
	case InternalErrorInvalidResponse:
		return fmt.Errorf("invalid response")
	case InternalErrorInvalidState:
		return fmt.Errorf("invalid state")
	default:
		return fmt.Errorf("unknown internal error")
	}
}

func (e InternalError) String() string {
	return fmt.Sprintf("internal error: %d", e)
}
