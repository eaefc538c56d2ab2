package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrorInvalidState        ErrorCode = "INVALID_STATE"
	ErrorTransport           ErrorCode = "TRANSPORT_ERROR"
	ErrorParse               ErrorCode = "PARSE_ERROR"
	ErrorNotFound            ErrorCode = "NOT_FOUND"
	ErrorOperationInProgress ErrorCode = "OPERATION_IN_PROGRESS"
	ErrorInternal            ErrorCode = "INTERNAL_ERROR"
)

// Error is the coded failure of one submit or ask. The session the operation
// was applied to is never changed when an Error is returned.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// NewError lets transport adapters report failures that happen outside the
// service, such as an unknown session, with the same shape.
func NewError(code ErrorCode, reason string, err error) *Error {
	return newError(code, reason, err)
}

// CodeOf returns the code carried by err, or ErrorInternal.
func CodeOf(err error) ErrorCode {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Code
	}
	return ErrorInternal
}

// ParseError reports oracle output that could not be read as an Analysis.
// Raw holds the text as received.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("usecase: parse analysis: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
