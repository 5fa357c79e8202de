package main

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable machine-readable error code surfaced to RPC clients.
// Codes let callers distinguish validation failures (bad request) from
// missing entities (not found) and conflicts without parsing messages.
type ErrorCode string

const (
	CodeInvalidAccountType    ErrorCode = "INVALID_ACCOUNT_TYPE"
	CodeInvalidParent         ErrorCode = "INVALID_PARENT"
	CodeConflictChildAccounts ErrorCode = "CONFLICT_CHILD_ACCOUNTS"
	CodeAccountNotFound       ErrorCode = "ACCOUNT_NOT_FOUND"
	CodeInvalidDateFormat     ErrorCode = "INVALID_DATE_FORMAT"
	CodeInvalidDateRange      ErrorCode = "INVALID_DATE_RANGE"
	CodeAuthRequired          ErrorCode = "AUTH_REQUIRED"
	CodeDuplicateCode         ErrorCode = "DUPLICATE_CODE"
	CodeInvalidCurrency       ErrorCode = "INVALID_CURRENCY"
	CodeInvalidRequest        ErrorCode = "INVALID_REQUEST"
	CodeInternalError         ErrorCode = "INTERNAL_ERROR"
)

// AppError is an error that is safe to return to clients verbatim.
// Internal failures (database errors, collaborator timeouts) must NOT be
// wrapped in an AppError; they are surfaced as CodeInternalError with a
// generic message instead.
type AppError struct {
	Code    ErrorCode
	Message string
	err     error
}

func (e AppError) Error() string {
	return e.Message
}

func (e AppError) Unwrap() error {
	return e.err
}

// AppErrorf creates an AppError with a formatted message.
// The %w verb wraps an underlying error like fmt.Errorf does.
func AppErrorf(code ErrorCode, format string, args ...any) AppError {
	err := fmt.Errorf(format, args...)
	return AppError{
		Code:    code,
		Message: err.Error(),
		err:     errors.Unwrap(err),
	}
}

// ErrorCodeOf extracts the ErrorCode from an error chain.
// Non-AppError errors map to CodeInternalError.
func ErrorCodeOf(err error) ErrorCode {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

// HasErrorCode reports whether the error chain carries the given code.
func HasErrorCode(err error, code ErrorCode) bool {
	return ErrorCodeOf(err) == code
}
