package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the ledger error taxonomy.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// not-found
	ErrCourseNotFound = New("COURSE_NOT_FOUND", http.StatusNotFound, "course not found")

	// invalid-input
	ErrParamLengthMismatch = New("PARAM_LENGTH_MISMATCH", http.StatusBadRequest, "batch parameter lengths do not match")
	ErrIllegalMark         = New("ILLEGAL_MARK", http.StatusBadRequest, "mark must be between 1 and 10")
	ErrInvalidCapacity     = New("INVALID_CAPACITY", http.StatusBadRequest, "evaluator capacity must be greater than zero")

	// state-conflict
	ErrEvaluatorAlreadyAssigned = New("EVALUATOR_ALREADY_ASSIGNED", http.StatusConflict, "evaluator already assigned to course")
	ErrEvaluatorNotAssigned     = New("EVALUATOR_NOT_ASSIGNED", http.StatusConflict, "evaluator is not assigned to course")
	ErrTooManyEvaluators        = New("TOO_MANY_EVALUATORS", http.StatusConflict, "evaluator capacity reached for course")
	ErrSeatUnderflow            = New("SEAT_UNDERFLOW", http.StatusConflict, "seat counter would fall below zero")
	ErrFinalized                = New("FINALIZED", http.StatusConflict, "course already finalized")

	// precondition on the student's ledger state
	ErrNoCoursesForUser       = New("NO_COURSES_FOR_USER", http.StatusPreconditionFailed, "student has no enrolled courses")
	ErrCourseNotRegistered    = New("COURSE_NOT_REGISTERED", http.StatusPreconditionFailed, "student is not enrolled in course")
	ErrEvaluatorNotAuthorized = New("EVALUATOR_NOT_ASSIGNED_TO_COURSE", http.StatusForbidden, "caller is not an assigned evaluator for course")

	// payment
	ErrInsufficientPayment = New("INSUFFICIENT_PAYMENT", http.StatusPaymentRequired, "payment below course fee")

	// external-failure
	ErrWithdrawalFailed = New("WITHDRAWAL_FAILED", http.StatusBadGateway, "withdrawal transfer failed")
	ErrCustodyFailed    = New("CUSTODY_FAILED", http.StatusBadGateway, "token custody operation failed")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
