package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates a concurrent modification was detected. Callers may retry.
var ErrConflict = errors.New("concurrent modification conflict")

// ErrForbidden indicates the caller's role does not allow the action.
var ErrForbidden = errors.New("forbidden")

// Ledger errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = fmt.Errorf("account: %w", ErrNotFound)
	ErrSameAccount       = fmt.Errorf("%w: source and destination accounts are the same", ErrValidation)
	ErrAlreadyPaid       = errors.New("installment already paid")
	ErrAlreadyReconciled = errors.New("entry already reconciled")
	ErrLimitExceeded     = errors.New("petty cash limit exceeded")
	ErrInvalidState      = errors.New("invalid state transition")
	ErrIntegrity         = errors.New("ledger integrity violation")
)

// AppError carries an HTTP status alongside an underlying infrastructure error.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with a status code and a caller-safe message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// HTTPStatus maps an error from the service layer to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyPaid),
		errors.Is(err, ErrAlreadyReconciled),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrConflict):
		return http.StatusConflict
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
