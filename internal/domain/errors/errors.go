// Package errors provides the standardized error types of the domain layer.
// Sentinel errors enable errors.Is checks across service boundaries and map
// to HTTP statuses in the API layer.
package errors

import (
	"errors"
	"fmt"
)

// Standard error categories
var (
	// ErrNotFound indicates a missing ledger, plan, withdrawal or referral.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidPlan indicates an unknown plan tier id.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrInvalidAmount indicates a non-positive or malformed amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance indicates a withdrawal exceeding the
	// withdrawable balance.
	ErrInsufficientBalance = errors.New("insufficient withdrawable balance")

	// ErrAlreadyProcessed indicates a withdrawal that is no longer Pending.
	ErrAlreadyProcessed = errors.New("withdrawal already processed")

	// ErrReferralCodeExhausted indicates the bounded referral code
	// generation ran out of attempts.
	ErrReferralCodeExhausted = errors.New("referral code generation exhausted")

	// ErrTransientStorage indicates a storage I/O failure that is safe to
	// retry.
	ErrTransientStorage = errors.New("transient storage error")

	// ErrInvalidInput indicates invalid request input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error.
	ErrInternal = errors.New("internal error")
)

// DomainError carries a machine-readable code and optional details alongside
// the wrapped sentinel.
type DomainError struct {
	Err     error
	Code    string
	Message string
	Details map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *DomainError) Is(target error) bool {
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// WithDetails adds details to the error.
func (e *DomainError) WithDetails(details map[string]interface{}) *DomainError {
	e.Details = details
	return e
}

// NotFoundError creates a not found error for the given resource.
func NotFoundError(resource string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// InvalidPlanError creates an invalid plan error.
func InvalidPlanError(tierID int) *DomainError {
	return &DomainError{
		Err:     ErrInvalidPlan,
		Code:    "INVALID_PLAN",
		Message: "invalid plan",
		Details: map[string]interface{}{"plan_id": tierID},
	}
}

// InvalidAmountError creates an invalid amount error.
func InvalidAmountError(message string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidAmount,
		Code:    "INVALID_AMOUNT",
		Message: message,
	}
}

// InsufficientBalanceError creates an insufficient balance error.
func InsufficientBalanceError(have, want string) *DomainError {
	return &DomainError{
		Err:     ErrInsufficientBalance,
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient withdrawable balance",
		Details: map[string]interface{}{"withdrawable": have, "requested": want},
	}
}

// AlreadyProcessedError creates a withdrawal state conflict error.
func AlreadyProcessedError(status string) *DomainError {
	return &DomainError{
		Err:     ErrAlreadyProcessed,
		Code:    "ALREADY_PROCESSED",
		Message: "withdrawal request already processed",
		Details: map[string]interface{}{"status": status},
	}
}

// TransientStorageError wraps a storage failure that should be retried on the
// next run.
func TransientStorageError(err error) *DomainError {
	return &DomainError{
		Err:     ErrTransientStorage,
		Code:    "TRANSIENT_STORAGE",
		Message: "transient storage error",
		Details: map[string]interface{}{"cause": err.Error()},
	}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is caller-correctable.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidPlan) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidInput)
}

// IsConflict checks if an error is a state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyProcessed)
}

// GetErrorCode extracts the machine-readable code from a domain error.
func GetErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "UNKNOWN_ERROR"
}

// GetErrorDetails extracts details from a domain error.
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
