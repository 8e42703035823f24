package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidState indicates that an operation is not legal for the account's current status.
var ErrInvalidState = errors.New("invalid account state")

// ErrStorage indicates that a durable-store call failed. The operation as a whole
// fails; nothing downstream of the store runs.
var ErrStorage = errors.New("storage error")

// InsufficientBalanceError is returned when a debit would take the balance below zero.
// It carries the shortfall so callers can report exactly how much was missing.
type InsufficientBalanceError struct {
	AccountNumber   string
	CurrentBalance  decimal.Decimal
	RequestedAmount decimal.Decimal
	Shortfall       decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on account %s: balance %s, requested %s, short %s",
		e.AccountNumber, e.CurrentBalance.StringFixed(2), e.RequestedAmount.StringFixed(2), e.Shortfall.StringFixed(2))
}

// NonZeroBalanceError is returned when closure is attempted on an account that still
// holds funds.
type NonZeroBalanceError struct {
	AccountNumber  string
	CurrentBalance decimal.Decimal
}

func (e *NonZeroBalanceError) Error() string {
	return fmt.Sprintf("account %s cannot be closed with non-zero balance %s",
		e.AccountNumber, e.CurrentBalance.StringFixed(2))
}

// DegradedConsistencyError records cache or event steps that failed after the storage
// commit succeeded. It is a diagnostic attached to an otherwise-successful result,
// never a caller-visible failure of the operation itself.
type DegradedConsistencyError struct {
	Steps  []string
	Causes []error
}

// Record notes a failed post-commit step and its cause.
func (e *DegradedConsistencyError) Record(step string, cause error) {
	e.Steps = append(e.Steps, step)
	e.Causes = append(e.Causes, cause)
}

// Empty reports whether every post-commit step succeeded.
func (e *DegradedConsistencyError) Empty() bool {
	return len(e.Steps) == 0
}

func (e *DegradedConsistencyError) Error() string {
	parts := make([]string, len(e.Steps))
	for i, step := range e.Steps {
		parts[i] = fmt.Sprintf("%s: %v", step, e.Causes[i])
	}
	return "degraded consistency after commit: " + strings.Join(parts, "; ")
}

func (e *DegradedConsistencyError) Unwrap() []error {
	return e.Causes
}
