package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/finacore/bank-account-service/internal/apperrors"
	"github.com/shopspring/decimal"
)

// AccountType classifies an account. The classification is closed; it carries no
// behavioral difference at this layer beyond tagging.
type AccountType string

const (
	Checking AccountType = "CHECKING"
	Savings  AccountType = "SAVINGS"
	Business AccountType = "BUSINESS"
)

// Currency is the ISO 4217 code of an account. Immutable after creation.
type Currency string

const (
	TRY Currency = "TRY"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// AccountStatus is the lifecycle state of an account. CLOSED is terminal.
type AccountStatus string

const (
	StatusActive    AccountStatus = "ACTIVE"
	StatusSuspended AccountStatus = "SUSPENDED"
	StatusClosed    AccountStatus = "CLOSED"
)

const (
	customerNameMinLen = 3
	customerNameMaxLen = 100
)

// Account is the aggregate for one bank account. All invariants on balance and
// status are enforced by its methods; callers never mutate fields directly.
type Account struct {
	AccountNumber string          `json:"accountNumber"`
	IBAN          string          `json:"iban"`
	CustomerName  string          `json:"customerName"`
	AccountType   AccountType     `json:"accountType"`
	Currency      Currency        `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	Status        AccountStatus   `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ParseAccountType validates a raw account type value.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(s) {
	case Checking, Savings, Business:
		return AccountType(s), nil
	}
	return "", fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, s)
}

// ParseCurrency validates a raw currency code.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case TRY, USD, EUR, GBP:
		return Currency(s), nil
	}
	return "", fmt.Errorf("%w: unsupported currency %q", apperrors.ErrValidation, s)
}

// ParseAccountStatus validates a raw status value.
func ParseAccountStatus(s string) (AccountStatus, error) {
	switch AccountStatus(s) {
	case StatusActive, StatusSuspended, StatusClosed:
		return AccountStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, s)
}

// ValidateCustomerName checks the customer name length bounds.
func ValidateCustomerName(name string) error {
	if n := utf8.RuneCountInString(name); n < customerNameMinLen || n > customerNameMaxLen {
		return fmt.Errorf("%w: customer name must be between %d and %d characters",
			apperrors.ErrValidation, customerNameMinLen, customerNameMaxLen)
	}
	return nil
}

// NewAccount builds a fresh ACTIVE account with a zero balance.
func NewAccount(accountNumber, accountIBAN, customerName string, accountType AccountType, currency Currency, now time.Time) Account {
	return Account{
		AccountNumber: accountNumber,
		IBAN:          accountIBAN,
		CustomerName:  customerName,
		AccountType:   accountType,
		Currency:      currency,
		Balance:       decimal.Zero.Round(2),
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ApplyBalanceChange credits (positive amount) or debits (negative amount) the
// account. Zero amounts are rejected, only ACTIVE accounts may move money, and a
// debit past the current balance fails without mutating anything.
func (a *Account) ApplyBalanceChange(amount decimal.Decimal, now time.Time) error {
	if amount.IsZero() {
		return fmt.Errorf("%w: amount must be non-zero", apperrors.ErrValidation)
	}
	if a.Status != StatusActive {
		return fmt.Errorf("%w: account %s is %s, balance changes require ACTIVE",
			apperrors.ErrInvalidState, a.AccountNumber, a.Status)
	}

	next := a.Balance.Add(amount)
	if next.IsNegative() {
		return &apperrors.InsufficientBalanceError{
			AccountNumber:   a.AccountNumber,
			CurrentBalance:  a.Balance,
			RequestedAmount: amount,
			Shortfall:       amount.Abs().Sub(a.Balance),
		}
	}

	a.Balance = next
	a.UpdatedAt = now
	return nil
}

// UpdateDetails changes the mutable fields (customer name, account type). Fields left
// nil are untouched. Only ACTIVE accounts may be edited; SUSPENDED permits status
// changes and reads only, CLOSED permits reads only.
func (a *Account) UpdateDetails(customerName *string, accountType *AccountType, now time.Time) error {
	if a.Status != StatusActive {
		return fmt.Errorf("%w: account %s is %s, detail updates require ACTIVE",
			apperrors.ErrInvalidState, a.AccountNumber, a.Status)
	}
	if customerName != nil {
		if err := ValidateCustomerName(*customerName); err != nil {
			return err
		}
	}

	if customerName != nil {
		a.CustomerName = *customerName
	}
	if accountType != nil {
		a.AccountType = *accountType
	}
	a.UpdatedAt = now
	return nil
}

// CanTransitionTo reports whether the status graph permits moving to target.
// Legal edges: ACTIVE->SUSPENDED, ACTIVE->CLOSED, SUSPENDED->ACTIVE, SUSPENDED->CLOSED.
func (a *Account) CanTransitionTo(target AccountStatus) bool {
	switch a.Status {
	case StatusActive:
		return target == StatusSuspended || target == StatusClosed
	case StatusSuspended:
		return target == StatusActive || target == StatusClosed
	}
	// CLOSED is terminal.
	return false
}

// ChangeStatus moves the account to target if the transition is legal. Closure
// additionally requires an exactly zero balance. On failure the status is unchanged.
func (a *Account) ChangeStatus(target AccountStatus, now time.Time) error {
	if !a.CanTransitionTo(target) {
		return fmt.Errorf("%w: cannot transition account %s from %s to %s",
			apperrors.ErrInvalidState, a.AccountNumber, a.Status, target)
	}
	if target == StatusClosed && !a.Balance.IsZero() {
		return &apperrors.NonZeroBalanceError{
			AccountNumber:  a.AccountNumber,
			CurrentBalance: a.Balance,
		}
	}

	a.Status = target
	a.UpdatedAt = now
	return nil
}
