package dto

import (
	"time"

	"github.com/finacore/bank-account-service/internal/apperrors"
	"github.com/finacore/bank-account-service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to open a new account.
type CreateAccountRequest struct {
	CustomerName string `json:"customerName" binding:"required"`
	AccountType  string `json:"accountType" binding:"required"`
	Currency     string `json:"currency" binding:"required"`
}

// UpdateAccountRequest defines the data allowed for updating an account.
// Pointers distinguish omitted fields from zero values. The immutable identity
// fields are declared so a request carrying them can be rejected explicitly
// instead of silently ignored.
type UpdateAccountRequest struct {
	CustomerName *string `json:"customerName"`
	AccountType  *string `json:"accountType"`

	AccountNumber *string `json:"accountNumber"`
	IBAN          *string `json:"iban"`
	Currency      *string `json:"currency"`
}

// BalanceChangeRequest applies a signed amount to the balance: positive credits,
// negative debits. Zero is rejected by the service.
type BalanceChangeRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"required,max=255"`
}

// StatusChangeRequest moves the account to a new lifecycle status. The reason
// bound leaves room for the "Status changed from X to Y: " prefix in the stored
// history description.
type StatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"max=200"`
}

// MutationResult is what every mutating operation returns: the committed account,
// the history entry recorded with it, and an optional degraded-consistency
// diagnostic for post-commit cache/event failures.
type MutationResult struct {
	Account  domain.Account
	Entry    *domain.HistoryEntry
	Degraded *apperrors.DegradedConsistencyError
}

// AccountResponse is the wire shape of an account.
type AccountResponse struct {
	AccountNumber string          `json:"accountNumber"`
	IBAN          string          `json:"iban"`
	CustomerName  string          `json:"customerName"`
	AccountType   string          `json:"accountType"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// MutationResponse wraps an account result with any degraded-consistency warnings.
// Warnings never indicate failure; the mutation committed.
type MutationResponse struct {
	Account  AccountResponse `json:"account"`
	Warnings []string        `json:"warnings,omitempty"`
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// ToAccountResponse converts a domain.Account to its wire shape.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountNumber: acc.AccountNumber,
		IBAN:          acc.IBAN,
		CustomerName:  acc.CustomerName,
		AccountType:   string(acc.AccountType),
		Currency:      string(acc.Currency),
		Balance:       acc.Balance,
		Status:        string(acc.Status),
		CreatedAt:     acc.CreatedAt,
		UpdatedAt:     acc.UpdatedAt,
	}
}

// ToListAccountsResponse converts a slice of domain accounts.
func ToListAccountsResponse(accounts []domain.Account) ListAccountsResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return ListAccountsResponse{Accounts: res}
}

// ToMutationResponse converts a service mutation result, flattening degraded
// consistency detail into human-readable warnings.
func ToMutationResponse(result *MutationResult) MutationResponse {
	resp := MutationResponse{Account: ToAccountResponse(&result.Account)}
	if result.Degraded != nil {
		for i, step := range result.Degraded.Steps {
			resp.Warnings = append(resp.Warnings, step+": "+result.Degraded.Causes[i].Error())
		}
	}
	return resp
}
