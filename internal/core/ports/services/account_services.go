package services

import (
	"context"

	"github.com/finacore/bank-account-service/internal/core/domain"
	"github.com/finacore/bank-account-service/internal/dto"
)

// AccountSvcFacade is the mutating surface of the account core. Every operation
// sequences aggregate mutation, history append, storage commit, cache invalidation
// and event emission; the commit is the durability point.
type AccountSvcFacade interface {
	// CreateAccount opens a new ACTIVE account with a derived IBAN and zero balance.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*dto.MutationResult, error)

	// ApplyBalanceChange credits or debits an account by a signed exact amount.
	ApplyBalanceChange(ctx context.Context, accountNumber string, req dto.BalanceChangeRequest) (*dto.MutationResult, error)

	// UpdateAccount changes the mutable account fields (customer name, account type).
	UpdateAccount(ctx context.Context, accountNumber string, req dto.UpdateAccountRequest) (*dto.MutationResult, error)

	// ChangeStatus transitions the account lifecycle status.
	ChangeStatus(ctx context.Context, accountNumber string, req dto.StatusChangeRequest) (*dto.MutationResult, error)
}

// AccountQuerySvcFacade is the read path: cache-first lookups that never block writers.
type AccountQuerySvcFacade interface {
	// GetByAccountNumber returns the account, serving from cache when possible.
	GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error)

	// GetByIBAN resolves the IBAN secondary index, then delegates to the primary lookup.
	GetByIBAN(ctx context.Context, iban string) (*domain.Account, error)

	// ListAccounts returns a page of accounts straight from storage.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
}

// HistorySvcFacade exposes the append-only audit trail.
type HistorySvcFacade interface {
	// ListHistory returns a page of entries, newest first, with the total count.
	ListHistory(ctx context.Context, accountNumber string, params dto.ListHistoryParams) ([]domain.HistoryEntry, int64, error)
}

// ServiceContainer bundles the service facades for route registration.
type ServiceContainer struct {
	Account AccountSvcFacade
	Query   AccountQuerySvcFacade
	History HistorySvcFacade
}
