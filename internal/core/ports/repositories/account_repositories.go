package repositories

import (
	"context"

	"github.com/finacore/bank-account-service/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByNumber retrieves a specific account by its account number.
	FindAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)

	// FindAccountByIBAN retrieves an account through the IBAN secondary index.
	FindAccountByIBAN(ctx context.Context, iban string) (*domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts, newest first.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
}

// AccountTransactionSupport defines the write operations that must run inside a
// transaction so that read-check-write on one account is atomic with respect to
// other writers of the same account.
type AccountTransactionSupport interface {
	// SaveAccountInTx persists a new account within a transaction.
	SaveAccountInTx(ctx context.Context, tx pgx.Tx, account domain.Account) error

	// FindAccountByNumberForUpdate selects an account and locks its row for update.
	FindAccountByNumberForUpdate(ctx context.Context, tx pgx.Tx, accountNumber string) (*domain.Account, error)

	// UpdateAccountInTx writes back a mutated account within a transaction.
	UpdateAccountInTx(ctx context.Context, tx pgx.Tx, account domain.Account) error
}

// AccountRepositoryFacade combines all account-related repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountTransactionSupport
}

// AccountRepositoryWithTx extends AccountRepositoryFacade with transaction capabilities.
type AccountRepositoryWithTx interface {
	AccountRepositoryFacade
	TransactionManager
}
