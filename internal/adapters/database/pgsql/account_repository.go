package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/finacore/bank-account-service/internal/apperrors"
	"github.com/finacore/bank-account-service/internal/core/domain"
	portsrepo "github.com/finacore/bank-account-service/internal/core/ports/repositories"
	"github.com/finacore/bank-account-service/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

const accountColumns = `account_number, iban, customer_name, account_type, currency, balance, status, created_at, updated_at`

type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new repository for account data.
func NewAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{pool: pool}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryWithTx
var _ portsrepo.AccountRepositoryWithTx = (*PgxAccountRepository)(nil)

// Begin starts a new database transaction.
func (r *PgxAccountRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrStorage, err)
	}
	return tx, nil
}

// Commit commits a transaction.
func (r *PgxAccountRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

// Rollback rolls back a transaction.
func (r *PgxAccountRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}

// Helper to convert domain.Account to models.Account for DB storage
func toModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountNumber: d.AccountNumber,
		IBAN:          d.IBAN,
		CustomerName:  d.CustomerName,
		AccountType:   string(d.AccountType),
		Currency:      string(d.Currency),
		Balance:       d.Balance,
		Status:        string(d.Status),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// Helper to convert models.Account from DB to domain.Account
func toDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountNumber: m.AccountNumber,
		IBAN:          m.IBAN,
		CustomerName:  m.CustomerName,
		AccountType:   domain.AccountType(m.AccountType),
		Currency:      domain.Currency(m.Currency),
		Balance:       m.Balance,
		Status:        domain.AccountStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// scanAccount reads one account row into the domain shape.
func scanAccount(row pgx.Row) (*domain.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountNumber,
		&m.IBAN,
		&m.CustomerName,
		&m.AccountType,
		&m.Currency,
		&m.Balance,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	acc := toDomainAccount(m)
	return &acc, nil
}

// SaveAccountInTx inserts a new account within a transaction. A unique violation on
// account_number or iban is reported as ErrDuplicate so the service can retry with
// a fresh identity.
func (r *PgxAccountRepository) SaveAccountInTx(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	m := toModelAccount(account)

	query := `
		INSERT INTO accounts (account_number, iban, customer_name, account_type, currency, balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := tx.Exec(ctx, query,
		m.AccountNumber,
		m.IBAN,
		m.CustomerName,
		m.AccountType,
		m.Currency,
		m.Balance,
		m.Status,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: account %s already exists", apperrors.ErrDuplicate, m.AccountNumber)
		}
		return fmt.Errorf("%w: failed to save account %s: %w", apperrors.ErrStorage, m.AccountNumber, err)
	}
	return nil
}

// FindAccountByNumber retrieves an account by its account number.
func (r *PgxAccountRepository) FindAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1;`

	acc, err := scanAccount(r.pool.QueryRow(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to find account %s: %w", apperrors.ErrStorage, accountNumber, err)
	}
	return acc, nil
}

// FindAccountByIBAN retrieves an account through the IBAN secondary index.
func (r *PgxAccountRepository) FindAccountByIBAN(ctx context.Context, iban string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE iban = $1;`

	acc, err := scanAccount(r.pool.QueryRow(ctx, query, iban))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to find account by IBAN %s: %w", apperrors.ErrStorage, iban, err)
	}
	return acc, nil
}

// ListAccounts retrieves a paginated list of accounts, newest first.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY created_at DESC, account_number DESC
		LIMIT $1 OFFSET $2;
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query accounts: %w", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		var m models.Account
		err := rows.Scan(
			&m.AccountNumber,
			&m.IBAN,
			&m.CustomerName,
			&m.AccountType,
			&m.Currency,
			&m.Balance,
			&m.Status,
			&m.CreatedAt,
			&m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan account row: %w", apperrors.ErrStorage, err)
		}
		accounts = append(accounts, toDomainAccount(m))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%w: error iterating account rows: %w", apperrors.ErrStorage, rows.Err())
	}
	return accounts, nil
}

// FindAccountByNumberForUpdate selects an account and locks its row for update.
// Must be called within a transaction; the lock serializes concurrent mutators of
// the same account until commit or rollback.
func (r *PgxAccountRepository) FindAccountByNumberForUpdate(ctx context.Context, tx pgx.Tx, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1 FOR UPDATE;`

	acc, err := scanAccount(tx.QueryRow(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to lock account %s: %w", apperrors.ErrStorage, accountNumber, err)
	}
	return acc, nil
}

// UpdateAccountInTx writes back a mutated account within a transaction. Identity
// columns (account_number, iban, currency, created_at) are never touched.
func (r *PgxAccountRepository) UpdateAccountInTx(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	m := toModelAccount(account)

	query := `
		UPDATE accounts
		SET customer_name = $2, account_type = $3, balance = $4, status = $5, updated_at = $6
		WHERE account_number = $1;
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.AccountNumber,
		m.CustomerName,
		m.AccountType,
		m.Balance,
		m.Status,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update account %s: %w", apperrors.ErrStorage, m.AccountNumber, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
