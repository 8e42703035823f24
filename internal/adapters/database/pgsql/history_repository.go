package pgsql

import (
	"context"
	"fmt"

	"github.com/finacore/bank-account-service/internal/apperrors"
	"github.com/finacore/bank-account-service/internal/core/domain"
	portsrepo "github.com/finacore/bank-account-service/internal/core/ports/repositories"
	"github.com/finacore/bank-account-service/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new repository for the audit trail.
func NewHistoryRepository(pool *pgxpool.Pool) *PgxHistoryRepository {
	return &PgxHistoryRepository{pool: pool}
}

var _ portsrepo.HistoryRepositoryFacade = (*PgxHistoryRepository)(nil)

func toModelHistoryEntry(d domain.HistoryEntry) models.HistoryEntry {
	m := models.HistoryEntry{
		HistoryID:     d.HistoryID,
		AccountNumber: d.AccountNumber,
		Operation:     string(d.Operation),
		NewBalance:    d.NewBalance,
		Description:   d.Description,
		CreatedAt:     d.CreatedAt,
	}
	if d.PreviousBalance != nil {
		m.PreviousBalance = decimal.NewNullDecimal(*d.PreviousBalance)
	}
	return m
}

func toDomainHistoryEntry(m models.HistoryEntry) domain.HistoryEntry {
	d := domain.HistoryEntry{
		HistoryID:     m.HistoryID,
		AccountNumber: m.AccountNumber,
		Operation:     domain.OperationType(m.Operation),
		NewBalance:    m.NewBalance,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
	}
	if m.PreviousBalance.Valid {
		prev := m.PreviousBalance.Decimal
		d.PreviousBalance = &prev
	}
	return d
}

// AppendHistoryInTx inserts one audit entry within the transaction of the mutation
// it records. The table has no update or delete path.
func (r *PgxHistoryRepository) AppendHistoryInTx(ctx context.Context, tx pgx.Tx, entry domain.HistoryEntry) error {
	m := toModelHistoryEntry(entry)

	query := `
		INSERT INTO account_history (history_id, account_number, operation, previous_balance, new_balance, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := tx.Exec(ctx, query,
		m.HistoryID,
		m.AccountNumber,
		m.Operation,
		m.PreviousBalance,
		m.NewBalance,
		m.Description,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to append history for account %s: %w", apperrors.ErrStorage, m.AccountNumber, err)
	}
	return nil
}

// ListHistoryByAccount returns a page of entries in descending creation order plus
// the total count matching the filter. history_id breaks creation-time ties so
// paging stays deterministic.
func (r *PgxHistoryRepository) ListHistoryByAccount(ctx context.Context, accountNumber string, filter portsrepo.HistoryFilter, limit int, offset int) ([]domain.HistoryEntry, int64, error) {
	var operation *string
	if filter.Operation != nil {
		op := string(*filter.Operation)
		operation = &op
	}

	countQuery := `
		SELECT COUNT(*)
		FROM account_history
		WHERE account_number = $1 AND ($2::text IS NULL OR operation = $2);
	`
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, accountNumber, operation).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: failed to count history for account %s: %w", apperrors.ErrStorage, accountNumber, err)
	}

	query := `
		SELECT history_id, account_number, operation, previous_balance, new_balance, description, created_at
		FROM account_history
		WHERE account_number = $1 AND ($2::text IS NULL OR operation = $2)
		ORDER BY created_at DESC, history_id DESC
		LIMIT $3 OFFSET $4;
	`
	rows, err := r.pool.Query(ctx, query, accountNumber, operation, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to query history for account %s: %w", apperrors.ErrStorage, accountNumber, err)
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var m models.HistoryEntry
		err := rows.Scan(
			&m.HistoryID,
			&m.AccountNumber,
			&m.Operation,
			&m.PreviousBalance,
			&m.NewBalance,
			&m.Description,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: failed to scan history row: %w", apperrors.ErrStorage, err)
		}
		entries = append(entries, toDomainHistoryEntry(m))
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("%w: error iterating history rows: %w", apperrors.ErrStorage, rows.Err())
	}
	return entries, total, nil
}
