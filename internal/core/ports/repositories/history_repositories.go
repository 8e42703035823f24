package repositories

import (
	"context"

	"github.com/finacore/bank-account-service/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// HistoryFilter narrows a history query. A nil Operation matches every entry.
type HistoryFilter struct {
	Operation *domain.OperationType
}

// HistoryReader defines read operations over the append-only audit trail.
type HistoryReader interface {
	// ListHistoryByAccount returns entries for an account in descending creation
	// order, plus the total count matching the filter.
	ListHistoryByAccount(ctx context.Context, accountNumber string, filter HistoryFilter, limit int, offset int) ([]domain.HistoryEntry, int64, error)
}

// HistoryWriter appends to the audit trail. There is no update or delete; the log
// is write-once.
type HistoryWriter interface {
	// AppendHistoryInTx inserts an entry within the same transaction as the
	// account mutation it records.
	AppendHistoryInTx(ctx context.Context, tx pgx.Tx, entry domain.HistoryEntry) error
}

// HistoryRepositoryFacade combines history read and write capabilities.
type HistoryRepositoryFacade interface {
	HistoryReader
	HistoryWriter
}
