package services

import (
	"context"
	"log/slog"

	"github.com/finacore/bank-account-service/internal/core/domain"
	portsrepo "github.com/finacore/bank-account-service/internal/core/ports/repositories"
	portssvc "github.com/finacore/bank-account-service/internal/core/ports/services"
	"github.com/finacore/bank-account-service/internal/dto"
	"github.com/finacore/bank-account-service/internal/middleware"
)

// HistoryService exposes the append-only audit trail. Appends happen inside the
// mutation coordinator's transaction; this service only reads.
type HistoryService struct {
	historyRepo portsrepo.HistoryRepositoryFacade
}

// NewHistoryService creates the audit-trail read service.
func NewHistoryService(historyRepo portsrepo.HistoryRepositoryFacade) *HistoryService {
	return &HistoryService{historyRepo: historyRepo}
}

var _ portssvc.HistorySvcFacade = (*HistoryService)(nil)

// ListHistory returns a page of entries for an account, newest first, with the
// total count matching the optional operation filter.
func (s *HistoryService) ListHistory(ctx context.Context, accountNumber string, params dto.ListHistoryParams) ([]domain.HistoryEntry, int64, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	filter := portsrepo.HistoryFilter{}
	if params.Operation != "" {
		op, err := domain.ParseOperationType(params.Operation)
		if err != nil {
			return nil, 0, err
		}
		filter.Operation = &op
	}

	p := params.Normalized()

	entries, total, err := s.historyRepo.ListHistoryByAccount(ctx, accountNumber, filter, p.Limit, p.Offset)
	if err != nil {
		logger.Error("Failed to list account history",
			slog.String("account_number", accountNumber), slog.String("error", err.Error()))
		return nil, 0, err
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	return entries, total, nil
}
