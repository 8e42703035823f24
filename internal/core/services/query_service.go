package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/finacore/bank-account-service/internal/core/domain"
	"github.com/finacore/bank-account-service/internal/core/ports"
	portsrepo "github.com/finacore/bank-account-service/internal/core/ports/repositories"
	portssvc "github.com/finacore/bank-account-service/internal/core/ports/services"
	"github.com/finacore/bank-account-service/internal/middleware"
)

// AccountQueryService is the read path: cache-first lookups with storage fallback.
// Cached values may be up to the TTL stale; that window is accepted, not a bug.
// Any cache failure is treated as a miss so reads never depend on the cache.
type AccountQueryService struct {
	accountRepo portsrepo.AccountReader
	cache       ports.AccountCache
	cacheTTL    time.Duration
}

// NewAccountQueryService creates the read-path service.
func NewAccountQueryService(accountRepo portsrepo.AccountReader, cache ports.AccountCache, cacheTTL time.Duration) *AccountQueryService {
	return &AccountQueryService{
		accountRepo: accountRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
	}
}

var _ portssvc.AccountQuerySvcFacade = (*AccountQueryService)(nil)

// GetByAccountNumber serves from cache when possible; on a miss it reads storage
// and repopulates the cache.
func (s *AccountQueryService) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	cached, err := s.cache.GetAccount(ctx, accountNumber)
	if err == nil {
		logger.Debug("Account served from cache", slog.String("account_number", accountNumber))
		return cached, nil
	}
	if !errors.Is(err, ports.ErrCacheMiss) {
		logger.Warn("Cache read failed, falling back to storage",
			slog.String("account_number", accountNumber), slog.String("error", err.Error()))
	}

	account, err := s.accountRepo.FindAccountByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, *account)
	return account, nil
}

// GetByIBAN resolves the IBAN secondary index, then delegates to the primary lookup.
// On an index miss both the index entry and the primary entry are cached.
func (s *AccountQueryService) GetByIBAN(ctx context.Context, accountIBAN string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	accountNumber, err := s.cache.GetAccountNumberByIBAN(ctx, accountIBAN)
	if err == nil {
		return s.GetByAccountNumber(ctx, accountNumber)
	}
	if !errors.Is(err, ports.ErrCacheMiss) {
		logger.Warn("IBAN index cache read failed, falling back to storage",
			slog.String("iban", accountIBAN), slog.String("error", err.Error()))
	}

	account, err := s.accountRepo.FindAccountByIBAN(ctx, accountIBAN)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, *account)
	return account, nil
}

// ListAccounts reads straight from storage; list pages are not cached.
func (s *AccountQueryService) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	accounts, err := s.accountRepo.ListAccounts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

// populate writes both cache entries best-effort after a storage read.
func (s *AccountQueryService) populate(ctx context.Context, account domain.Account) {
	logger := middleware.GetLoggerFromCtx(ctx)
	if err := s.cache.SetAccount(ctx, account, s.cacheTTL); err != nil {
		logger.Warn("Failed to populate account cache",
			slog.String("account_number", account.AccountNumber), slog.String("error", err.Error()))
	}
	if err := s.cache.SetIBANIndex(ctx, account.IBAN, account.AccountNumber, s.cacheTTL); err != nil {
		logger.Warn("Failed to populate IBAN index cache",
			slog.String("account_number", account.AccountNumber), slog.String("error", err.Error()))
	}
}
