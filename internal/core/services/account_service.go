package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finacore/bank-account-service/internal/apperrors"
	"github.com/finacore/bank-account-service/internal/core/domain"
	"github.com/finacore/bank-account-service/internal/core/ports"
	portsrepo "github.com/finacore/bank-account-service/internal/core/ports/repositories"
	portssvc "github.com/finacore/bank-account-service/internal/core/ports/services"
	"github.com/finacore/bank-account-service/internal/dto"
	"github.com/finacore/bank-account-service/internal/iban"
	"github.com/finacore/bank-account-service/internal/middleware"
	"github.com/finacore/bank-account-service/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	accountNumberDigits = 12

	// downstreamTimeout bounds the post-commit cache/event calls so a slow
	// collaborator cannot hold the request open after durability is reached.
	downstreamTimeout = 5 * time.Second

	// historyDescriptionLimit matches the account_history.description column width.
	historyDescriptionLimit = 255
)

// AccountService coordinates every mutating account operation: aggregate mutation
// and history append inside one storage transaction, then cache invalidation and
// event emission. The transaction commit is the durability point; everything after
// it is best-effort and reported as degraded consistency, never as failure.
type AccountService struct {
	accountRepo portsrepo.AccountRepositoryWithTx
	historyRepo portsrepo.HistoryRepositoryFacade
	cache       ports.AccountCache
	publisher   ports.EventPublisher
}

// NewAccountService creates the mutation coordinator.
func NewAccountService(
	accountRepo portsrepo.AccountRepositoryWithTx,
	historyRepo portsrepo.HistoryRepositoryFacade,
	cache ports.AccountCache,
	publisher ports.EventPublisher,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		historyRepo: historyRepo,
		cache:       cache,
		publisher:   publisher,
	}
}

var _ portssvc.AccountSvcFacade = (*AccountService)(nil)

// CreateAccount opens a new ACTIVE account with a freshly generated account number,
// a derived IBAN and a zero balance.
func (s *AccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*dto.MutationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := domain.ValidateCustomerName(req.CustomerName); err != nil {
		return nil, err
	}
	accountType, err := domain.ParseAccountType(req.AccountType)
	if err != nil {
		return nil, err
	}
	currency, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	// Account numbers are random; a collision surfaces as a unique violation on
	// insert, so one retry with a fresh number is enough.
	var account domain.Account
	var entry domain.HistoryEntry
	for attempt := 0; ; attempt++ {
		account, entry, err = s.persistNewAccount(ctx, req.CustomerName, accountType, currency)
		if err == nil {
			break
		}
		if !errors.Is(err, apperrors.ErrDuplicate) || attempt >= 1 {
			return nil, err
		}
		logger.Warn("Account number collision, retrying with a fresh number", slog.String("error", err.Error()))
	}

	event := domain.NewAccountEvent(domain.EventAccountCreated, account, nil, "Account created", account.CreatedAt)
	degraded := s.syncDownstream(ctx, account, event)

	logger.Info("Account created",
		slog.String("account_number", account.AccountNumber),
		slog.String("iban", account.IBAN))
	return &dto.MutationResult{Account: account, Entry: &entry, Degraded: degraded}, nil
}

// ApplyBalanceChange credits (positive) or debits (negative) the account by an exact
// signed amount, serialized against other writers of the same account by the row
// lock taken inside the transaction.
func (s *AccountService) ApplyBalanceChange(ctx context.Context, accountNumber string, req dto.BalanceChangeRequest) (*dto.MutationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	amount := req.Amount
	if !amount.Equal(amount.Round(2)) {
		return nil, fmt.Errorf("%w: amount must have at most 2 decimal places", apperrors.ErrValidation)
	}

	result, err := s.mutateAccount(ctx, accountNumber, func(account *domain.Account, now time.Time) (domain.HistoryEntry, domain.AccountEvent, error) {
		prev := account.Balance
		if err := account.ApplyBalanceChange(amount, now); err != nil {
			return domain.HistoryEntry{}, domain.AccountEvent{}, err
		}
		entry := domain.HistoryEntry{
			HistoryID:       uuid.NewString(),
			AccountNumber:   account.AccountNumber,
			Operation:       domain.OpUpdateBalance,
			PreviousBalance: &prev,
			NewBalance:      account.Balance,
			Description:     req.Description,
			CreatedAt:       now,
		}
		event := domain.NewAccountEvent(domain.EventBalanceChanged, *account, &prev, req.Description, now)
		return entry, event, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Balance change applied",
		slog.String("account_number", accountNumber),
		slog.String("amount", amount.StringFixed(2)))
	return result, nil
}

// UpdateAccount changes the mutable fields. Identity fields present in the request
// are rejected rather than ignored.
func (s *AccountService) UpdateAccount(ctx context.Context, accountNumber string, req dto.UpdateAccountRequest) (*dto.MutationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.AccountNumber != nil || req.IBAN != nil || req.Currency != nil {
		return nil, fmt.Errorf("%w: account number, IBAN and currency are immutable", apperrors.ErrValidation)
	}
	var accountType *domain.AccountType
	if req.AccountType != nil {
		parsed, err := domain.ParseAccountType(*req.AccountType)
		if err != nil {
			return nil, err
		}
		accountType = &parsed
	}

	result, err := s.mutateAccount(ctx, accountNumber, func(account *domain.Account, now time.Time) (domain.HistoryEntry, domain.AccountEvent, error) {
		prev := account.Balance
		if err := account.UpdateDetails(req.CustomerName, accountType, now); err != nil {
			return domain.HistoryEntry{}, domain.AccountEvent{}, err
		}
		entry := domain.HistoryEntry{
			HistoryID:       uuid.NewString(),
			AccountNumber:   account.AccountNumber,
			Operation:       domain.OpUpdate,
			PreviousBalance: &prev,
			NewBalance:      account.Balance,
			Description:     "Account details updated",
			CreatedAt:       now,
		}
		event := domain.NewAccountEvent(domain.EventAccountUpdated, *account, nil, "Account details updated", now)
		return entry, event, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Account details updated", slog.String("account_number", accountNumber))
	return result, nil
}

// ChangeStatus transitions the account lifecycle status along the legal edges.
func (s *AccountService) ChangeStatus(ctx context.Context, accountNumber string, req dto.StatusChangeRequest) (*dto.MutationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	target, err := domain.ParseAccountStatus(req.Status)
	if err != nil {
		return nil, err
	}

	result, err := s.mutateAccount(ctx, accountNumber, func(account *domain.Account, now time.Time) (domain.HistoryEntry, domain.AccountEvent, error) {
		prevStatus := account.Status
		prevBalance := account.Balance
		if err := account.ChangeStatus(target, now); err != nil {
			return domain.HistoryEntry{}, domain.AccountEvent{}, err
		}
		description := fmt.Sprintf("Status changed from %s to %s", prevStatus, target)
		if req.Reason != "" {
			description += ": " + req.Reason
		}
		if r := []rune(description); len(r) > historyDescriptionLimit {
			description = string(r[:historyDescriptionLimit])
		}
		entry := domain.HistoryEntry{
			HistoryID:       uuid.NewString(),
			AccountNumber:   account.AccountNumber,
			Operation:       domain.OpStatusChange,
			PreviousBalance: &prevBalance,
			NewBalance:      account.Balance,
			Description:     description,
			CreatedAt:       now,
		}
		event := domain.NewAccountEvent(domain.EventStatusChanged, *account, nil, description, now)
		return entry, event, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Account status changed",
		slog.String("account_number", accountNumber),
		slog.String("status", string(target)))
	return result, nil
}

// persistNewAccount generates identity, builds the aggregate and commits the account
// row together with its CREATE history entry.
func (s *AccountService) persistNewAccount(ctx context.Context, customerName string, accountType domain.AccountType, currency domain.Currency) (domain.Account, domain.HistoryEntry, error) {
	number, err := utils.GenerateAccountNumber(accountNumberDigits)
	if err != nil {
		return domain.Account{}, domain.HistoryEntry{}, fmt.Errorf("failed to generate account number: %w", err)
	}
	accountIBAN, err := iban.Generate(number)
	if err != nil {
		return domain.Account{}, domain.HistoryEntry{}, fmt.Errorf("failed to derive IBAN: %w", err)
	}

	now := time.Now().UTC()
	account := domain.NewAccount(number, accountIBAN, customerName, accountType, currency, now)
	entry := domain.HistoryEntry{
		HistoryID:     uuid.NewString(),
		AccountNumber: number,
		Operation:     domain.OpCreate,
		NewBalance:    account.Balance,
		Description:   "Account created",
		CreatedAt:     now,
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.accountRepo.SaveAccountInTx(ctx, tx, account); err != nil {
			return err
		}
		return s.historyRepo.AppendHistoryInTx(ctx, tx, entry)
	})
	if err != nil {
		return domain.Account{}, domain.HistoryEntry{}, err
	}
	return account, entry, nil
}

// mutateAccount runs one read-check-write cycle: lock the row, apply the aggregate
// mutation, write back account and history, commit, then sync downstream views.
// Aggregate validation failures abort before any side effect.
func (s *AccountService) mutateAccount(ctx context.Context, accountNumber string, mutate func(account *domain.Account, now time.Time) (domain.HistoryEntry, domain.AccountEvent, error)) (*dto.MutationResult, error) {
	var account domain.Account
	var entry domain.HistoryEntry
	var event domain.AccountEvent

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		locked, err := s.accountRepo.FindAccountByNumberForUpdate(ctx, tx, accountNumber)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		e, ev, err := mutate(locked, now)
		if err != nil {
			return err
		}
		if err := s.accountRepo.UpdateAccountInTx(ctx, tx, *locked); err != nil {
			return err
		}
		if err := s.historyRepo.AppendHistoryInTx(ctx, tx, e); err != nil {
			return err
		}
		account, entry, event = *locked, e, ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	degraded := s.syncDownstream(ctx, account, event)
	return &dto.MutationResult{Account: account, Entry: &entry, Degraded: degraded}, nil
}

// inTx runs fn inside a single transaction. The commit is the durability point for
// the whole mutating operation; on failure nothing downstream runs.
func (s *AccountService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.accountRepo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrStorage, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := s.accountRepo.Rollback(ctx, tx); rbErr != nil {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to roll back transaction", slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := s.accountRepo.Commit(ctx, tx); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// syncDownstream invalidates the cache and emits the event after a successful
// commit. The context is detached from the caller: cancellation past the commit
// cannot roll it back, so these steps run to completion or their own timeout.
// The cache entry also carries its own TTL, so a missed eviction heals itself.
func (s *AccountService) syncDownstream(ctx context.Context, account domain.Account, event domain.AccountEvent) *apperrors.DegradedConsistencyError {
	logger := middleware.GetLoggerFromCtx(ctx)
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), downstreamTimeout)
	defer cancel()

	degraded := &apperrors.DegradedConsistencyError{}
	if err := s.cache.Evict(detached, account.AccountNumber, account.IBAN); err != nil {
		degraded.Record("cache_evict", err)
	}
	if err := s.publisher.Publish(detached, event); err != nil {
		degraded.Record("event_publish", err)
	}

	if degraded.Empty() {
		return nil
	}
	logger.Warn("Operation committed with degraded consistency",
		slog.String("account_number", account.AccountNumber),
		slog.String("detail", degraded.Error()))
	return degraded
}
