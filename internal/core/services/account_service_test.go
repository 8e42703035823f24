package services_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/finacore/bank-account-service/internal/apperrors"
	"github.com/finacore/bank-account-service/internal/core/domain"
	"github.com/finacore/bank-account-service/internal/core/services"
	"github.com/finacore/bank-account-service/internal/dto"
	"github.com/finacore/bank-account-service/internal/iban"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AccountServiceTestSuite struct {
	suite.Suite
	mockRepo      *MockAccountRepository
	mockHistory   *MockHistoryRepository
	mockCache     *MockAccountCache
	mockPublisher *MockEventPublisher
	service       *services.AccountService
}

func (s *AccountServiceTestSuite) SetupTest() {
	s.mockRepo = new(MockAccountRepository)
	s.mockHistory = new(MockHistoryRepository)
	s.mockCache = new(MockAccountCache)
	s.mockPublisher = new(MockEventPublisher)
	s.service = services.NewAccountService(s.mockRepo, s.mockHistory, s.mockCache, s.mockPublisher)
}

// expectTx wires a Begin/Commit pair around the mocked repository calls.
func (s *AccountServiceTestSuite) expectTx() {
	s.mockRepo.On("Begin", mock.Anything).Return(stubTx{}, nil).Once()
	s.mockRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()
}

// expectRolledBackTx wires a Begin/Rollback pair for mutations that must abort.
func (s *AccountServiceTestSuite) expectRolledBackTx() {
	s.mockRepo.On("Begin", mock.Anything).Return(stubTx{}, nil).Once()
	s.mockRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil).Once()
}

// expectCleanDownstream makes the post-commit cache and event steps succeed.
func (s *AccountServiceTestSuite) expectCleanDownstream() {
	s.mockCache.On("Evict", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockPublisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
}

func (s *AccountServiceTestSuite) activeAccount(balance string) *domain.Account {
	now := time.Now().UTC().Add(-time.Hour)
	acc := domain.NewAccount("100200300400", "TR000006100000100200300400", "John Doe", domain.Checking, domain.TRY, now)
	acc.Balance = decimal.RequireFromString(balance)
	return &acc
}

func (s *AccountServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	s.expectTx()
	s.mockRepo.On("SaveAccountInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Account")).Return(nil).Once()
	s.mockHistory.On("AppendHistoryInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.HistoryEntry")).Return(nil).Once()
	s.expectCleanDownstream()

	result, err := s.service.CreateAccount(ctx, dto.CreateAccountRequest{
		CustomerName: "John Doe",
		AccountType:  "CHECKING",
		Currency:     "TRY",
	})

	s.Require().NoError(err)
	s.Require().NotNil(result)
	s.Nil(result.Degraded)

	account := result.Account
	s.True(account.Balance.IsZero())
	s.Equal(domain.StatusActive, account.Status)
	s.Len(account.IBAN, 26)
	s.Equal("TR", account.IBAN[:2])
	s.True(iban.Validate(account.IBAN))
	s.Equal(account.CreatedAt, account.UpdatedAt)

	s.Require().NotNil(result.Entry)
	s.Equal(domain.OpCreate, result.Entry.Operation)
	s.Nil(result.Entry.PreviousBalance)
	s.True(result.Entry.NewBalance.IsZero())

	s.mockRepo.AssertExpectations(s.T())
	s.mockHistory.AssertExpectations(s.T())
	s.mockCache.AssertExpectations(s.T())
	s.mockPublisher.AssertExpectations(s.T())
}

func (s *AccountServiceTestSuite) TestCreateAccount_InvalidInput() {
	ctx := context.Background()
	cases := []struct {
		name string
		req  dto.CreateAccountRequest
	}{
		{"name too short", dto.CreateAccountRequest{CustomerName: "Jo", AccountType: "CHECKING", Currency: "TRY"}},
		{"unknown type", dto.CreateAccountRequest{CustomerName: "John Doe", AccountType: "PREMIUM", Currency: "TRY"}},
		{"unknown currency", dto.CreateAccountRequest{CustomerName: "John Doe", AccountType: "CHECKING", Currency: "JPY"}},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			result, err := s.service.CreateAccount(ctx, tc.req)
			s.Require().Error(err)
			s.Nil(result)
			s.ErrorIs(err, apperrors.ErrValidation)
		})
	}
}

func (s *AccountServiceTestSuite) TestCreateAccount_RetriesOnDuplicateNumber() {
	ctx := context.Background()
	dupErr := fmt.Errorf("%w: account already exists", apperrors.ErrDuplicate)

	s.mockRepo.On("Begin", mock.Anything).Return(stubTx{}, nil).Twice()
	s.mockRepo.On("SaveAccountInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Account")).Return(dupErr).Once()
	s.mockRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil).Once()
	s.mockRepo.On("SaveAccountInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Account")).Return(nil).Once()
	s.mockHistory.On("AppendHistoryInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.HistoryEntry")).Return(nil).Once()
	s.mockRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()
	s.expectCleanDownstream()

	result, err := s.service.CreateAccount(ctx, dto.CreateAccountRequest{
		CustomerName: "John Doe",
		AccountType:  "SAVINGS",
		Currency:     "EUR",
	})

	s.Require().NoError(err)
	s.Require().NotNil(result)
	s.mockRepo.AssertExpectations(s.T())
}

func (s *AccountServiceTestSuite) TestApplyBalanceChange_DebitSuccess() {
	ctx := context.Background()
	account := s.activeAccount("1500.50")
	s.expectTx()
	s.mockRepo.On("FindAccountByNumberForUpdate", mock.Anything, mock.Anything, account.AccountNumber).Return(account, nil).Once()
	s.mockRepo.On("UpdateAccountInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Account")).Return(nil).Once()
	s.mockHistory.On("AppendHistoryInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.HistoryEntry")).Return(nil).Once()
	s.expectCleanDownstream()

	result, err := s.service.ApplyBalanceChange(ctx, account.AccountNumber, dto.BalanceChangeRequest{
		Amount:      decimal.RequireFromString("-150.00"),
		Description: "ATM withdrawal",
	})

	s.Require().NoError(err)
	s.Require().NotNil(result)
	s.Nil(result.Degraded)
	s.True(result.Account.Balance.Equal(decimal.RequireFromString("1350.50")))

	s.Require().NotNil(result.Entry)
	s.Equal(domain.OpUpdateBalance, result.Entry.Operation)
	s.Require().NotNil(result.Entry.PreviousBalance)
	s.True(result.Entry.PreviousBalance.Equal(decimal.RequireFromString("1500.50")))
	s.True(result.Entry.NewBalance.Equal(decimal.RequireFromString("1350.50")))

	s.mockRepo.AssertExpectations(s.T())
	s.mockCache.AssertExpectations(s.T())
	s.mockPublisher.AssertExpectations(s.T())
}

func (s *AccountServiceTestSuite) TestApplyBalanceChange_InsufficientBalance() {
	ctx := context.Background()
	account := s.activeAccount("100.00")
	s.expectRolledBackTx()
	s.mockRepo.On("FindAccountByNumberForUpdate", mock.Anything, mock.Anything, account.AccountNumber).Return(account, nil).Once()

	result, err := s.service.ApplyBalanceChange(ctx, account.AccountNumber, dto.BalanceChangeRequest{
		Amount:      decimal.RequireFromString("-150.00"),
		Description: "overdraft attempt",
	})

	s.Require().Error(err)
	s.Nil(result)

	var insufficient *apperrors.InsufficientBalanceError
	s.Require().ErrorAs(err, &insufficient)
	s.True(insufficient.Shortfall.Equal(decimal.RequireFromString("50.00")))
	s.True(insufficient.CurrentBalance.Equal(decimal.RequireFromString("100.00")))

	// The aggregate must be left untouched on failure.
	s.True(account.Balance.Equal(decimal.RequireFromString("100.00")))
	s.mockRepo.AssertExpectations(s.T())
}

func (s *AccountServiceTestSuite) TestApplyBalanceChange_ZeroAmountRejected() {
	ctx := context.Background()
	account := s.activeAccount("100.00")
	s.expectRolledBackTx()
	s.mockRepo.On("FindAccountByNumberForUpdate", mock.Anything, mock.Anything, account.AccountNumber).Return(account, nil).Once()

	result, err := s.service.ApplyBalanceChange(ctx, account.AccountNumber, dto.BalanceChangeRequest{
		Amount:      decimal.Zero,
		Description: "noop",
	})

	s.Require().Error(err)
	s.Nil(result)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *AccountServiceTestSuite) TestApplyBalanceChange_SuspendedAccount() {
	ctx := context.Background()
	account := s.activeAccount("100.00")
	account.Status = domain.StatusSuspended
	s.expectRolledBackTx()
	s.mockRepo.On("FindAccountByNumberForUpdate", mock.Anything, mock.Anything, account.AccountNumber).Return(account, nil).Once()

	result, err := s.service.ApplyBalanceChange(ctx, account.AccountNumber, dto.BalanceChangeRequest{
		Amount:      decimal.RequireFromString("10.00"),
		Description: "deposit",
	})

	s.Require().Error(err)
	s.Nil(result)
	s.ErrorIs(err, apperrors.ErrInvalidState)
}

func (s *AccountServiceTestSuite) TestApplyBalanceChange_TooManyDecimalPlaces() {
	ctx := context.Background()

	result, err := s.service.ApplyBalanceChange(ctx, "100200300400", dto.BalanceChangeRequest{
		Amount:      decimal.RequireFromString("10.001"),
		Description: "sub-cent",
	})

	s.Require().Error(err)
	s.Nil(result)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *AccountServiceTestSuite) TestApplyBalanceChange_CommitFailure() {
	ctx := context.Background()
	account := s.activeAccount("100.00")
	s.mockRepo.On("Begin", mock.Anything).Return(stubTx{}, nil).Once()
	s.mockRepo.On("FindAccountByNumberForUpdate", mock.Anything, mock.Anything, account.AccountNumber).Return(account, nil).Once()
	s.mockRepo.On("UpdateAccountInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Account")).Return(nil).Once()
	s.mockHistory.On("AppendHistoryInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.HistoryEntry")).Return(nil).Once()
	s.mockRepo.On("Commit", mock.Anything, mock.Anything).Return(fmt.Errorf("connection reset")).Once()

	result, err := s.service.ApplyBalanceChange(ctx, account.AccountNumber, dto.BalanceChangeRequest{
		Amount:      decimal.RequireFromString("10.00"),
		Description: "deposit",
	})

	s.Require().Error(err)
	s.Nil(result)
	s.ErrorIs(err, apperrors.ErrStorage)

	// Nothing downstream of a failed commit may run.
	s.mockCache.AssertNotCalled(s.T(), "Evict", mock.Anything, mock.Anything, mock.Anything)
	s.mockPublisher.AssertNotCalled(s.T(), "Publish", mock.Anything, mock.Anything)
}

func (s *AccountServiceTestSuite) TestApplyBalanceChange_DegradedConsistency() {
	ctx := context.Background()
	account := s.activeAccount("100.00")
	s.expectTx()
	s.mockRepo.On("FindAccountByNumberForUpdate", mock.Anything, mock.Anything, account.AccountNumber).Return(account, nil).Once()
	s.mockRepo.On("UpdateAccountInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Account")).Return(nil).Once()
	s.mockHistory.On("AppendHistoryInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.HistoryEntry")).Return(nil).Once()
	s.mockCache.On("Evict", mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("redis down")).Once()
	s.mockPublisher.On("Publish", mock.Anything, mock.Anything).Return(fmt.Errorf("redis down")).Once()

	result, err := s.service.ApplyBalanceChange(ctx, account.AccountNumber, dto.BalanceChangeRequest{
		Amount:      decimal.RequireFromString("25.00"),
		Description: "deposit",
	})

	// The operation itself succeeded; the failures ride along as a diagnostic.
	s.Require().NoError(err)
	s.Require().NotNil(result)
	s.Require().NotNil(result.Degraded)
	s.ElementsMatch([]string{"cache_evict", "event_publish"}, result.Degraded.Steps)
	s.True(result.Account.Balance.Equal(decimal.RequireFromString("125.00")))
}

func (s *AccountServiceTestSuite) TestUpdateAccount_RejectsImmutableFields() {
	ctx := context.Background()
	currency := "USD"

	result, err := s.service.UpdateAccount(ctx, "100200300400", dto.UpdateAccountRequest{Currency: &currency})

	s.Require().Error(err)
	s.Nil(result)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *AccountServiceTestSuite) TestUpdateAccount_Success() {
	ctx := context.Background()
	account := s.activeAccount("250.00")
	newName := "Jane Roe"
	newType := "BUSINESS"

	s.expectTx()
	s.mockRepo.On("FindAccountByNumberForUpdate", mock.Anything, mock.Anything, account.AccountNumber).Return(account, nil).Once()
	s.mockRepo.On("UpdateAccountInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Account")).Return(nil).Once()
	s.mockHistory.On("AppendHistoryInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.HistoryEntry")).Return(nil).Once()
	s.expectCleanDownstream()

	result, err := s.service.UpdateAccount(ctx, account.AccountNumber, dto.UpdateAccountRequest{
		CustomerName: &newName,
		AccountType:  &newType,
	})

	s.Require().NoError(err)
	s.Require().NotNil(result)
	s.Equal("Jane Roe", result.Account.CustomerName)
	s.Equal(domain.Business, result.Account.AccountType)
	s.Require().NotNil(result.Entry)
	s.Equal(domain.OpUpdate, result.Entry.Operation)
	s.True(result.Account.Balance.Equal(decimal.RequireFromString("250.00")))
}

func (s *AccountServiceTestSuite) TestChangeStatus_CloseWithNonZeroBalance() {
	ctx := context.Background()
	account := s.activeAccount("10.00")
	s.expectRolledBackTx()
	s.mockRepo.On("FindAccountByNumberForUpdate", mock.Anything, mock.Anything, account.AccountNumber).Return(account, nil).Once()

	result, err := s.service.ChangeStatus(ctx, account.AccountNumber, dto.StatusChangeRequest{Status: "CLOSED"})

	s.Require().Error(err)
	s.Nil(result)

	var nonZero *apperrors.NonZeroBalanceError
	s.Require().ErrorAs(err, &nonZero)
	s.True(nonZero.CurrentBalance.Equal(decimal.RequireFromString("10.00")))
	s.Equal(domain.StatusActive, account.Status)
}

func (s *AccountServiceTestSuite) TestChangeStatus_ClosedIsTerminal() {
	ctx := context.Background()
	account := s.activeAccount("0.00")
	account.Status = domain.StatusClosed
	s.expectRolledBackTx()
	s.mockRepo.On("FindAccountByNumberForUpdate", mock.Anything, mock.Anything, account.AccountNumber).Return(account, nil).Once()

	result, err := s.service.ChangeStatus(ctx, account.AccountNumber, dto.StatusChangeRequest{Status: "ACTIVE"})

	s.Require().Error(err)
	s.Nil(result)
	s.ErrorIs(err, apperrors.ErrInvalidState)
	s.Equal(domain.StatusClosed, account.Status)
}

func (s *AccountServiceTestSuite) TestChangeStatus_CloseSuccess() {
	ctx := context.Background()
	account := s.activeAccount("0.00")
	s.expectTx()
	s.mockRepo.On("FindAccountByNumberForUpdate", mock.Anything, mock.Anything, account.AccountNumber).Return(account, nil).Once()
	s.mockRepo.On("UpdateAccountInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Account")).Return(nil).Once()
	s.mockHistory.On("AppendHistoryInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.HistoryEntry")).Return(nil).Once()
	s.expectCleanDownstream()

	result, err := s.service.ChangeStatus(ctx, account.AccountNumber, dto.StatusChangeRequest{
		Status: "CLOSED",
		Reason: "customer request",
	})

	s.Require().NoError(err)
	s.Require().NotNil(result)
	s.Equal(domain.StatusClosed, result.Account.Status)
	s.Require().NotNil(result.Entry)
	s.Equal(domain.OpStatusChange, result.Entry.Operation)
	s.Contains(result.Entry.Description, "customer request")
}

func (s *AccountServiceTestSuite) TestChangeStatus_UnknownStatus() {
	ctx := context.Background()

	result, err := s.service.ChangeStatus(ctx, "100200300400", dto.StatusChangeRequest{Status: "FROZEN"})

	s.Require().Error(err)
	s.Nil(result)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *AccountServiceTestSuite) TestApplyBalanceChange_AccountNotFound() {
	ctx := context.Background()
	s.expectRolledBackTx()
	s.mockRepo.On("FindAccountByNumberForUpdate", mock.Anything, mock.Anything, "999999999999").Return(nil, apperrors.ErrNotFound).Once()

	result, err := s.service.ApplyBalanceChange(ctx, "999999999999", dto.BalanceChangeRequest{
		Amount:      decimal.RequireFromString("10.00"),
		Description: "deposit",
	})

	s.Require().Error(err)
	s.Nil(result)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *AccountServiceTestSuite) TestChangeStatus_LongReasonBoundedDescription() {
	ctx := context.Background()
	account := s.activeAccount("0.00")
	s.expectTx()
	s.mockRepo.On("FindAccountByNumberForUpdate", mock.Anything, mock.Anything, account.AccountNumber).Return(account, nil).Once()
	s.mockRepo.On("UpdateAccountInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Account")).Return(nil).Once()
	s.mockHistory.On("AppendHistoryInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.HistoryEntry")).Return(nil).Once()
	s.expectCleanDownstream()

	result, err := s.service.ChangeStatus(ctx, account.AccountNumber, dto.StatusChangeRequest{
		Status: "SUSPENDED",
		Reason: strings.Repeat("fraud review pending ", 12),
	})

	s.Require().NoError(err)
	s.Require().NotNil(result.Entry)
	// The description column is VARCHAR(255).
	s.LessOrEqual(utf8.RuneCountInString(result.Entry.Description), 255)
	s.True(strings.HasPrefix(result.Entry.Description, "Status changed from ACTIVE to SUSPENDED"))
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

// Two concurrent 600.00 debits against a 1000.00 balance: the row lock admits
// them one at a time, so exactly one succeeds and the balance lands at 400.00.
func TestApplyBalanceChange_ConcurrentDebits(t *testing.T) {
	account := domain.NewAccount("100200300400", "TR000006100000100200300400", "John Doe", domain.Checking, domain.TRY, time.Now().UTC())
	account.Balance = decimal.RequireFromString("1000.00")
	store := newFakeAccountStore(account)
	service := services.NewAccountService(store, nopHistoryStore{}, nopCache{}, nopPublisher{})

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.ApplyBalanceChange(context.Background(), account.AccountNumber, dto.BalanceChangeRequest{
				Amount:      decimal.RequireFromString("-600.00"),
				Description: "concurrent withdrawal",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var failures []error
	for err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	require.Len(t, failures, 1, "exactly one debit must fail")

	var insufficient *apperrors.InsufficientBalanceError
	require.ErrorAs(t, failures[0], &insufficient)
	assert.True(t, insufficient.Shortfall.Equal(decimal.RequireFromString("200.00")))

	final, err := store.FindAccountByNumber(context.Background(), account.AccountNumber)
	require.NoError(t, err)
	assert.True(t, final.Balance.Equal(decimal.RequireFromString("400.00")))
}
