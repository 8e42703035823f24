package services_test

import (
	"context"
	"time"

	"github.com/finacore/bank-account-service/internal/apperrors"
	"github.com/finacore/bank-account-service/internal/core/domain"
	"github.com/finacore/bank-account-service/internal/core/ports"
	portsrepo "github.com/finacore/bank-account-service/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// stubTx is a no-op pgx.Tx handed out by the mocked Begin. The repositories are
// mocked too, so nothing ever executes against it.
type stubTx struct{}

func (stubTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (stubTx) Commit(ctx context.Context) error          { return nil }
func (stubTx) Rollback(ctx context.Context) error        { return nil }
func (stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (stubTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (stubTx) Conn() *pgx.Conn                                              { return nil }

// MockAccountRepository is a mock type for the AccountRepositoryWithTx interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockAccountRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockAccountRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByIBAN(ctx context.Context, iban string) (*domain.Account, error) {
	args := m.Called(ctx, iban)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccountInTx(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	args := m.Called(ctx, tx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByNumberForUpdate(ctx context.Context, tx pgx.Tx, accountNumber string) (*domain.Account, error) {
	args := m.Called(ctx, tx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountInTx(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	args := m.Called(ctx, tx, account)
	return args.Error(0)
}

// MockHistoryRepository is a mock type for the HistoryRepositoryFacade interface
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) AppendHistoryInTx(ctx context.Context, tx pgx.Tx, entry domain.HistoryEntry) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListHistoryByAccount(ctx context.Context, accountNumber string, filter portsrepo.HistoryFilter, limit int, offset int) ([]domain.HistoryEntry, int64, error) {
	args := m.Called(ctx, accountNumber, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.HistoryEntry), args.Get(1).(int64), args.Error(2)
}

// MockAccountCache is a mock type for the AccountCache interface
type MockAccountCache struct {
	mock.Mock
}

func (m *MockAccountCache) GetAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountCache) SetAccount(ctx context.Context, account domain.Account, ttl time.Duration) error {
	args := m.Called(ctx, account, ttl)
	return args.Error(0)
}

func (m *MockAccountCache) GetAccountNumberByIBAN(ctx context.Context, iban string) (string, error) {
	args := m.Called(ctx, iban)
	return args.String(0), args.Error(1)
}

func (m *MockAccountCache) SetIBANIndex(ctx context.Context, iban string, accountNumber string, ttl time.Duration) error {
	args := m.Called(ctx, iban, accountNumber, ttl)
	return args.Error(0)
}

func (m *MockAccountCache) Evict(ctx context.Context, accountNumber string, iban string) error {
	args := m.Called(ctx, accountNumber, iban)
	return args.Error(0)
}

// MockEventPublisher is a mock type for the EventPublisher interface
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.AccountEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// fakeAccountStore holds a single in-memory account row and serializes
// transactions over it the way the database row lock does: the lock is taken by
// FindAccountByNumberForUpdate and released at Commit or Rollback.
type fakeAccountStore struct {
	lock    chan struct{}
	account domain.Account
	pending *domain.Account
}

func newFakeAccountStore(account domain.Account) *fakeAccountStore {
	return &fakeAccountStore{lock: make(chan struct{}, 1), account: account}
}

func (f *fakeAccountStore) release() {
	select {
	case <-f.lock:
	default:
	}
}

func (f *fakeAccountStore) Begin(ctx context.Context) (pgx.Tx, error) { return stubTx{}, nil }

func (f *fakeAccountStore) Commit(ctx context.Context, tx pgx.Tx) error {
	if f.pending != nil {
		f.account = *f.pending
		f.pending = nil
	}
	f.release()
	return nil
}

func (f *fakeAccountStore) Rollback(ctx context.Context, tx pgx.Tx) error {
	f.pending = nil
	f.release()
	return nil
}

func (f *fakeAccountStore) FindAccountByNumberForUpdate(ctx context.Context, tx pgx.Tx, accountNumber string) (*domain.Account, error) {
	f.lock <- struct{}{}
	if f.account.AccountNumber != accountNumber {
		f.release()
		return nil, apperrors.ErrNotFound
	}
	acc := f.account
	return &acc, nil
}

func (f *fakeAccountStore) UpdateAccountInTx(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	f.pending = &account
	return nil
}

func (f *fakeAccountStore) SaveAccountInTx(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	return nil
}

func (f *fakeAccountStore) FindAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	f.lock <- struct{}{}
	defer f.release()
	if f.account.AccountNumber != accountNumber {
		return nil, apperrors.ErrNotFound
	}
	acc := f.account
	return &acc, nil
}

func (f *fakeAccountStore) FindAccountByIBAN(ctx context.Context, iban string) (*domain.Account, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakeAccountStore) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	return nil, nil
}

type nopHistoryStore struct{}

func (nopHistoryStore) AppendHistoryInTx(ctx context.Context, tx pgx.Tx, entry domain.HistoryEntry) error {
	return nil
}

func (nopHistoryStore) ListHistoryByAccount(ctx context.Context, accountNumber string, filter portsrepo.HistoryFilter, limit int, offset int) ([]domain.HistoryEntry, int64, error) {
	return nil, 0, nil
}

type nopCache struct{}

func (nopCache) GetAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	return nil, ports.ErrCacheMiss
}

func (nopCache) SetAccount(ctx context.Context, account domain.Account, ttl time.Duration) error {
	return nil
}

func (nopCache) GetAccountNumberByIBAN(ctx context.Context, iban string) (string, error) {
	return "", ports.ErrCacheMiss
}

func (nopCache) SetIBANIndex(ctx context.Context, iban string, accountNumber string, ttl time.Duration) error {
	return nil
}

func (nopCache) Evict(ctx context.Context, accountNumber string, iban string) error { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, event domain.AccountEvent) error { return nil }
