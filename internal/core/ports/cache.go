package ports

import (
	"context"
	"errors"
	"time"

	"github.com/finacore/bank-account-service/internal/core/domain"
)

// ErrCacheMiss indicates the requested key is not present in the cache.
var ErrCacheMiss = errors.New("cache miss")

// AccountCache is the best-effort read-through cache capability. Entries carry a
// short TTL set by the caller; unavailability degrades reads but never blocks
// correctness, since storage stays the source of truth.
type AccountCache interface {
	// GetAccount returns the cached account or ErrCacheMiss.
	GetAccount(ctx context.Context, accountNumber string) (*domain.Account, error)

	// SetAccount stores an account snapshot under its account number.
	SetAccount(ctx context.Context, account domain.Account, ttl time.Duration) error

	// GetAccountNumberByIBAN resolves the IBAN secondary index or returns ErrCacheMiss.
	GetAccountNumberByIBAN(ctx context.Context, iban string) (string, error)

	// SetIBANIndex stores the iban -> account number index entry.
	SetIBANIndex(ctx context.Context, iban string, accountNumber string, ttl time.Duration) error

	// Evict drops both the primary entry and the IBAN index entry.
	Evict(ctx context.Context, accountNumber string, iban string) error
}
