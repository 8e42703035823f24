package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finacore/bank-account-service/internal/core/domain"
	"github.com/finacore/bank-account-service/internal/core/ports"
	goredis "github.com/redis/go-redis/v9"
)

const (
	accountKeyPrefix = "account:"
	ibanKeyPrefix    = "iban:"
)

// AccountCache stores JSON account snapshots and the iban -> account number index
// in Redis. Entries always carry the TTL handed in by the caller, so a missed
// eviction expires on its own.
type AccountCache struct {
	rdb *goredis.Client
}

// NewAccountCache creates the Redis-backed account cache.
func NewAccountCache(rdb *goredis.Client) *AccountCache {
	return &AccountCache{rdb: rdb}
}

var _ ports.AccountCache = (*AccountCache)(nil)

func accountKey(accountNumber string) string {
	return accountKeyPrefix + accountNumber
}

func ibanKey(iban string) string {
	return ibanKeyPrefix + iban
}

// GetAccount returns the cached account or ports.ErrCacheMiss.
func (c *AccountCache) GetAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	raw, err := c.rdb.Get(ctx, accountKey(accountNumber)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ports.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get account %s: %w", accountNumber, err)
	}

	var account domain.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		// A corrupt entry is as good as absent.
		return nil, ports.ErrCacheMiss
	}
	return &account, nil
}

// SetAccount stores an account snapshot under its account number.
func (c *AccountCache) SetAccount(ctx context.Context, account domain.Account, ttl time.Duration) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("marshal account %s: %w", account.AccountNumber, err)
	}
	if err := c.rdb.Set(ctx, accountKey(account.AccountNumber), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set account %s: %w", account.AccountNumber, err)
	}
	return nil
}

// GetAccountNumberByIBAN resolves the secondary index or returns ports.ErrCacheMiss.
func (c *AccountCache) GetAccountNumberByIBAN(ctx context.Context, iban string) (string, error) {
	accountNumber, err := c.rdb.Get(ctx, ibanKey(iban)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ports.ErrCacheMiss
		}
		return "", fmt.Errorf("redis get iban index %s: %w", iban, err)
	}
	return accountNumber, nil
}

// SetIBANIndex stores the iban -> account number index entry.
func (c *AccountCache) SetIBANIndex(ctx context.Context, iban string, accountNumber string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, ibanKey(iban), accountNumber, ttl).Err(); err != nil {
		return fmt.Errorf("redis set iban index %s: %w", iban, err)
	}
	return nil
}

// Evict drops both the primary entry and the IBAN index entry.
func (c *AccountCache) Evict(ctx context.Context, accountNumber string, iban string) error {
	if err := c.rdb.Del(ctx, accountKey(accountNumber), ibanKey(iban)).Err(); err != nil {
		return fmt.Errorf("redis evict account %s: %w", accountNumber, err)
	}
	return nil
}
