package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/finacore/bank-account-service/internal/core/domain"
	"github.com/finacore/bank-account-service/internal/core/ports"
	goredis "github.com/redis/go-redis/v9"
)

// Publisher emits account events on a Redis pub/sub channel. Delivery is
// best-effort at-least-once; a failed publish is reported to the caller who
// records it as degraded consistency.
type Publisher struct {
	rdb     *goredis.Client
	channel string
}

// NewPublisher creates the event publisher. Events go to "<channelPrefix>.accounts".
func NewPublisher(rdb *goredis.Client, channelPrefix string) *Publisher {
	return &Publisher{
		rdb:     rdb,
		channel: channelPrefix + ".accounts",
	}
}

var _ ports.EventPublisher = (*Publisher)(nil)

// Publish marshals the event envelope and sends it on the account channel.
func (p *Publisher) Publish(ctx context.Context, event domain.AccountEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event for account %s: %w", event.EventType, event.AccountNumber, err)
	}
	if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish %s event for account %s: %w", event.EventType, event.AccountNumber, err)
	}
	return nil
}
