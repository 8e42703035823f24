package ports

import (
	"context"

	"github.com/finacore/bank-account-service/internal/core/domain"
)

// EventPublisher is the downstream event feed capability. Publishing is best-effort
// at-least-once and only ever runs after the storage commit succeeded.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.AccountEvent) error
}
