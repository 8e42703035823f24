package domain

import (
	"fmt"
	"time"

	"github.com/finacore/bank-account-service/internal/apperrors"
	"github.com/shopspring/decimal"
)

// OperationType tags what kind of mutation a history entry records.
type OperationType string

const (
	OpCreate        OperationType = "CREATE"
	OpUpdateBalance OperationType = "UPDATE_BALANCE"
	OpStatusChange  OperationType = "STATUS_CHANGE"
	OpUpdate        OperationType = "UPDATE"
)

// ParseOperationType validates a raw operation value, used for history filters.
func ParseOperationType(s string) (OperationType, error) {
	switch OperationType(s) {
	case OpCreate, OpUpdateBalance, OpStatusChange, OpUpdate:
		return OperationType(s), nil
	}
	return "", fmt.Errorf("%w: unknown operation type %q", apperrors.ErrValidation, s)
}

// HistoryEntry is one immutable fact in the per-account audit trail. Entries are
// appended alongside the mutation they record and never updated or deleted.
// PreviousBalance is nil for CREATE entries only.
type HistoryEntry struct {
	HistoryID       string           `json:"historyID"`
	AccountNumber   string           `json:"accountNumber"`
	Operation       OperationType    `json:"operation"`
	PreviousBalance *decimal.Decimal `json:"previousBalance,omitempty"`
	NewBalance      decimal.Decimal  `json:"newBalance"`
	Description     string           `json:"description"`
	CreatedAt       time.Time        `json:"createdAt"`
}
