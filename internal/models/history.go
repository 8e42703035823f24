package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryEntry is the persistence shape of an audit-trail row.
// previous_balance is NULL for CREATE entries.
type HistoryEntry struct {
	HistoryID       string              `db:"history_id"`
	AccountNumber   string              `db:"account_number"`
	Operation       string              `db:"operation"`
	PreviousBalance decimal.NullDecimal `db:"previous_balance"`
	NewBalance      decimal.Decimal     `db:"new_balance"`
	Description     string              `db:"description"`
	CreatedAt       time.Time           `db:"created_at"`
}
