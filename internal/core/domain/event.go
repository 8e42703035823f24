package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType tags the downstream event emitted after a committed mutation.
type EventType string

const (
	EventAccountCreated EventType = "ACCOUNT_CREATED"
	EventBalanceChanged EventType = "BALANCE_CHANGED"
	EventStatusChanged  EventType = "STATUS_CHANGED"
	EventAccountUpdated EventType = "ACCOUNT_UPDATED"
)

// AccountEvent is the payload published to the event sink after storage commit.
// Delivery is best-effort at-least-once; consumers must tolerate duplicates.
type AccountEvent struct {
	EventType       EventType        `json:"eventType"`
	AccountNumber   string           `json:"accountNumber"`
	IBAN            string           `json:"iban"`
	CustomerName    string           `json:"customerName"`
	AccountType     AccountType      `json:"accountType"`
	Currency        Currency         `json:"currency"`
	Status          AccountStatus    `json:"status"`
	Balance         decimal.Decimal  `json:"balance"`
	PreviousBalance *decimal.Decimal `json:"previousBalance,omitempty"`
	Description     string           `json:"description,omitempty"`
	OccurredAt      time.Time        `json:"occurredAt"`
}

// NewAccountEvent snapshots an account into an event envelope.
func NewAccountEvent(eventType EventType, account Account, previousBalance *decimal.Decimal, description string, now time.Time) AccountEvent {
	return AccountEvent{
		EventType:       eventType,
		AccountNumber:   account.AccountNumber,
		IBAN:            account.IBAN,
		CustomerName:    account.CustomerName,
		AccountType:     account.AccountType,
		Currency:        account.Currency,
		Status:          account.Status,
		Balance:         account.Balance,
		PreviousBalance: previousBalance,
		Description:     description,
		OccurredAt:      now,
	}
}
