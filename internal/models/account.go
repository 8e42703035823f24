package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the persistence shape of a bank account row.
type Account struct {
	AccountNumber string          `db:"account_number"`
	IBAN          string          `db:"iban"`
	CustomerName  string          `db:"customer_name"`
	AccountType   string          `db:"account_type"`
	Currency      string          `db:"currency"`
	Balance       decimal.Decimal `db:"balance"`
	Status        string          `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}
