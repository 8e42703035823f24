package dto

import (
	"time"

	"github.com/finacore/bank-account-service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ListHistoryParams defines query parameters for the audit-trail listing.
type ListHistoryParams struct {
	Operation string `form:"operation"`
	Limit     int    `form:"limit,default=20"`
	Offset    int    `form:"offset,default=0"`
}

const (
	defaultHistoryPageSize = 20
	maxHistoryPageSize     = 100
)

// Normalized applies the paging bounds: default and maximum page size,
// non-negative offset. Handlers and the service share these bounds so response
// metadata reflects the page actually served.
func (p ListHistoryParams) Normalized() ListHistoryParams {
	if p.Limit <= 0 {
		p.Limit = defaultHistoryPageSize
	}
	if p.Limit > maxHistoryPageSize {
		p.Limit = maxHistoryPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// HistoryEntryResponse is the wire shape of one audit-trail entry.
type HistoryEntryResponse struct {
	HistoryID       string           `json:"historyID"`
	AccountNumber   string           `json:"accountNumber"`
	Operation       string           `json:"operation"`
	PreviousBalance *decimal.Decimal `json:"previousBalance,omitempty"`
	NewBalance      decimal.Decimal  `json:"newBalance"`
	Description     string           `json:"description"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// ListHistoryResponse wraps a page of history entries with paging metadata.
type ListHistoryResponse struct {
	Entries    []HistoryEntryResponse `json:"entries"`
	TotalCount int64                  `json:"totalCount"`
	Limit      int                    `json:"limit"`
	Offset     int                    `json:"offset"`
}

// ToHistoryEntryResponse converts a domain history entry to its wire shape.
func ToHistoryEntryResponse(entry *domain.HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		HistoryID:       entry.HistoryID,
		AccountNumber:   entry.AccountNumber,
		Operation:       string(entry.Operation),
		PreviousBalance: entry.PreviousBalance,
		NewBalance:      entry.NewBalance,
		Description:     entry.Description,
		CreatedAt:       entry.CreatedAt,
	}
}

// ToListHistoryResponse converts a page of history entries.
func ToListHistoryResponse(entries []domain.HistoryEntry, total int64, limit, offset int) ListHistoryResponse {
	res := make([]HistoryEntryResponse, len(entries))
	for i := range entries {
		res[i] = ToHistoryEntryResponse(&entries[i])
	}
	return ListHistoryResponse{Entries: res, TotalCount: total, Limit: limit, Offset: offset}
}
