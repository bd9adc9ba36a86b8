// Package dtos - Query DTOs для read-проекций.
package dtos

import "time"

// ============================================
// Queries (Read операции)
// ============================================

// GetBalanceQuery - запрос баланса пользователя по активу.
type GetBalanceQuery struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Asset  string `json:"asset" validate:"required,min=1,max=16"`
}

// GetLedgerQuery - запрос журнала проводок пользователя по активу.
type GetLedgerQuery struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Asset  string `json:"asset" validate:"required,min=1,max=16"`
	Offset int    `json:"offset" validate:"min=0"`
	Limit  int    `json:"limit" validate:"min=1,max=100"`
}

// GetHistoryQuery - запрос истории транзакций пользователя с фильтрами.
// Фильтры опциональны и комбинируются через AND.
type GetHistoryQuery struct {
	UserID   string     `json:"userId" validate:"required,uuid"`
	Asset    *string    `json:"asset,omitempty" validate:"omitempty,min=1,max=16"`
	Type     *string    `json:"type,omitempty" validate:"omitempty,oneof=TOP_UP BONUS SPEND"`
	DateFrom *time.Time `json:"dateFrom,omitempty"`
	DateTo   *time.Time `json:"dateTo,omitempty"`
	Offset   int        `json:"offset" validate:"min=0"`
	Limit    int        `json:"limit" validate:"min=1,max=100"`
}

// GetTransactionQuery - запрос транзакции по ID вместе с проводками.
type GetTransactionQuery struct {
	TransactionID string `json:"txId" validate:"required,uuid"`
}

// ============================================
// Response DTOs
// ============================================

// BalanceDTO - баланс кошелька для API.
type BalanceDTO struct {
	UserID  string `json:"userId"`
	Asset   string `json:"asset"`
	Balance string `json:"balance"`
}

// LedgerEntryDTO - одна проводка журнала для API.
type LedgerEntryDTO struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"txId"`
	WalletID      string    `json:"walletId"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	BalanceAfter  string    `json:"balanceAfter"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TransactionDTO - представление транзакции для API.
type TransactionDTO struct {
	ID             string    `json:"txId"`
	IdempotencyKey string    `json:"idempotencyKey"`
	FromWalletID   string    `json:"fromWalletId"`
	ToWalletID     string    `json:"toWalletId"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	Amount         string    `json:"amount"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TransactionDetailDTO - транзакция вместе с обеими проводками.
type TransactionDetailDTO struct {
	Transaction TransactionDTO   `json:"transaction"`
	Entries     []LedgerEntryDTO `json:"entries"`
}

// PageDTO - метаданные пагинации.
// HasMore вычисляется как offset + len(items) < total.
type PageDTO struct {
	Total   int  `json:"total"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

// LedgerPageDTO - страница журнала проводок.
type LedgerPageDTO struct {
	Entries []LedgerEntryDTO `json:"entries"`
	Page    PageDTO          `json:"page"`
}

// HistoryPageDTO - страница истории транзакций.
type HistoryPageDTO struct {
	Transactions []TransactionDTO `json:"transactions"`
	Page         PageDTO          `json:"page"`
}
