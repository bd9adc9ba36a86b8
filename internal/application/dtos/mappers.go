// Package dtos - Mappers для конвертации domain entities в DTOs.
//
// Pattern: Mapper/Converter
// Отделяет domain representation от API representation
package dtos

import (
	"github.com/gamevault/walletd/internal/domain/entities"
)

// ============================================
// Ledger Mappers
// ============================================

// ToLedgerEntryDTO конвертирует domain entity LedgerEntry в DTO.
func ToLedgerEntryDTO(entry *entities.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:            entry.ID().String(),
		TransactionID: entry.TransactionID().String(),
		WalletID:      entry.WalletID().String(),
		Type:          string(entry.Type()),
		Amount:        entry.Amount().String(),
		BalanceAfter:  entry.BalanceAfter().String(),
		CreatedAt:     entry.CreatedAt(),
	}
}

// ToLedgerEntryDTOList конвертирует список проводок.
func ToLedgerEntryDTOList(entries []*entities.LedgerEntry) []LedgerEntryDTO {
	result := make([]LedgerEntryDTO, len(entries))
	for i, entry := range entries {
		result[i] = ToLedgerEntryDTO(entry)
	}
	return result
}

// ============================================
// Transaction Mappers
// ============================================

// ToTransactionDTO конвертирует domain entity Transaction в DTO.
func ToTransactionDTO(tx *entities.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:             tx.ID().String(),
		IdempotencyKey: tx.IdempotencyKey(),
		FromWalletID:   tx.FromWalletID().String(),
		ToWalletID:     tx.ToWalletID().String(),
		Type:           string(tx.Type()),
		Status:         string(tx.Status()),
		Amount:         tx.Amount().String(),
		CreatedAt:      tx.CreatedAt(),
	}
}

// ToTransactionDTOList конвертирует список transactions.
func ToTransactionDTOList(transactions []*entities.Transaction) []TransactionDTO {
	result := make([]TransactionDTO, len(transactions))
	for i, tx := range transactions {
		result[i] = ToTransactionDTO(tx)
	}
	return result
}

// ============================================
// Pagination
// ============================================

// NewPageDTO собирает метаданные страницы.
func NewPageDTO(total, offset, limit, returned int) PageDTO {
	return PageDTO{
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		HasMore: offset+returned < total,
	}
}
