// Package query - GetTransaction: транзакция вместе с обеими проводками.
package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/gamevault/walletd/internal/application/dtos"
	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/errors"
)

// GetTransactionUseCase - запрос транзакции по ID с её двойной записью.
type GetTransactionUseCase struct {
	txRepo     ports.TransactionRepository
	ledgerRepo ports.LedgerRepository
}

// NewGetTransactionUseCase создаёт новый use case.
func NewGetTransactionUseCase(txRepo ports.TransactionRepository, ledgerRepo ports.LedgerRepository) *GetTransactionUseCase {
	return &GetTransactionUseCase{txRepo: txRepo, ledgerRepo: ledgerRepo}
}

// Execute возвращает транзакцию и обе её проводки.
func (uc *GetTransactionUseCase) Execute(ctx context.Context, q dtos.GetTransactionQuery) (*dtos.TransactionDetailDTO, error) {
	txID, err := uuid.Parse(q.TransactionID)
	if err != nil {
		return nil, errors.ValidationError{Field: "txId", Message: "invalid transaction ID format"}
	}

	tx, err := uc.txRepo.FindByID(ctx, txID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.ledgerRepo.FindByTransactionID(ctx, txID)
	if err != nil {
		return nil, err
	}

	return &dtos.TransactionDetailDTO{
		Transaction: dtos.ToTransactionDTO(tx),
		Entries:     dtos.ToLedgerEntryDTOList(entries),
	}, nil
}
