package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gamevault/walletd/internal/application/dtos"
	"github.com/gamevault/walletd/internal/domain/entities"
	"github.com/gamevault/walletd/internal/domain/errors"
	"github.com/gamevault/walletd/internal/domain/valueobjects"
)

// TestGetTransaction_ReturnsBothEntries: детальный ответ несёт транзакцию
// и обе стороны двойной записи.
func TestGetTransaction_ReturnsBothEntries(t *testing.T) {
	fromWallet := uuid.New()
	toWallet := uuid.New()
	tx := entities.ReconstructTransaction(
		uuid.New(), "key-detail", fromWallet, toWallet,
		valueobjects.MustAmount("100"),
		entities.TransactionTypeTopUp,
		entities.TransactionStatusSuccess,
		time.Now(),
	)
	entries := []*entities.LedgerEntry{
		entities.NewLedgerEntry(tx.ID(), toWallet, entities.EntryTypeCredit,
			valueobjects.MustAmount("100"), valueobjects.MustAmount("600")),
		entities.NewLedgerEntry(tx.ID(), fromWallet, entities.EntryTypeDebit,
			valueobjects.MustAmount("100"), valueobjects.MustAmount("999900")),
	}

	uc := NewGetTransactionUseCase(
		&mockTransactionRepo{
			findByIDFunc: func(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
				if id != tx.ID() {
					return nil, errors.ErrEntityNotFound
				}
				return tx, nil
			},
		},
		&mockLedgerRepo{
			findByTransactionIDFunc: func(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error) {
				return entries, nil
			},
		},
	)

	result, err := uc.Execute(context.Background(), dtos.GetTransactionQuery{
		TransactionID: tx.ID().String(),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Transaction.ID != tx.ID().String() {
		t.Errorf("transaction id = %s, want %s", result.Transaction.ID, tx.ID())
	}
	if result.Transaction.Amount != "100.0000" {
		t.Errorf("amount = %s, want 100.0000", result.Transaction.Amount)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(result.Entries))
	}
	if result.Entries[0].Type == result.Entries[1].Type {
		t.Error("entries must be one CREDIT and one DEBIT")
	}
}

// TestGetTransaction_NotFound.
func TestGetTransaction_NotFound(t *testing.T) {
	uc := NewGetTransactionUseCase(
		&mockTransactionRepo{
			findByIDFunc: func(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
				return nil, errors.ErrEntityNotFound
			},
		},
		&mockLedgerRepo{},
	)

	_, err := uc.Execute(context.Background(), dtos.GetTransactionQuery{
		TransactionID: uuid.New().String(),
	})
	if !errors.Is(err, errors.ErrEntityNotFound) {
		t.Fatalf("Execute() error = %v, want entity not found", err)
	}
}

// TestGetTransaction_InvalidID: битый UUID - валидационная ошибка.
func TestGetTransaction_InvalidID(t *testing.T) {
	uc := NewGetTransactionUseCase(&mockTransactionRepo{}, &mockLedgerRepo{})

	_, err := uc.Execute(context.Background(), dtos.GetTransactionQuery{
		TransactionID: "not-a-uuid",
	})
	if !errors.IsValidation(err) {
		t.Fatalf("Execute() error = %v, want validation error", err)
	}
}
