// Package entities - Transaction records one committed transfer between two
// wallets. Together with its two ledger entries it forms the double-entry
// audit trail: transactions and entries are append-only and immutable once
// committed.
package entities

import (
	"time"

	"github.com/gamevault/walletd/internal/domain/errors"
	"github.com/gamevault/walletd/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// TransactionType represents the caller-facing operation.
type TransactionType string

const (
	TransactionTypeTopUp TransactionType = "TOP_UP" // Treasury -> user
	TransactionTypeBonus TransactionType = "BONUS"  // Treasury -> user
	TransactionTypeSpend TransactionType = "SPEND"  // user -> Treasury
)

// IsValid checks if the transaction type is valid.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeTopUp, TransactionTypeBonus, TransactionTypeSpend:
		return true
	default:
		return false
	}
}

// IsCredit reports whether this type credits the caller's wallet. The
// caller-facing balance in a transfer response belongs to the credited
// wallet for TOP_UP/BONUS and the debited wallet for SPEND.
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeTopUp || t == TransactionTypeBonus
}

// TransactionStatus is the persisted state of a transaction. Rows are only
// written at commit time, so SUCCESS is the only status the engine stores;
// the enum exists because the idempotency cache also carries FAILED.
type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// Transaction is the committed record of one transfer.
//
// Invariants:
// - amount > 0
// - from_wallet != to_wallet
// - idempotency_key globally unique (UNIQUE constraint is authoritative)
type Transaction struct {
	id              uuid.UUID
	idempotencyKey  string
	fromWalletID    uuid.UUID
	toWalletID      uuid.UUID
	amount          valueobjects.Amount
	transactionType TransactionType
	status          TransactionStatus
	createdAt       time.Time
}

// NewTransaction creates a transaction record for a transfer about to commit.
func NewTransaction(
	idempotencyKey string,
	fromWalletID, toWalletID uuid.UUID,
	amount valueobjects.Amount,
	transactionType TransactionType,
) (*Transaction, error) {
	if idempotencyKey == "" {
		return nil, errors.ValidationError{Field: "idempotencyKey", Message: "idempotency key is required"}
	}
	if !transactionType.IsValid() {
		return nil, errors.ErrInvalidTransactionType
	}
	if !amount.IsPositive() {
		return nil, errors.ValidationError{Field: "amount", Message: "amount must be strictly positive"}
	}
	if fromWalletID == toWalletID {
		return nil, errors.ErrSelfTransfer
	}

	return &Transaction{
		id:              uuid.New(),
		idempotencyKey:  idempotencyKey,
		fromWalletID:    fromWalletID,
		toWalletID:      toWalletID,
		amount:          amount,
		transactionType: transactionType,
		status:          TransactionStatusSuccess,
		createdAt:       time.Now(),
	}, nil
}

// ReconstructTransaction reconstructs a Transaction from stored data.
func ReconstructTransaction(
	id uuid.UUID,
	idempotencyKey string,
	fromWalletID, toWalletID uuid.UUID,
	amount valueobjects.Amount,
	transactionType TransactionType,
	status TransactionStatus,
	createdAt time.Time,
) *Transaction {
	return &Transaction{
		id:              id,
		idempotencyKey:  idempotencyKey,
		fromWalletID:    fromWalletID,
		toWalletID:      toWalletID,
		amount:          amount,
		transactionType: transactionType,
		status:          status,
		createdAt:       createdAt,
	}
}

func (t *Transaction) ID() uuid.UUID               { return t.id }
func (t *Transaction) IdempotencyKey() string      { return t.idempotencyKey }
func (t *Transaction) FromWalletID() uuid.UUID     { return t.fromWalletID }
func (t *Transaction) ToWalletID() uuid.UUID       { return t.toWalletID }
func (t *Transaction) Amount() valueobjects.Amount { return t.amount }
func (t *Transaction) Type() TransactionType       { return t.transactionType }
func (t *Transaction) Status() TransactionStatus   { return t.status }
func (t *Transaction) CreatedAt() time.Time        { return t.createdAt }

// CallerWalletID returns the wallet whose balance the caller sees in the
// transfer response: credited wallet for TOP_UP/BONUS, debited for SPEND.
func (t *Transaction) CallerWalletID() uuid.UUID {
	if t.transactionType.IsCredit() {
		return t.toWalletID
	}
	return t.fromWalletID
}
