package entities

import (
	"time"

	"github.com/gamevault/walletd/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// EntryType marks the side of a double-entry pair.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// IsValid checks if the entry type is valid.
func (e EntryType) IsValid() bool {
	return e == EntryTypeDebit || e == EntryTypeCredit
}

// LedgerEntry is one immutable line of the double-entry ledger. Every
// committed transaction produces exactly two entries with the same amount:
// a DEBIT on the source wallet and a CREDIT on the destination wallet,
// each carrying the wallet's balance after the transfer.
type LedgerEntry struct {
	id            uuid.UUID
	transactionID uuid.UUID
	walletID      uuid.UUID
	entryType     EntryType
	amount        valueobjects.Amount
	balanceAfter  valueobjects.Amount
	createdAt     time.Time
}

// NewLedgerEntry creates one side of a double-entry pair.
func NewLedgerEntry(
	transactionID, walletID uuid.UUID,
	entryType EntryType,
	amount, balanceAfter valueobjects.Amount,
) *LedgerEntry {
	return &LedgerEntry{
		id:            uuid.New(),
		transactionID: transactionID,
		walletID:      walletID,
		entryType:     entryType,
		amount:        amount,
		balanceAfter:  balanceAfter,
		createdAt:     time.Now(),
	}
}

// ReconstructLedgerEntry reconstructs a LedgerEntry from stored data.
func ReconstructLedgerEntry(
	id, transactionID, walletID uuid.UUID,
	entryType EntryType,
	amount, balanceAfter valueobjects.Amount,
	createdAt time.Time,
) *LedgerEntry {
	return &LedgerEntry{
		id:            id,
		transactionID: transactionID,
		walletID:      walletID,
		entryType:     entryType,
		amount:        amount,
		balanceAfter:  balanceAfter,
		createdAt:     createdAt,
	}
}

func (e *LedgerEntry) ID() uuid.UUID                     { return e.id }
func (e *LedgerEntry) TransactionID() uuid.UUID          { return e.transactionID }
func (e *LedgerEntry) WalletID() uuid.UUID               { return e.walletID }
func (e *LedgerEntry) Type() EntryType                   { return e.entryType }
func (e *LedgerEntry) Amount() valueobjects.Amount       { return e.amount }
func (e *LedgerEntry) BalanceAfter() valueobjects.Amount { return e.balanceAfter }
func (e *LedgerEntry) CreatedAt() time.Time              { return e.createdAt }
