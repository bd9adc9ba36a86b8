// Package entities - Wallet is the per-(user, asset) balance row.
// The balance column is a cached projection of the ledger: after every
// committed transaction it must equal the balance_after of the wallet's
// most recent ledger entry.
package entities

import (
	"time"

	"github.com/gamevault/walletd/internal/domain/errors"
	"github.com/gamevault/walletd/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// Wallet holds a user's balance for one asset. Exactly one wallet exists
// per (user, asset) pair; the storage layer enforces balance >= 0.
//
// Wallets are created by bootstrap/seed, never auto-created by transfers.
type Wallet struct {
	id        uuid.UUID
	userID    uuid.UUID
	assetID   uuid.UUID
	balance   valueobjects.Amount
	createdAt time.Time
	updatedAt time.Time
}

// NewWallet creates a wallet with an opening balance.
func NewWallet(userID, assetID uuid.UUID, opening valueobjects.Amount) *Wallet {
	now := time.Now()
	return &Wallet{
		id:        uuid.New(),
		userID:    userID,
		assetID:   assetID,
		balance:   opening,
		createdAt: now,
		updatedAt: now,
	}
}

// ReconstructWallet reconstructs a Wallet from stored data.
func ReconstructWallet(id, userID, assetID uuid.UUID, balance valueobjects.Amount, createdAt, updatedAt time.Time) *Wallet {
	return &Wallet{
		id:        id,
		userID:    userID,
		assetID:   assetID,
		balance:   balance,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (w *Wallet) ID() uuid.UUID                { return w.id }
func (w *Wallet) UserID() uuid.UUID            { return w.userID }
func (w *Wallet) AssetID() uuid.UUID           { return w.assetID }
func (w *Wallet) Balance() valueobjects.Amount { return w.balance }
func (w *Wallet) CreatedAt() time.Time         { return w.createdAt }
func (w *Wallet) UpdatedAt() time.Time         { return w.updatedAt }

// CheckIntegrity fails with a CorruptionError if the cached balance is
// negative. A negative balance can only mean the storage invariant was
// bypassed; the request must not proceed.
func (w *Wallet) CheckIntegrity() error {
	if w.balance.Decimal().IsNegative() {
		return errors.NewCorruptionError("Wallet", w.id.String(),
			"negative balance "+w.balance.String())
	}
	return nil
}

// Debit subtracts amount from the balance.
// Business rule: the wallet must hold at least amount.
func (w *Wallet) Debit(amount valueobjects.Amount) error {
	if err := w.CheckIntegrity(); err != nil {
		return err
	}
	if w.balance.LessThan(amount) {
		return errors.ErrInsufficientFunds
	}

	newBalance, err := w.balance.Sub(amount)
	if err != nil {
		return err
	}

	w.balance = newBalance
	w.updatedAt = time.Now()
	return nil
}

// Credit adds amount to the balance.
func (w *Wallet) Credit(amount valueobjects.Amount) error {
	newBalance, err := w.balance.Add(amount)
	if err != nil {
		return err
	}

	w.balance = newBalance
	w.updatedAt = time.Now()
	return nil
}
