// Package events defines domain events that represent significant business occurrences.
// Events are immutable facts about what happened in the past.
//
// Pattern: Domain Events
// - Raised by the transfer engine inside the committing transaction
// - Appended to the transactional outbox for later delivery
package events

import (
	"time"

	"github.com/gamevault/walletd/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID // ID of the entity that raised this event
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
}

func newBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID      { return e.eventID }
func (e BaseEvent) EventType() string       { return e.eventType }
func (e BaseEvent) OccurredAt() time.Time   { return e.occurredAt }
func (e BaseEvent) AggregateID() uuid.UUID  { return e.aggregateID }

// Event Types (constants for type checking)
const (
	EventTypeTransferCommitted = "transfer.committed"
)

// TransferCommitted is raised when a transfer commits, carrying both sides
// of the double entry. AggregateID is the transaction id.
type TransferCommitted struct {
	BaseEvent
	IdempotencyKey  string
	TransactionType string
	AssetSymbol     string
	FromWalletID    uuid.UUID
	ToWalletID      uuid.UUID
	Amount          valueobjects.Amount
	FromBalance     valueobjects.Amount
	ToBalance       valueobjects.Amount
}

// NewTransferCommitted creates the commit event for a transfer.
func NewTransferCommitted(
	transactionID uuid.UUID,
	idempotencyKey, transactionType, assetSymbol string,
	fromWalletID, toWalletID uuid.UUID,
	amount, fromBalance, toBalance valueobjects.Amount,
) *TransferCommitted {
	return &TransferCommitted{
		BaseEvent:       newBaseEvent(EventTypeTransferCommitted, transactionID),
		IdempotencyKey:  idempotencyKey,
		TransactionType: transactionType,
		AssetSymbol:     assetSymbol,
		FromWalletID:    fromWalletID,
		ToWalletID:      toWalletID,
		Amount:          amount,
		FromBalance:     fromBalance,
		ToBalance:       toBalance,
	}
}
