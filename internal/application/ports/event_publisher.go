// Package ports - EventPublisher и Transactional Outbox для domain events.
//
// Pattern: Transactional Outbox
// - Событие сохраняется в outbox в той же БД-транзакции, что и перевод
// - Отдельный poller публикует события и помечает их доставленными
// - Гарантия: событие существует тогда и только тогда, когда перевод закоммичен
package ports

import (
	"context"
	"time"

	"github.com/gamevault/walletd/internal/domain/events"
)

// EventPublisher определяет контракт для публикации domain events
// потребителям. Доставка at-least-once; потребители обязаны быть
// идемпотентными.
type EventPublisher interface {
	// Publish публикует одно событие.
	Publish(ctx context.Context, event events.DomainEvent) error
}

// OutboxRepository - интерфейс для Transactional Outbox Pattern.
type OutboxRepository interface {
	// Save сохраняет событие в outbox таблицу.
	// Должно выполняться в той же транзакции, что и бизнес-операция!
	Save(ctx context.Context, event events.DomainEvent) error

	// FindUnpublished возвращает события, которые ещё не опубликованы.
	// Используется poller'ом для публикации.
	FindUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error)

	// MarkPublished помечает событие как опубликованное.
	MarkPublished(ctx context.Context, eventID string) error

	// CleanupPublished удаляет опубликованные события старше olderThan.
	CleanupPublished(ctx context.Context, olderThan time.Duration) (int64, error)
}

// OutboxEntry - сериализованное событие из outbox таблицы.
type OutboxEntry struct {
	EventID     string
	EventType   string
	AggregateID string
	Payload     []byte
}
