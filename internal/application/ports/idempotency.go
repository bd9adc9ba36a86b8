// Package ports - IdempotencyStore: быстрый кеш результатов по ключу
// идемпотентности перед БД.
//
// Кеш best-effort: UNIQUE(idempotency_key) в Postgres остаётся
// финальным арбитром. Недоступность кеша не должна ронять запрос.
package ports

import (
	"context"
	"time"
)

// ReservationState описывает исход попытки резервирования ключа.
type ReservationState int

const (
	// ReservationAcquired - ключ свободен, запрос резервирует его и
	// продолжает выполнение.
	ReservationAcquired ReservationState = iota

	// ReservationInFlight - другой запрос с этим же ключом выполняется
	// прямо сейчас. Вызывающий должен вернуть 429.
	ReservationInFlight

	// ReservationFinished - по ключу уже есть финальный результат.
	// Вызывающий возвращает его как есть, без выполнения перевода.
	ReservationFinished

	// ReservationUnavailable - кеш недоступен. Запрос продолжает
	// выполнение, полагаясь только на БД.
	ReservationUnavailable
)

// CachedOutcome - финальный результат перевода, сохранённый в кеше.
// Сохраняются и успехи, и терминальные бизнес-отказы; транзиентные
// ошибки (contention, 5xx) никогда не кешируются.
type CachedOutcome struct {
	Status        string `json:"status"` // SUCCESS | FAILED
	TransactionID string `json:"txId,omitempty"`
	Balance       string `json:"balance,omitempty"`
	ErrorCode     string `json:"error,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Reservation - результат ReserveOrFetch.
type Reservation struct {
	State   ReservationState
	Outcome *CachedOutcome // заполнен только при ReservationFinished
}

// IdempotencyStore определяет контракт кеша идемпотентности.
type IdempotencyStore interface {
	// ReserveOrFetch атомарно резервирует ключ маркером PROCESSING
	// с коротким TTL. Если ключ занят маркером - InFlight, если
	// финальным результатом - Finished с этим результатом.
	ReserveOrFetch(ctx context.Context, key string) (Reservation, error)

	// Finalize заменяет маркер финальным результатом с длинным TTL.
	Finalize(ctx context.Context, key string, outcome CachedOutcome, ttl time.Duration) error

	// Release снимает маркер PROCESSING без записи результата.
	// Вызывается при транзиентных ошибках, чтобы повтор клиента не
	// ждал истечения TTL.
	Release(ctx context.Context, key string) error
}
