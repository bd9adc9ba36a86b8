// Package redis - IdempotencyStore implementation на Redis.
//
// Схема ключа: idempotency:<key>
// - PROCESSING маркер с коротким TTL резервирует ключ на время запроса
// - Финальный результат (JSON) заменяет маркер с длинным TTL
//
// Кеш best-effort: при недоступности Redis запрос продолжает выполнение,
// полагаясь на UNIQUE(idempotency_key) в Postgres.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gamevault/walletd/internal/application/ports"
)

// Compile-time check
var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

const (
	keyPrefix = "idempotency:"

	// processingMarker - значение-маркер выполняющегося запроса.
	// Не является валидным JSON-результатом намеренно.
	processingMarker = "PROCESSING"
)

// IdempotencyStore реализует ports.IdempotencyStore поверх Redis.
type IdempotencyStore struct {
	client        *goredis.Client
	logger        *slog.Logger
	processingTTL time.Duration // TTL маркера PROCESSING (10s)
}

// NewIdempotencyStore создаёт новый IdempotencyStore.
func NewIdempotencyStore(client *goredis.Client, logger *slog.Logger, processingTTL time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		client:        client,
		logger:        logger,
		processingTTL: processingTTL,
	}
}

// ReserveOrFetch атомарно резервирует ключ маркером PROCESSING.
//
// SET NX за один round-trip решает гонку: ровно один из конкурирующих
// запросов с общим ключом получает резервацию, остальные видят маркер
// (InFlight) или финальный результат (Finished).
func (s *IdempotencyStore) ReserveOrFetch(ctx context.Context, key string) (ports.Reservation, error) {
	if s.client == nil {
		return ports.Reservation{State: ports.ReservationUnavailable}, nil
	}

	redisKey := keyPrefix + key

	ok, err := s.client.SetNX(ctx, redisKey, processingMarker, s.processingTTL).Result()
	if err != nil {
		s.logger.WarnContext(ctx, "idempotency cache unavailable, falling back to database",
			slog.String("error", err.Error()))
		return ports.Reservation{State: ports.ReservationUnavailable}, nil
	}

	if ok {
		return ports.Reservation{State: ports.ReservationAcquired}, nil
	}

	// Ключ занят: либо выполняющимся запросом, либо финальным результатом.
	value, err := s.client.Get(ctx, redisKey).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			// Маркер истёк между SETNX и GET. Редкая гонка: считаем
			// кеш недоступным и идём в БД.
			return ports.Reservation{State: ports.ReservationUnavailable}, nil
		}
		s.logger.WarnContext(ctx, "idempotency cache read failed, falling back to database",
			slog.String("error", err.Error()))
		return ports.Reservation{State: ports.ReservationUnavailable}, nil
	}

	if value == processingMarker {
		return ports.Reservation{State: ports.ReservationInFlight}, nil
	}

	var outcome ports.CachedOutcome
	if err := json.Unmarshal([]byte(value), &outcome); err != nil {
		s.logger.WarnContext(ctx, "corrupt idempotency cache entry, falling back to database",
			slog.String("key", key))
		return ports.Reservation{State: ports.ReservationUnavailable}, nil
	}

	return ports.Reservation{State: ports.ReservationFinished, Outcome: &outcome}, nil
}

// Finalize заменяет маркер финальным результатом с длинным TTL.
func (s *IdempotencyStore) Finalize(ctx context.Context, key string, outcome ports.CachedOutcome, ttl time.Duration) error {
	if s.client == nil {
		return nil
	}

	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to serialize outcome: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+key, payload, ttl).Err(); err != nil {
		// Результат уже в БД; следующий повтор обслужится оттуда.
		s.logger.WarnContext(ctx, "failed to finalize idempotency entry",
			slog.String("key", key), slog.String("error", err.Error()))
		return nil
	}

	return nil
}

// Release снимает маркер PROCESSING без записи результата.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if s.client == nil {
		return nil
	}

	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		s.logger.WarnContext(ctx, "failed to release idempotency entry",
			slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}
