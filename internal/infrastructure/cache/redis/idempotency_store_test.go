package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gamevault/walletd/internal/application/ports"
)

// Без клиента (Redis не поднялся при старте) кеш деградирует в no-op:
// каждый запрос идёт в БД, Finalize и Release молча проходят.
func TestIdempotencyStore_NilClientDegrades(t *testing.T) {
	store := NewIdempotencyStore(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), 10*time.Second)
	ctx := context.Background()

	reservation, err := store.ReserveOrFetch(ctx, "key-1")
	if err != nil {
		t.Fatalf("ReserveOrFetch() error = %v", err)
	}
	if reservation.State != ports.ReservationUnavailable {
		t.Errorf("State = %v, want ReservationUnavailable", reservation.State)
	}

	if err := store.Finalize(ctx, "key-1", ports.CachedOutcome{Status: "SUCCESS"}, time.Hour); err != nil {
		t.Errorf("Finalize() error = %v", err)
	}
	if err := store.Release(ctx, "key-1"); err != nil {
		t.Errorf("Release() error = %v", err)
	}
}
