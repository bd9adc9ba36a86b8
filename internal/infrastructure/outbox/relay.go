// Package outbox - poller для Transactional Outbox Pattern.
//
// Relay периодически вычитывает неопубликованные события из outbox
// и доставляет их потребителю. Брокера в системе нет: события
// эмитятся в структурированный лог, откуда их забирает пайплайн
// доставки (log shipper). Контракт от этого не меняется - при
// появлении брокера достаточно заменить Sink.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/gamevault/walletd/internal/application/ports"
)

// Sink - потребитель событий outbox.
type Sink interface {
	Deliver(ctx context.Context, entry ports.OutboxEntry) error
}

// LogSink пишет события в структурированный лог.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink создаёт LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Deliver эмитит событие в лог.
func (s *LogSink) Deliver(ctx context.Context, entry ports.OutboxEntry) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "Domain event",
		slog.String("event_id", entry.EventID),
		slog.String("event_type", entry.EventType),
		slog.String("aggregate_id", entry.AggregateID),
		slog.String("payload", string(entry.Payload)),
	)
	return nil
}

// Relay - воркер публикации событий.
type Relay struct {
	repo      ports.OutboxRepository
	uow       ports.UnitOfWork
	sink      Sink
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	retention time.Duration // сколько хранить опубликованные события
}

// Config - настройки Relay.
type Config struct {
	Interval  time.Duration
	BatchSize int
	Retention time.Duration
}

// DefaultConfig - настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		Interval:  2 * time.Second,
		BatchSize: 100,
		Retention: 7 * 24 * time.Hour,
	}
}

// NewRelay создаёт новый Relay.
func NewRelay(repo ports.OutboxRepository, uow ports.UnitOfWork, sink Sink, logger *slog.Logger, cfg Config) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	return &Relay{
		repo:      repo,
		uow:       uow,
		sink:      sink,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		retention: cfg.Retention,
	}
}

// Run запускает цикл публикации до отмены контекста.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	r.logger.Info("Outbox relay started",
		slog.Duration("interval", r.interval),
		slog.Int("batch_size", r.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.drainOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("Outbox drain failed", slog.String("error", err.Error()))
			}
		case <-cleanup.C:
			if r.retention <= 0 {
				continue
			}
			deleted, err := r.repo.CleanupPublished(ctx, r.retention)
			if err != nil && ctx.Err() == nil {
				r.logger.Error("Outbox cleanup failed", slog.String("error", err.Error()))
				continue
			}
			if deleted > 0 {
				r.logger.Info("Outbox cleanup", slog.Int64("deleted", deleted))
			}
		}
	}
}

// drainOnce публикует одну пачку событий.
//
// Вся пачка обрабатывается в одной транзакции: SKIP LOCKED в
// FindUnpublished держит блокировку до коммита, поэтому несколько
// инстансов relay не доставят одно событие дважды.
func (r *Relay) drainOnce(ctx context.Context) error {
	return r.uow.Execute(ctx, func(txCtx context.Context) error {
		entries, err := r.repo.FindUnpublished(txCtx, r.batchSize)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			if err := r.sink.Deliver(txCtx, entry); err != nil {
				// Недоставленное событие остаётся PENDING и будет
				// повторено на следующем тике
				return err
			}
			if err := r.repo.MarkPublished(txCtx, entry.EventID); err != nil {
				return err
			}
		}

		return nil
	})
}
