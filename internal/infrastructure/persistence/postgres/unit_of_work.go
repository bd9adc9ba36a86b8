// Package postgres - UnitOfWork implementation для PostgreSQL.
//
// Unit of Work Pattern:
// - Управляет границами транзакций
// - Обеспечивает атомарность операций
// - Автоматический ROLLBACK при ошибках
// - Automatic COMMIT при успехе
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gamevault/walletd/internal/application/ports"
	domainerrors "github.com/gamevault/walletd/internal/domain/errors"
)

// Compile-time check
var _ ports.UnitOfWork = (*UnitOfWork)(nil)

const (
	// retryAttempts - число попыток транзакции при конкурентном конфликте.
	retryAttempts = 3

	// retryBaseBackoff - база экспоненциальной задержки между попытками:
	// attempt 1 -> 200ms, attempt 2 -> 400ms.
	retryBaseBackoff = 100 * time.Millisecond
)

// UnitOfWork реализует ports.UnitOfWork с PostgreSQL транзакциями.
//
// Thread-safe: использует connection pool.
// Transaction isolation: READ COMMITTED; корректность обеспечивается
// row-level блокировками в каноническом порядке, не уровнем изоляции.
type UnitOfWork struct {
	pool        *pgxpool.Pool
	opts        pgx.TxOptions
	lockTimeout time.Duration
}

// NewUnitOfWork создаёт новый UnitOfWork.
// lockTimeout ограничивает ожидание row-level блокировок внутри каждой
// транзакции (SET LOCAL lock_timeout).
func NewUnitOfWork(pool *pgxpool.Pool, lockTimeout time.Duration) *UnitOfWork {
	return &UnitOfWork{
		pool:        pool,
		opts:        pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
		lockTimeout: lockTimeout,
	}
}

// Execute выполняет функцию внутри транзакции.
//
// Поведение:
// - Начинает транзакцию
// - Внедряет транзакцию в context
// - Выполняет fn с новым context
// - Если fn возвращает nil: COMMIT
// - Если fn возвращает error: ROLLBACK
// - Если panic: ROLLBACK + re-panic
//
// ВАЖНО: Все repositories внутри fn должны использовать переданный txCtx!
func (u *UnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) error {
	// Уже внутри транзакции - просто выполняем функцию
	// (PostgreSQL не поддерживает true nested transactions, только savepoints)
	if hasTx(ctx) {
		return fn(ctx)
	}

	tx, err := u.pool.BeginTx(ctx, u.opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	// SET LOCAL действует до конца транзакции. Ограничивает ожидание
	// блокировок, чтобы конкурирующие переводы падали с 55P03 и
	// уходили в retry вместо зависания.
	if u.lockTimeout > 0 {
		timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, timeout); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to set lock_timeout: %w", err)
		}
	}

	txCtx := injectTx(ctx, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ExecuteWithRetry выполняет транзакцию с автоматическим retry при
// конкурентных конфликтах (deadlock, lock timeout).
//
// Каждая неудачная попытка полностью откатывается и fn выполняется
// заново с нуля, поэтому fn обязана быть повторяемой. Задержка между
// попытками растёт экспоненциально. После исчерпания попыток
// возвращается ContentionError (HTTP слой маппит её в 429).
func (u *UnitOfWork) ExecuteWithRetry(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= retryAttempts; attempt++ {
		err := u.Execute(ctx, fn)
		if err == nil {
			return nil
		}

		if !isContentionError(err) {
			return err
		}
		lastErr = err

		if attempt == retryAttempts {
			break
		}

		backoff := retryBaseBackoff * (1 << attempt)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return domainerrors.NewContentionError(retryAttempts, lastErr)
}
