// Package postgres - TransactionRepository implementation.
//
// Таблица transactions append-only: строки пишутся только при коммите
// перевода и никогда не обновляются.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/entities"
	domainErrors "github.com/gamevault/walletd/internal/domain/errors"
	"github.com/gamevault/walletd/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository реализует ports.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository создаёт новый TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *TransactionRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const transactionColumns = `id, idempotency_key, from_wallet_id, to_wallet_id, amount::text, type, status, created_at`

// Save сохраняет транзакцию.
// UNIQUE(idempotency_key) - финальный арбитр от дубликатов: проигравший
// конкурентной гонки получает ErrDuplicateTransaction.
func (r *TransactionRepository) Save(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO transactions (id, idempotency_key, from_wallet_id, to_wallet_id, amount, type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		tx.ID(),
		tx.IdempotencyKey(),
		tx.FromWalletID(),
		tx.ToWalletID(),
		tx.Amount().String(),
		string(tx.Type()),
		string(tx.Status()),
		tx.CreatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "transactions_idempotency_key_key") {
			return domainErrors.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	return nil
}

// FindByID загружает транзакцию по ID.
func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	return r.scanTransaction(q.QueryRow(ctx, query, id))
}

// FindByIdempotencyKey находит транзакцию по ключу идемпотентности.
func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE idempotency_key = $1`

	return r.scanTransaction(q.QueryRow(ctx, query, key))
}

// ListByWallets возвращает транзакции, где любой из кошельков является
// стороной, с фильтрами, пагинацией (новые первыми) и полным числом строк.
//
// Все фильтры уходят в SQL: сервис никогда не фильтрует страницы в памяти,
// иначе total и hasMore врали бы.
func (r *TransactionRepository) ListByWallets(
	ctx context.Context,
	walletIDs []uuid.UUID,
	filter ports.TransactionFilter,
	offset, limit int,
) ([]*entities.Transaction, int, error) {
	q := r.getQuerier(ctx)

	where := ` WHERE (from_wallet_id = ANY($1) OR to_wallet_id = ANY($1))`
	args := []any{walletIDs}
	argNum := 2

	if filter.Type != nil {
		where += fmt.Sprintf(" AND type = $%d", argNum)
		args = append(args, string(*filter.Type))
		argNum++
	}
	if filter.DateFrom != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", argNum)
		args = append(args, *filter.DateFrom)
		argNum++
	}
	if filter.DateTo != nil {
		where += fmt.Sprintf(" AND created_at <= $%d", argNum)
		args = append(args, *filter.DateTo)
		argNum++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM transactions` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	listQuery := `SELECT ` + transactionColumns + ` FROM transactions` + where +
		fmt.Sprintf(" ORDER BY created_at DESC OFFSET $%d LIMIT $%d", argNum, argNum+1)
	args = append(args, offset, limit)

	rows, err := q.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*entities.Transaction
	for rows.Next() {
		tx, err := scanTransactionColumns(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, total, nil
}

// scanTransaction сканирует одну строку в Transaction entity.
func (r *TransactionRepository) scanTransaction(row pgx.Row) (*entities.Transaction, error) {
	tx, err := scanTransactionColumns(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, err
	}
	return tx, nil
}

func scanTransactionColumns(scan func(dest ...any) error) (*entities.Transaction, error) {
	var (
		id                         uuid.UUID
		idempotencyKey             string
		fromWalletID, toWalletID   uuid.UUID
		amountStr, typeStr, status string
		createdAt                  time.Time
	)

	if err := scan(&id, &idempotencyKey, &fromWalletID, &toWalletID, &amountStr, &typeStr, &status, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	amountDec, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in database: %w", err)
	}
	amount, err := valueobjects.NewAmountFromDecimal(amountDec)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in database: %w", err)
	}

	return entities.ReconstructTransaction(
		id,
		idempotencyKey,
		fromWalletID,
		toWalletID,
		amount,
		entities.TransactionType(typeStr),
		entities.TransactionStatus(status),
		createdAt,
	), nil
}
