// Package postgres - LedgerRepository implementation.
//
// Журнал проводок append-only: строки не обновляются и не удаляются.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/entities"
	"github.com/gamevault/walletd/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.LedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository реализует ports.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository создаёт новый LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *LedgerRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const ledgerColumns = `id, transaction_id, wallet_id, entry_type, amount::text, balance_after::text, created_at`

// SavePair атомарно сохраняет обе стороны двойной записи одним INSERT.
func (r *LedgerRepository) SavePair(ctx context.Context, debit, credit *entities.LedgerEntry) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO ledger_entries (id, transaction_id, wallet_id, entry_type, amount, balance_after, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7),
			($8, $9, $10, $11, $12, $13, $14)
	`

	_, err := q.Exec(ctx, query,
		debit.ID(), debit.TransactionID(), debit.WalletID(), string(debit.Type()),
		debit.Amount().String(), debit.BalanceAfter().String(), debit.CreatedAt(),
		credit.ID(), credit.TransactionID(), credit.WalletID(), string(credit.Type()),
		credit.Amount().String(), credit.BalanceAfter().String(), credit.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save ledger pair: %w", err)
	}

	return nil
}

// FindByTransactionID возвращает обе проводки транзакции.
// CREDIT первым (сортировка по типу) для детерминированного вывода.
func (r *LedgerRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY entry_type ASC
	`

	rows, err := q.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find ledger entries: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows.Next, rows.Scan, rows.Err)
}

// ListByWallet возвращает проводки кошелька с пагинацией (новые первыми)
// и полное число строк.
func (r *LedgerRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]*entities.LedgerEntry, int, error) {
	q := r.getQuerier(ctx)

	var total int
	countQuery := `SELECT COUNT(*) FROM ledger_entries WHERE wallet_id = $1`
	if err := q.QueryRow(ctx, countQuery, walletID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	listQuery := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := q.Query(ctx, listQuery, walletID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanLedgerEntries(rows.Next, rows.Scan, rows.Err)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func scanLedgerEntries(next func() bool, scan func(dest ...any) error, rowsErr func() error) ([]*entities.LedgerEntry, error) {
	var entries []*entities.LedgerEntry

	for next() {
		var (
			id, transactionID, walletID  uuid.UUID
			entryType                    string
			amountStr, balanceAfterStr   string
			createdAt                    time.Time
		)

		if err := scan(&id, &transactionID, &walletID, &entryType, &amountStr, &balanceAfterStr, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		amount, err := parseStoredAmount(amountStr)
		if err != nil {
			return nil, err
		}
		balanceAfter, err := parseStoredAmount(balanceAfterStr)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entities.ReconstructLedgerEntry(
			id, transactionID, walletID,
			entities.EntryType(entryType),
			amount, balanceAfter, createdAt,
		))
	}

	if err := rowsErr(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}

	return entries, nil
}

func parseStoredAmount(s string) (valueobjects.Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return valueobjects.Amount{}, fmt.Errorf("invalid amount in database: %w", err)
	}
	amount, err := valueobjects.NewAmountFromDecimal(d)
	if err != nil {
		return valueobjects.Amount{}, fmt.Errorf("invalid amount in database: %w", err)
	}
	return amount, nil
}
