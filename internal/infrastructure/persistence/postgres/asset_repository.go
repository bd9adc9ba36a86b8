// Package postgres - AssetRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/entities"
	domainErrors "github.com/gamevault/walletd/internal/domain/errors"
)

// Compile-time check
var _ ports.AssetRepository = (*AssetRepository)(nil)

// AssetRepository реализует ports.AssetRepository.
// Символы хранятся в нормализованном (upper-case) виде.
type AssetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository создаёт новый AssetRepository.
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

func (r *AssetRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save сохраняет актив.
func (r *AssetRepository) Save(ctx context.Context, asset *entities.Asset) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO assets (id, symbol, name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := q.Exec(ctx, query, asset.ID(), asset.Symbol(), asset.Name(), asset.CreatedAt())
	if err != nil {
		if isUniqueViolation(err, "assets_symbol_key") {
			return domainErrors.NewDomainError("ASSET_EXISTS", "asset symbol already registered", err)
		}
		return fmt.Errorf("failed to save asset: %w", err)
	}

	return nil
}

// FindByID загружает актив по ID.
func (r *AssetRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Asset, error) {
	q := r.getQuerier(ctx)

	query := `SELECT id, symbol, name, created_at FROM assets WHERE id = $1`

	return r.scanAsset(q.QueryRow(ctx, query, id))
}

// FindBySymbol находит актив по символу. Символ нормализуется,
// поэтому "gold" и "GOLD" находят один актив.
func (r *AssetRepository) FindBySymbol(ctx context.Context, symbol string) (*entities.Asset, error) {
	q := r.getQuerier(ctx)

	query := `SELECT id, symbol, name, created_at FROM assets WHERE symbol = $1`

	return r.scanAsset(q.QueryRow(ctx, query, entities.NormalizeSymbol(symbol)))
}

func (r *AssetRepository) scanAsset(row pgx.Row) (*entities.Asset, error) {
	var (
		id           uuid.UUID
		symbol, name string
		createdAt    time.Time
	)

	if err := row.Scan(&id, &symbol, &name, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to scan asset: %w", err)
	}

	return entities.ReconstructAsset(id, symbol, name, createdAt), nil
}
