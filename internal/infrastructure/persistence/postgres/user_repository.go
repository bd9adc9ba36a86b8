// Package postgres - UserRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/entities"
	domainErrors "github.com/gamevault/walletd/internal/domain/errors"
)

// Compile-time check
var _ ports.UserRepository = (*UserRepository)(nil)

// UserRepository реализует ports.UserRepository.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository создаёт новый UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *UserRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save сохраняет пользователя (upsert по ID).
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO users (id, email, name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name
	`

	_, err := q.Exec(ctx, query, user.ID(), user.Email(), user.Name(), user.CreatedAt())
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return domainErrors.NewDomainError("EMAIL_TAKEN", "email already registered", err)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// FindByID загружает пользователя по ID.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	q := r.getQuerier(ctx)

	query := `SELECT id, email, name, created_at FROM users WHERE id = $1`

	return r.scanUser(q.QueryRow(ctx, query, id))
}

// FindByEmail загружает пользователя по email (case-insensitive).
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	q := r.getQuerier(ctx)

	query := `SELECT id, email, name, created_at FROM users WHERE lower(email) = lower($1)`

	return r.scanUser(q.QueryRow(ctx, query, strings.TrimSpace(email)))
}

// scanUser сканирует одну строку в User entity.
func (r *UserRepository) scanUser(row pgx.Row) (*entities.User, error) {
	var (
		id          uuid.UUID
		email, name string
		createdAt   time.Time
	)

	if err := row.Scan(&id, &email, &name, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return entities.ReconstructUser(id, email, name, createdAt), nil
}
