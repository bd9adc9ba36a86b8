// Command seed bootstraps the closed-loop economy: the treasury user,
// the base assets and the treasury wallets holding the initial supply.
//
// The seed is idempotent: existing rows are left untouched, so it is
// safe to run on every deploy after migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/config"
	"github.com/gamevault/walletd/internal/domain/entities"
	domainerrors "github.com/gamevault/walletd/internal/domain/errors"
	"github.com/gamevault/walletd/internal/domain/valueobjects"
	"github.com/gamevault/walletd/internal/infrastructure/persistence/postgres"
	"github.com/gamevault/walletd/internal/pkg/logger"
)

// initialSupply - стартовая эмиссия Treasury по каждому активу.
const initialSupply = "1000000000"

// seedAssets - базовые активы замкнутой экономики.
var seedAssets = map[string]string{
	"GOLD":    "Gold",
	"DIAMOND": "Diamond",
}

func main() {
	demo := flag.Bool("demo", false, "also create demo users with empty wallets")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewConnectionPool(ctx, postgres.Config{
		URL:      cfg.Database.URL,
		MaxConns: 2,
		MinConns: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	s := &seeder{
		users:   postgres.NewUserRepository(pool),
		assets:  postgres.NewAssetRepository(pool),
		wallets: postgres.NewWalletRepository(pool),
		logger:  lg,
	}

	if err := s.run(ctx, cfg.Transfer.TreasuryEmail, *demo); err != nil {
		log.Fatalf("seed failed: %v", err)
	}

	lg.Info("Seed complete")
}

type seeder struct {
	users   ports.UserRepository
	assets  ports.AssetRepository
	wallets ports.WalletRepository
	logger  *slog.Logger
}

func (s *seeder) run(ctx context.Context, treasuryEmail string, demo bool) error {
	treasury, err := s.ensureUser(ctx, treasuryEmail, "Treasury")
	if err != nil {
		return err
	}

	supply := valueobjects.MustAmount(initialSupply)

	for symbol, name := range seedAssets {
		asset, err := s.ensureAsset(ctx, symbol, name)
		if err != nil {
			return err
		}

		// Treasury получает всю эмиссию; пользовательские кошельки
		// стартуют пустыми и наполняются через TOP_UP
		if err := s.ensureWallet(ctx, treasury.ID(), asset.ID(), supply); err != nil {
			return err
		}
	}

	if demo {
		for _, u := range []struct{ email, name string }{
			{"alice@example.com", "Alice"},
			{"bob@example.com", "Bob"},
		} {
			user, err := s.ensureUser(ctx, u.email, u.name)
			if err != nil {
				return err
			}
			for symbol := range seedAssets {
				asset, err := s.assets.FindBySymbol(ctx, symbol)
				if err != nil {
					return err
				}
				if err := s.ensureWallet(ctx, user.ID(), asset.ID(), valueobjects.ZeroAmount()); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (s *seeder) ensureUser(ctx context.Context, email, name string) (*entities.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		s.logger.Info("User exists", slog.String("email", email))
		return existing, nil
	}
	if !domainerrors.IsNotFound(err) {
		return nil, err
	}

	user, err := entities.NewUser(email, name)
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user %s: %w", email, err)
	}

	s.logger.Info("User created",
		slog.String("email", email),
		slog.String("user_id", user.ID().String()),
	)
	return user, nil
}

func (s *seeder) ensureAsset(ctx context.Context, symbol, name string) (*entities.Asset, error) {
	existing, err := s.assets.FindBySymbol(ctx, symbol)
	if err == nil {
		s.logger.Info("Asset exists", slog.String("symbol", symbol))
		return existing, nil
	}
	if !domainerrors.IsNotFound(err) {
		return nil, err
	}

	asset, err := entities.NewAsset(symbol, name)
	if err != nil {
		return nil, err
	}
	if err := s.assets.Save(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to save asset %s: %w", symbol, err)
	}

	s.logger.Info("Asset created",
		slog.String("symbol", symbol),
		slog.String("asset_id", asset.ID().String()),
	)
	return asset, nil
}

func (s *seeder) ensureWallet(ctx context.Context, userID, assetID uuid.UUID, opening valueobjects.Amount) error {
	_, err := s.wallets.FindByUserAndAsset(ctx, userID, assetID)
	if err == nil {
		return nil
	}
	if !domainerrors.IsNotFound(err) {
		return err
	}

	wallet := entities.NewWallet(userID, assetID, opening)
	if err := s.wallets.Save(ctx, wallet); err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}

	s.logger.Info("Wallet created",
		slog.String("wallet_id", wallet.ID().String()),
		slog.String("user_id", userID.String()),
		slog.String("balance", opening.String()),
	)
	return nil
}
