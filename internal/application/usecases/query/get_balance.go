// Package query - read-проекции поверх кошельков, транзакций и журнала.
//
// Проекции читают закоммиченное состояние без блокировок и никогда не
// мутируют данные.
package query

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gamevault/walletd/internal/application/dtos"
	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/errors"
)

// GetBalanceUseCase - запрос баланса пользователя по активу.
type GetBalanceUseCase struct {
	userRepo   ports.UserRepository
	assetRepo  ports.AssetRepository
	walletRepo ports.WalletRepository
	logger     *slog.Logger
}

// NewGetBalanceUseCase создаёт новый use case.
func NewGetBalanceUseCase(
	userRepo ports.UserRepository,
	assetRepo ports.AssetRepository,
	walletRepo ports.WalletRepository,
	logger *slog.Logger,
) *GetBalanceUseCase {
	return &GetBalanceUseCase{
		userRepo:   userRepo,
		assetRepo:  assetRepo,
		walletRepo: walletRepo,
		logger:     logger,
	}
}

// Execute возвращает баланс кошелька пользователя.
func (uc *GetBalanceUseCase) Execute(ctx context.Context, q dtos.GetBalanceQuery) (*dtos.BalanceDTO, error) {
	userID, err := uuid.Parse(q.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "userId", Message: "invalid user ID format"}
	}

	asset, err := uc.assetRepo.FindBySymbol(ctx, q.Asset)
	if err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.FindByUserAndAsset(ctx, userID, asset.ID())
	if err != nil {
		// Различаем "нет пользователя" и "нет кошелька у пользователя".
		if errors.Is(err, errors.ErrWalletNotFound) {
			if _, userErr := uc.userRepo.FindByID(ctx, userID); userErr != nil {
				return nil, userErr
			}
		}
		return nil, err
	}

	// Отрицательный баланс на read-пути не роняет запрос: читатель не
	// может починить данные, а операторам нужен сигнал.
	if wallet.Balance().Decimal().IsNegative() {
		uc.logger.ErrorContext(ctx, "corrupt wallet balance observed on read path",
			slog.String("wallet_id", wallet.ID().String()),
			slog.String("balance", wallet.Balance().String()))
	}

	return &dtos.BalanceDTO{
		UserID:  userID.String(),
		Asset:   asset.Symbol(),
		Balance: wallet.Balance().String(),
	}, nil
}
