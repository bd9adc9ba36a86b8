// Package query - GetHistory: история транзакций пользователя.
package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/gamevault/walletd/internal/application/dtos"
	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/entities"
	"github.com/gamevault/walletd/internal/domain/errors"
)

// GetHistoryUseCase - постраничная история транзакций пользователя с
// фильтрами по активу, типу и диапазону дат. Все фильтры выполняются
// на стороне SQL.
type GetHistoryUseCase struct {
	userRepo   ports.UserRepository
	assetRepo  ports.AssetRepository
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
}

// NewGetHistoryUseCase создаёт новый use case.
func NewGetHistoryUseCase(
	userRepo ports.UserRepository,
	assetRepo ports.AssetRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
) *GetHistoryUseCase {
	return &GetHistoryUseCase{
		userRepo:   userRepo,
		assetRepo:  assetRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
	}
}

// Execute возвращает страницу истории транзакций.
func (uc *GetHistoryUseCase) Execute(ctx context.Context, q dtos.GetHistoryQuery) (*dtos.HistoryPageDTO, error) {
	userID, err := uuid.Parse(q.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "userId", Message: "invalid user ID format"}
	}

	if _, err := uc.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	// Набор кошельков определяет scope истории: с фильтром по активу -
	// один кошелёк, без - все кошельки пользователя.
	var walletIDs []uuid.UUID
	if q.Asset != nil {
		asset, err := uc.assetRepo.FindBySymbol(ctx, *q.Asset)
		if err != nil {
			return nil, err
		}
		wallet, err := uc.walletRepo.FindByUserAndAsset(ctx, userID, asset.ID())
		if err != nil {
			return nil, err
		}
		walletIDs = []uuid.UUID{wallet.ID()}
	} else {
		wallets, err := uc.walletRepo.FindByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, w := range wallets {
			walletIDs = append(walletIDs, w.ID())
		}
	}

	// Пользователь без кошельков: пустая страница, не ошибка.
	if len(walletIDs) == 0 {
		return &dtos.HistoryPageDTO{
			Transactions: []dtos.TransactionDTO{},
			Page:         dtos.NewPageDTO(0, q.Offset, q.Limit, 0),
		}, nil
	}

	filter := ports.TransactionFilter{
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
	}
	if q.Type != nil {
		txType := entities.TransactionType(*q.Type)
		filter.Type = &txType
	}

	transactions, total, err := uc.txRepo.ListByWallets(ctx, walletIDs, filter, q.Offset, q.Limit)
	if err != nil {
		return nil, err
	}

	return &dtos.HistoryPageDTO{
		Transactions: dtos.ToTransactionDTOList(transactions),
		Page:         dtos.NewPageDTO(total, q.Offset, q.Limit, len(transactions)),
	}, nil
}
