// Package query - GetLedger: журнал проводок кошелька.
package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/gamevault/walletd/internal/application/dtos"
	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/errors"
)

// GetLedgerUseCase - постраничный журнал проводок кошелька пользователя,
// новые первыми.
type GetLedgerUseCase struct {
	assetRepo  ports.AssetRepository
	walletRepo ports.WalletRepository
	ledgerRepo ports.LedgerRepository
}

// NewGetLedgerUseCase создаёт новый use case.
func NewGetLedgerUseCase(
	assetRepo ports.AssetRepository,
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
) *GetLedgerUseCase {
	return &GetLedgerUseCase{
		assetRepo:  assetRepo,
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
	}
}

// Execute возвращает страницу журнала проводок.
func (uc *GetLedgerUseCase) Execute(ctx context.Context, q dtos.GetLedgerQuery) (*dtos.LedgerPageDTO, error) {
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
		return nil, err
	}

	entries, total, err := uc.ledgerRepo.ListByWallet(ctx, wallet.ID(), q.Offset, q.Limit)
	if err != nil {
		return nil, err
	}

	return &dtos.LedgerPageDTO{
		Entries: dtos.ToLedgerEntryDTOList(entries),
		Page:    dtos.NewPageDTO(total, q.Offset, q.Limit, len(entries)),
	}, nil
}
