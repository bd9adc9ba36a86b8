// Package transfer - use cases движка переводов.
package transfer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/entities"
	"github.com/gamevault/walletd/internal/domain/errors"
)

// CounterpartyRouter определяет вторую сторону перевода по типу операции.
//
// Система замкнута: единица не возникает из ниоткуда и не исчезает.
// Эмиссия и поглощение оформляются как переводы против Treasury:
//   - TOP_UP, BONUS: Treasury -> user (кредит пользователя)
//   - SPEND:         user -> Treasury (дебет пользователя)
//
// Treasury резолвится один раз при старте приложения; если Treasury
// отсутствует в БД, приложение не стартует.
type CounterpartyRouter struct {
	treasuryUserID uuid.UUID
}

// NewCounterpartyRouter создаёт роутер с уже известным Treasury.
func NewCounterpartyRouter(treasuryUserID uuid.UUID) *CounterpartyRouter {
	return &CounterpartyRouter{treasuryUserID: treasuryUserID}
}

// ResolveTreasury находит Treasury-пользователя по email при старте.
func ResolveTreasury(ctx context.Context, userRepo ports.UserRepository, treasuryEmail string) (uuid.UUID, error) {
	user, err := userRepo.FindByEmail(ctx, treasuryEmail)
	if err != nil {
		if errors.IsNotFound(err) {
			return uuid.Nil, fmt.Errorf("%w: %s", errors.ErrTreasuryNotFound, treasuryEmail)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve treasury user: %w", err)
	}
	return user.ID(), nil
}

// TreasuryUserID возвращает ID Treasury-пользователя.
func (r *CounterpartyRouter) TreasuryUserID() uuid.UUID {
	return r.treasuryUserID
}

// Route возвращает пару (fromUserID, toUserID) для операции.
// Treasury не может быть вызывающей стороной.
func (r *CounterpartyRouter) Route(userID uuid.UUID, txType entities.TransactionType) (uuid.UUID, uuid.UUID, error) {
	if userID == r.treasuryUserID {
		return uuid.Nil, uuid.Nil, errors.ErrSelfTransfer
	}

	switch txType {
	case entities.TransactionTypeTopUp, entities.TransactionTypeBonus:
		return r.treasuryUserID, userID, nil
	case entities.TransactionTypeSpend:
		return userID, r.treasuryUserID, nil
	default:
		return uuid.Nil, uuid.Nil, errors.ErrInvalidTransactionType
	}
}
