// Package transfer - ExecuteTransfer use case: единственная write-операция
// сервиса.
package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gamevault/walletd/internal/application/dtos"
	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/entities"
	"github.com/gamevault/walletd/internal/domain/errors"
	"github.com/gamevault/walletd/internal/domain/events"
	"github.com/gamevault/walletd/internal/domain/valueobjects"
)

// ExecuteTransferUseCase - use case для выполнения перевода.
//
// Сценарий:
//  1. Валидация команды
//  2. Быстрая проверка идемпотентности в кеше (ReserveOrFetch)
//  3. Резолв актива и маршрутизация контрагента (Treasury)
//  4. В транзакции с retry:
//     a. Повторная проверка идемпотентности в БД (source of truth)
//     b. Блокировка обоих кошельков в каноническом порядке
//     c. Debit + Credit
//     d. Запись транзакции, двух проводок и outbox-события
//  5. Финализация кеша: терминальные исходы кешируются, транзиентные - нет
//
// Бизнес-правила:
// - Один ключ идемпотентности = максимум один коммит навсегда
// - Баланс не может уйти в минус
// - Обе проводки и обновления балансов атомарны
type ExecuteTransferUseCase struct {
	assetRepo   ports.AssetRepository
	walletRepo  ports.WalletRepository
	txRepo      ports.TransactionRepository
	ledgerRepo  ports.LedgerRepository
	publisher   ports.EventPublisher
	uow         ports.UnitOfWork
	idempotency ports.IdempotencyStore
	router      *CounterpartyRouter
	logger      *slog.Logger
	outcomeTTL  time.Duration // TTL финального результата в кеше (24h)
}

// NewExecuteTransferUseCase создаёт новый use case.
func NewExecuteTransferUseCase(
	assetRepo ports.AssetRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	ledgerRepo ports.LedgerRepository,
	publisher ports.EventPublisher,
	uow ports.UnitOfWork,
	idempotency ports.IdempotencyStore,
	router *CounterpartyRouter,
	logger *slog.Logger,
	outcomeTTL time.Duration,
) *ExecuteTransferUseCase {
	return &ExecuteTransferUseCase{
		assetRepo:   assetRepo,
		walletRepo:  walletRepo,
		txRepo:      txRepo,
		ledgerRepo:  ledgerRepo,
		publisher:   publisher,
		uow:         uow,
		idempotency: idempotency,
		router:      router,
		logger:      logger,
		outcomeTTL:  outcomeTTL,
	}
}

// Execute выполняет перевод.
func (uc *ExecuteTransferUseCase) Execute(ctx context.Context, cmd dtos.ExecuteTransferCommand) (*dtos.TransferResultDTO, error) {
	// 1. Валидация команды
	userID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "userId", Message: "invalid user ID format"}
	}

	txType := entities.TransactionType(cmd.Type)
	if !txType.IsValid() {
		return nil, errors.ErrInvalidTransactionType
	}

	amount, err := valueobjects.NewAmount(cmd.Amount)
	if err != nil {
		return nil, errors.ValidationError{Field: "amount", Message: err.Error()}
	}
	if !amount.IsPositive() {
		return nil, errors.ValidationError{Field: "amount", Message: "amount must be strictly positive"}
	}

	// 2. Быстрая проверка идемпотентности в кеше
	reservation, err := uc.idempotency.ReserveOrFetch(ctx, cmd.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}

	switch reservation.State {
	case ports.ReservationInFlight:
		return nil, errors.NewInFlightError(cmd.IdempotencyKey)
	case ports.ReservationFinished:
		return uc.replayCachedOutcome(ctx, cmd.IdempotencyKey, reservation.Outcome)
	}
	reserved := reservation.State == ports.ReservationAcquired

	result, err := uc.execute(ctx, cmd, userID, txType, amount)

	// 5. Финализация кеша
	uc.settleCache(ctx, cmd.IdempotencyKey, reserved, result, err)

	return result, err
}

// execute выполняет перевод против БД. Вынесен отдельно, чтобы
// финализация кеша в Execute покрывала все пути выхода.
func (uc *ExecuteTransferUseCase) execute(
	ctx context.Context,
	cmd dtos.ExecuteTransferCommand,
	userID uuid.UUID,
	txType entities.TransactionType,
	amount valueobjects.Amount,
) (*dtos.TransferResultDTO, error) {
	// 3. Резолв актива и маршрутизация
	asset, err := uc.assetRepo.FindBySymbol(ctx, cmd.Asset)
	if err != nil {
		return nil, err
	}

	fromUserID, toUserID, err := uc.router.Route(userID, txType)
	if err != nil {
		return nil, err
	}

	var result *dtos.TransferResultDTO

	// 4. Транзакция с retry при конкурентных конфликтах
	err = uc.uow.ExecuteWithRetry(ctx, func(txCtx context.Context) error {
		result = nil

		// 4a. Идемпотентность в БД: повтор уже закоммиченного запроса
		// возвращает исходный результат, не выполняя перевод заново.
		if prior, err := uc.txRepo.FindByIdempotencyKey(txCtx, cmd.IdempotencyKey); err == nil {
			replay, err := uc.replayCommitted(txCtx, prior)
			if err != nil {
				return err
			}
			result = replay
			return nil
		} else if !errors.IsNotFound(err) {
			return fmt.Errorf("failed to check idempotency: %w", err)
		}

		// 4b. Блокировка обоих кошельков в каноническом порядке
		wallets, err := uc.walletRepo.LockPair(txCtx, fromUserID, toUserID, asset.ID())
		if err != nil {
			return err
		}

		var fromWallet, toWallet *entities.Wallet
		for _, w := range wallets {
			switch w.UserID() {
			case fromUserID:
				fromWallet = w
			case toUserID:
				toWallet = w
			}
		}
		if fromWallet == nil || toWallet == nil {
			return errors.ErrWalletNotFound
		}

		// 4c. Debit + Credit (Debit включает проверку целостности)
		if err := fromWallet.Debit(amount); err != nil {
			return err
		}
		if err := toWallet.Credit(amount); err != nil {
			return err
		}

		// 4d. Транзакция, проводки, outbox
		transaction, err := entities.NewTransaction(
			cmd.IdempotencyKey, fromWallet.ID(), toWallet.ID(), amount, txType,
		)
		if err != nil {
			return err
		}

		if err := uc.txRepo.Save(txCtx, transaction); err != nil {
			// Гонка: конкурент закоммитил этот ключ между probe и INSERT.
			// READ COMMITTED видит его следующим statement'ом.
			if errors.Is(err, errors.ErrDuplicateTransaction) {
				prior, findErr := uc.txRepo.FindByIdempotencyKey(txCtx, cmd.IdempotencyKey)
				if findErr != nil {
					return err
				}
				replay, replayErr := uc.replayCommitted(txCtx, prior)
				if replayErr != nil {
					return replayErr
				}
				result = replay
				return nil
			}
			return err
		}

		if err := uc.walletRepo.UpdateBalance(txCtx, fromWallet); err != nil {
			return err
		}
		if err := uc.walletRepo.UpdateBalance(txCtx, toWallet); err != nil {
			return err
		}

		debitEntry := entities.NewLedgerEntry(
			transaction.ID(), fromWallet.ID(), entities.EntryTypeDebit, amount, fromWallet.Balance(),
		)
		creditEntry := entities.NewLedgerEntry(
			transaction.ID(), toWallet.ID(), entities.EntryTypeCredit, amount, toWallet.Balance(),
		)
		if err := uc.ledgerRepo.SavePair(txCtx, debitEntry, creditEntry); err != nil {
			return err
		}

		event := events.NewTransferCommitted(
			transaction.ID(),
			cmd.IdempotencyKey,
			string(txType),
			asset.Symbol(),
			fromWallet.ID(),
			toWallet.ID(),
			amount,
			fromWallet.Balance(),
			toWallet.Balance(),
		)
		if err := uc.publisher.Publish(txCtx, event); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}

		callerBalance := toWallet.Balance()
		if !txType.IsCredit() {
			callerBalance = fromWallet.Balance()
		}
		result = &dtos.TransferResultDTO{
			TransactionID: transaction.ID().String(),
			Balance:       callerBalance.String(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.InfoContext(ctx, "transfer committed",
		slog.String("tx_id", result.TransactionID),
		slog.String("type", string(txType)),
		slog.String("asset", asset.Symbol()),
		slog.String("amount", amount.String()),
		slog.Bool("replayed", result.Cached),
	)

	return result, nil
}

// replayCommitted восстанавливает исходный результат из проводок
// закоммиченной транзакции: баланс на момент исходного коммита, не
// текущий.
func (uc *ExecuteTransferUseCase) replayCommitted(ctx context.Context, prior *entities.Transaction) (*dtos.TransferResultDTO, error) {
	entries, err := uc.ledgerRepo.FindByTransactionID(ctx, prior.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries for replay: %w", err)
	}

	callerWalletID := prior.CallerWalletID()
	for _, entry := range entries {
		if entry.WalletID() == callerWalletID {
			return &dtos.TransferResultDTO{
				TransactionID: prior.ID().String(),
				Balance:       entry.BalanceAfter().String(),
				Cached:        true,
			}, nil
		}
	}

	return nil, errors.NewCorruptionError("Transaction", prior.ID().String(),
		"committed transaction has no ledger entry for caller wallet")
}

// replayCachedOutcome конвертирует кешированный результат обратно в
// результат или доменную ошибку.
func (uc *ExecuteTransferUseCase) replayCachedOutcome(ctx context.Context, key string, outcome *ports.CachedOutcome) (*dtos.TransferResultDTO, error) {
	uc.logger.DebugContext(ctx, "idempotent replay served from cache", slog.String("key", key))

	if outcome.Status == string(entities.TransactionStatusSuccess) {
		return &dtos.TransferResultDTO{
			TransactionID: outcome.TransactionID,
			Balance:       outcome.Balance,
			Cached:        true,
		}, nil
	}

	return nil, errorFromCode(outcome.ErrorCode, outcome.Message)
}

// settleCache записывает терминальный исход в кеш или снимает резервацию
// при транзиентной ошибке.
func (uc *ExecuteTransferUseCase) settleCache(ctx context.Context, key string, reserved bool, result *dtos.TransferResultDTO, execErr error) {
	if !reserved {
		return
	}

	if execErr == nil {
		outcome := ports.CachedOutcome{
			Status:        string(entities.TransactionStatusSuccess),
			TransactionID: result.TransactionID,
			Balance:       result.Balance,
		}
		_ = uc.idempotency.Finalize(ctx, key, outcome, uc.outcomeTTL)
		return
	}

	if errors.IsTerminal(execErr) {
		outcome := ports.CachedOutcome{
			Status:    string(entities.TransactionStatusFailed),
			ErrorCode: errorCode(execErr),
			Message:   execErr.Error(),
		}
		_ = uc.idempotency.Finalize(ctx, key, outcome, uc.outcomeTTL)
		return
	}

	// Транзиентная ошибка: снимаем маркер, повтор клиента пойдёт в БД.
	_ = uc.idempotency.Release(ctx, key)
}
