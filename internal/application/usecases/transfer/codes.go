// Package transfer - машинные коды ошибок для кеша идемпотентности.
//
// Терминальный отказ кешируется как {status: FAILED, error: <code>}, и
// повтор запроса должен воспроизвести ту же доменную ошибку, поэтому
// маппинг обязан быть двусторонним.
package transfer

import (
	"github.com/gamevault/walletd/internal/domain/errors"
)

// Коды терминальных отказов.
const (
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeAssetNotFound     = "ASSET_NOT_FOUND"
	CodeWalletNotFound    = "WALLET_NOT_FOUND"
	CodeSelfTransfer      = "SELF_TRANSFER"
	CodeInvalidType       = "INVALID_TRANSACTION_TYPE"
	CodeValidation        = "VALIDATION_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

// errorCode возвращает машинный код терминальной ошибки.
func errorCode(err error) string {
	switch {
	case errors.IsInsufficientFunds(err):
		return CodeInsufficientFunds
	case errors.Is(err, errors.ErrUserNotFound), errors.Is(err, errors.ErrTreasuryNotFound):
		return CodeUserNotFound
	case errors.Is(err, errors.ErrAssetNotFound):
		return CodeAssetNotFound
	case errors.Is(err, errors.ErrWalletNotFound):
		return CodeWalletNotFound
	case errors.Is(err, errors.ErrSelfTransfer):
		return CodeSelfTransfer
	case errors.Is(err, errors.ErrInvalidTransactionType):
		return CodeInvalidType
	case errors.IsValidation(err):
		return CodeValidation
	default:
		return CodeInternal
	}
}

// errorFromCode восстанавливает доменную ошибку из кешированного кода.
func errorFromCode(code, message string) error {
	switch code {
	case CodeInsufficientFunds:
		return errors.ErrInsufficientFunds
	case CodeUserNotFound:
		return errors.ErrUserNotFound
	case CodeAssetNotFound:
		return errors.ErrAssetNotFound
	case CodeWalletNotFound:
		return errors.ErrWalletNotFound
	case CodeSelfTransfer:
		return errors.ErrSelfTransfer
	case CodeInvalidType:
		return errors.ErrInvalidTransactionType
	case CodeValidation:
		return errors.ValidationError{Field: "request", Message: message}
	default:
		return errors.NewDomainError(code, message, nil)
	}
}
