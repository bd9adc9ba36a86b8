// Package dtos - DTOs для передачи данных между слоями.
package dtos

// ============================================
// Commands (Write операции)
// ============================================

// ExecuteTransferCommand - команда на выполнение перевода.
// Контрагент (Treasury) определяется типом операции, не клиентом.
type ExecuteTransferCommand struct {
	IdempotencyKey string `json:"idempotencyKey" validate:"required,max=128"`
	UserID         string `json:"userId" validate:"required,uuid"`
	Asset          string `json:"asset" validate:"required,min=1,max=16"`
	Type           string `json:"type" validate:"required,oneof=TOP_UP BONUS SPEND"`
	Amount         string `json:"amount" validate:"required"`
}

// TransferResultDTO - результат перевода для API.
// Balance - баланс кошелька пользователя после перевода (для повторов -
// на момент исходного коммита).
type TransferResultDTO struct {
	TransactionID string `json:"txId"`
	Balance       string `json:"balance"`
	Cached        bool   `json:"-"` // повтор, обслуженный из кеша или БД
}
