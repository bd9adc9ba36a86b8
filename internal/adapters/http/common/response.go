// Package common содержит общие типы для HTTP слоя.
//
// Вынесен в отдельный пакет чтобы избежать циклических импортов
// между handlers и основным http пакетом.
package common

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/gamevault/walletd/internal/domain/errors"
)

// ============================================
// API Response Format
// ============================================

// Статусы ответа.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// ErrorResponse - формат ответа с ошибкой.
//
//	{"status": "FAILED", "error": "INSUFFICIENT_FUNDS", "message": "..."}
type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// FieldError - ошибка валидации конкретного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidationErrorDetails - ответ с перечнем ошибок валидации.
type ValidationErrorDetails struct {
	Status  string       `json:"status"`
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// TransferResponse - формат ответа на перевод.
// Cached выставляется при идемпотентном повторе.
type TransferResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"txId"`
	Balance       string `json:"balance"`
	Cached        bool   `json:"_cached,omitempty"`
}

// ============================================
// Error Codes
// ============================================

const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeAssetNotFound    = "ASSET_NOT_FOUND"
	ErrCodeWalletNotFound   = "WALLET_NOT_FOUND"
	ErrCodeTxNotFound       = "TRANSACTION_NOT_FOUND"
	ErrCodeInsufficient     = "INSUFFICIENT_FUNDS"
	ErrCodeSelfTransfer     = "SELF_TRANSFER"
	ErrCodeInvalidType      = "INVALID_TRANSACTION_TYPE"
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	ErrCodeInFlight         = "REQUEST_IN_FLIGHT"
	ErrCodeContention       = "TOO_MUCH_CONTENTION"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ============================================
// Request ID
// ============================================

const RequestIDKey = "X-Request-ID"

// GetRequestID возвращает Request ID из контекста.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		return id.(string)
	}
	return ""
}

// SetRequestID устанавливает Request ID в контекст.
func SetRequestID(c *gin.Context, id string) {
	c.Set(RequestIDKey, id)
	c.Header(RequestIDKey, id)
}

// ============================================
// Response Helpers
// ============================================

// Success отправляет успешный ответ.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// Error отправляет ответ с ошибкой.
func Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Status:  StatusFailed,
		Error:   code,
		Message: message,
	})
}

// BadRequestResponse создаёт ответ для некорректного запроса.
func BadRequestResponse(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, ErrCodeValidation, message)
}

// ValidationErrorResponse создаёт ответ с ошибками валидации полей.
func ValidationErrorResponse(c *gin.Context, fields []FieldError) {
	c.JSON(http.StatusBadRequest, ValidationErrorDetails{
		Status:  StatusFailed,
		Error:   ErrCodeValidation,
		Message: "Request validation failed",
		Fields:  fields,
	})
}

// TooManyRequestsResponse создаёт ответ для rate limiting.
func TooManyRequestsResponse(c *gin.Context, retryAfter int) {
	if retryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(retryAfter))
	}
	Error(c, http.StatusTooManyRequests, ErrCodeTooManyRequests,
		"Too many requests, please try again later")
}

// InternalErrorResponse создаёт ответ для внутренней ошибки.
func InternalErrorResponse(c *gin.Context) {
	Error(c, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred")
}

// ============================================
// Domain Error to HTTP Error Mapper
// ============================================

// HandleDomainError преобразует domain error в HTTP response.
//
// Маппинг закрытого множества доменных ошибок:
// - валидация, неверный тип, self-transfer -> 400
// - not found -> 404 с конкретным кодом сущности
// - дубликат ключа и in-flight -> 409 (клиенту стоит повторить позже)
// - исчерпанный retry на contention -> 500 (сигнал оператору)
// - corruption и всё прочее -> 500, детали в логах, не в ответе
func HandleDomainError(c *gin.Context, err error) {
	switch {
	case domainerrors.IsValidation(err):
		Error(c, http.StatusBadRequest, ErrCodeValidation, err.Error())

	case domainerrors.Is(err, domainerrors.ErrInvalidTransactionType):
		Error(c, http.StatusBadRequest, ErrCodeInvalidType, "transaction type must be TOP_UP, BONUS or SPEND")

	case domainerrors.Is(err, domainerrors.ErrSelfTransfer):
		Error(c, http.StatusBadRequest, ErrCodeSelfTransfer, "transfer counterparty resolves to the caller")

	case domainerrors.IsInsufficientFunds(err):
		Error(c, http.StatusBadRequest, ErrCodeInsufficient, "wallet balance is not sufficient for this transfer")

	case domainerrors.Is(err, domainerrors.ErrUserNotFound), domainerrors.Is(err, domainerrors.ErrTreasuryNotFound):
		Error(c, http.StatusNotFound, ErrCodeUserNotFound, "user not found")

	case domainerrors.Is(err, domainerrors.ErrAssetNotFound):
		Error(c, http.StatusNotFound, ErrCodeAssetNotFound, "asset not found")

	case domainerrors.Is(err, domainerrors.ErrWalletNotFound):
		Error(c, http.StatusNotFound, ErrCodeWalletNotFound, "wallet not found")

	case domainerrors.Is(err, domainerrors.ErrEntityNotFound):
		Error(c, http.StatusNotFound, ErrCodeNotFound, "resource not found")

	case domainerrors.Is(err, domainerrors.ErrDuplicateTransaction):
		Error(c, http.StatusConflict, ErrCodeDuplicateRequest, "idempotency key already used")

	case domainerrors.IsInFlight(err):
		c.Header("Retry-After", "1")
		Error(c, http.StatusConflict, ErrCodeInFlight,
			"a request with this idempotency key is already being processed")

	case domainerrors.IsContention(err):
		// Внутренний retry уже исчерпан, повтор клиента вряд ли поможет
		Error(c, http.StatusInternalServerError, ErrCodeContention,
			"too much contention on the requested wallets")

	default:
		// DomainError с кастомным кодом (например, из кеша идемпотентности)
		var domainErr *domainerrors.DomainError
		if domainerrors.As(err, &domainErr) {
			Error(c, http.StatusBadRequest, domainErr.Code, domainErr.Message)
			return
		}
		InternalErrorResponse(c)
	}
}
