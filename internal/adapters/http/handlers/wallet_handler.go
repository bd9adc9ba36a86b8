// Package handlers - Wallet HTTP handlers.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gamevault/walletd/internal/adapters/http/common"
	"github.com/gamevault/walletd/internal/adapters/http/middleware"
	"github.com/gamevault/walletd/internal/application/dtos"
)

// ============================================
// Use Case Interfaces
// ============================================

// ExecuteTransferUseCase - интерфейс для выполнения перевода.
type ExecuteTransferUseCase interface {
	Execute(ctx context.Context, cmd dtos.ExecuteTransferCommand) (*dtos.TransferResultDTO, error)
}

// GetBalanceUseCase - интерфейс для получения баланса.
type GetBalanceUseCase interface {
	Execute(ctx context.Context, query dtos.GetBalanceQuery) (*dtos.BalanceDTO, error)
}

// GetLedgerUseCase - интерфейс для получения журнала проводок.
type GetLedgerUseCase interface {
	Execute(ctx context.Context, query dtos.GetLedgerQuery) (*dtos.LedgerPageDTO, error)
}

// GetHistoryUseCase - интерфейс для получения истории транзакций.
type GetHistoryUseCase interface {
	Execute(ctx context.Context, query dtos.GetHistoryQuery) (*dtos.HistoryPageDTO, error)
}

// GetTransactionUseCase - интерфейс для получения транзакции с проводками.
type GetTransactionUseCase interface {
	Execute(ctx context.Context, query dtos.GetTransactionQuery) (*dtos.TransactionDetailDTO, error)
}

// ============================================
// Wallet Handler
// ============================================

// WalletHandler обрабатывает HTTP запросы кошельков и переводов.
type WalletHandler struct {
	executeTransfer ExecuteTransferUseCase
	getBalance      GetBalanceUseCase
	getLedger       GetLedgerUseCase
	getHistory      GetHistoryUseCase
	getTransaction  GetTransactionUseCase
}

// NewWalletHandler создаёт новый WalletHandler.
func NewWalletHandler(
	executeTransfer ExecuteTransferUseCase,
	getBalance GetBalanceUseCase,
	getLedger GetLedgerUseCase,
	getHistory GetHistoryUseCase,
	getTransaction GetTransactionUseCase,
) *WalletHandler {
	return &WalletHandler{
		executeTransfer: executeTransfer,
		getBalance:      getBalance,
		getLedger:       getLedger,
		getHistory:      getHistory,
		getTransaction:  getTransaction,
	}
}

// ============================================
// Request DTOs
// ============================================

// IdempotencyKeyHeader - заголовок с ключом идемпотентности перевода.
const IdempotencyKeyHeader = "Idempotency-Key"

// CreateTransferRequest - запрос на перевод.
//
// Ключ идемпотентности передаётся заголовком Idempotency-Key,
// контрагент (Treasury) определяется типом операции на сервере.
// amount на проводе - JSON number; json.Number сохраняет литерал
// без float-искажений, money_amount валидирует его как decimal.
type CreateTransferRequest struct {
	UserID string      `json:"userId" binding:"required,uuid"`
	Asset  string      `json:"assetSymbol" binding:"required,asset_symbol"`
	Type   string      `json:"type" binding:"required,transaction_type"`
	Amount json.Number `json:"amount" binding:"required,money_amount"`
}

// UserIDParam - параметр ID пользователя из URL.
type UserIDParam struct {
	UserID string `uri:"userId" binding:"required,uuid"`
}

// TransactionIDParam - параметр ID транзакции из URL.
type TransactionIDParam struct {
	TransactionID string `uri:"transactionId" binding:"required,uuid"`
}

// BalanceParams - query параметры запроса баланса и журнала.
type BalanceParams struct {
	Asset string `form:"asset" binding:"required,asset_symbol"`
}

// HistoryParams - query параметры фильтров истории.
// Даты в RFC3339, границы включительные.
type HistoryParams struct {
	Asset     string `form:"asset" binding:"omitempty,asset_symbol"`
	Type      string `form:"type" binding:"omitempty,transaction_type"`
	StartDate string `form:"startDate" binding:"omitempty"`
	EndDate   string `form:"endDate" binding:"omitempty"`
}

// ============================================
// HTTP Handlers
// ============================================

// CreateTransfer выполняет перевод между пользователем и Treasury.
//
// POST /api/v1/wallets/transactions
//
// Успех: 200 {"status":"SUCCESS","txId":"...","balance":"550.0000"}
// Идемпотентный повтор: 200 с _cached=true и исходным результатом.
func (h *WalletHandler) CreateTransfer(c *gin.Context) {
	key := c.GetHeader(IdempotencyKeyHeader)
	if key == "" {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: IdempotencyKeyHeader, Message: "This header is required", Code: "required"},
		})
		return
	}
	if len(key) > 128 {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: IdempotencyKeyHeader, Message: "Value is too long (maximum: 128)", Code: "max"},
		})
		return
	}

	var req CreateTransferRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.ExecuteTransferCommand{
		IdempotencyKey: key,
		UserID:         req.UserID,
		Asset:          req.Asset,
		Type:           req.Type,
		Amount:         req.Amount.String(),
	}

	result, err := h.executeTransfer.Execute(c.Request.Context(), cmd)
	if err != nil {
		middleware.RecordTransfer(req.Type, req.Asset, "failed", 0)
		common.HandleDomainError(c, err)
		return
	}

	if result.Cached {
		middleware.RecordReplay()
	} else {
		// Ошибка парсинга невозможна после binding-валидации
		amount, _ := req.Amount.Float64()
		middleware.RecordTransfer(req.Type, req.Asset, "success", amount)
	}

	common.Success(c, http.StatusOK, common.TransferResponse{
		Status:        common.StatusSuccess,
		TransactionID: result.TransactionID,
		Balance:       result.Balance,
		Cached:        result.Cached,
	})
}

// GetBalance возвращает баланс пользователя по активу.
//
// GET /api/v1/wallets/:userId/balance?asset=GOLD
func (h *WalletHandler) GetBalance(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}

	var filters BalanceParams
	if !BindQuery(c, &filters) {
		return
	}

	query := dtos.GetBalanceQuery{
		UserID: params.UserID,
		Asset:  filters.Asset,
	}

	result, err := h.getBalance.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetLedger возвращает журнал проводок кошелька.
//
// GET /api/v1/wallets/:userId/ledger?asset=GOLD&offset=0&limit=20
func (h *WalletHandler) GetLedger(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}

	var filters BalanceParams
	if !BindQuery(c, &filters) {
		return
	}

	pagination := ParsePagination(c)

	query := dtos.GetLedgerQuery{
		UserID: params.UserID,
		Asset:  filters.Asset,
		Offset: pagination.Offset,
		Limit:  pagination.Limit,
	}

	result, err := h.getLedger.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetHistory возвращает историю транзакций пользователя с фильтрами.
//
// GET /api/v1/wallets/:userId/transactions?type=SPEND&asset=GOLD&startDate=...&endDate=...
func (h *WalletHandler) GetHistory(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}

	var filters HistoryParams
	if !BindQuery(c, &filters) {
		return
	}

	pagination := ParsePagination(c)

	query := dtos.GetHistoryQuery{
		UserID: params.UserID,
		Offset: pagination.Offset,
		Limit:  pagination.Limit,
	}

	if filters.Asset != "" {
		query.Asset = &filters.Asset
	}
	if filters.Type != "" {
		query.Type = &filters.Type
	}

	if filters.StartDate != "" {
		from, err := time.Parse(time.RFC3339, filters.StartDate)
		if err != nil {
			common.ValidationErrorResponse(c, []common.FieldError{
				{Field: "startDate", Message: "Invalid date format (use RFC3339)", Code: "datetime"},
			})
			return
		}
		query.DateFrom = &from
	}
	if filters.EndDate != "" {
		to, err := time.Parse(time.RFC3339, filters.EndDate)
		if err != nil {
			common.ValidationErrorResponse(c, []common.FieldError{
				{Field: "endDate", Message: "Invalid date format (use RFC3339)", Code: "datetime"},
			})
			return
		}
		query.DateTo = &to
	}

	result, err := h.getHistory.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetTransaction возвращает транзакцию вместе с обеими проводками.
//
// GET /api/v1/wallets/transactions/:transactionId
func (h *WalletHandler) GetTransaction(c *gin.Context) {
	var params TransactionIDParam
	if !BindURI(c, &params) {
		return
	}

	if _, err := uuid.Parse(params.TransactionID); err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "transactionId", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	query := dtos.GetTransactionQuery{TransactionID: params.TransactionID}

	result, err := h.getTransaction.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes регистрирует маршруты для WalletHandler.
//
// Routes:
// - POST /wallets/transactions                  - Execute transfer
// - GET  /wallets/transactions/:transactionId   - Get transaction with entries
// - GET  /wallets/:userId/balance               - Get balance
// - GET  /wallets/:userId/ledger                - Get ledger page
// - GET  /wallets/:userId/transactions          - Get history page
func (h *WalletHandler) RegisterRoutes(router *gin.RouterGroup, transferLimiter gin.HandlerFunc) {
	wallets := router.Group("/wallets")
	{
		if transferLimiter != nil {
			wallets.POST("/transactions", transferLimiter, h.CreateTransfer)
		} else {
			wallets.POST("/transactions", h.CreateTransfer)
		}
		wallets.GET("/transactions/:transactionId", h.GetTransaction)
		wallets.GET("/:userId/balance", h.GetBalance)
		wallets.GET("/:userId/ledger", h.GetLedger)
		wallets.GET("/:userId/transactions", h.GetHistory)
	}
}
