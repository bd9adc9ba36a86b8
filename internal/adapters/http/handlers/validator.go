// Package handlers содержит HTTP handlers для REST API.
//
// Handler - это Adapter в терминах Clean Architecture:
// - Принимает HTTP запрос
// - Преобразует в Command/Query DTO
// - Вызывает Use Case
// - Преобразует результат в HTTP ответ
package handlers

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/gamevault/walletd/internal/adapters/http/common"
)

// ============================================
// Custom Validator Setup
// ============================================

var setupOnce sync.Once

// SetupValidator настраивает кастомные валидаторы для Gin.
func SetupValidator() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			// Используем json tag для имён полей в ошибках
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})

			_ = v.RegisterValidation("asset_symbol", validateAssetSymbol)
			_ = v.RegisterValidation("money_amount", validateMoneyAmount)
			_ = v.RegisterValidation("transaction_type", validateTransactionType)
		}
	})
}

// ============================================
// Custom Validators
// ============================================

// validateAssetSymbol проверяет символ актива (2-16 заглавных букв/цифр).
var assetSymbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{1,15}$`)

func validateAssetSymbol(fl validator.FieldLevel) bool {
	return assetSymbolPattern.MatchString(fl.Field().String())
}

// validateMoneyAmount проверяет формат суммы: decimal string,
// не больше 4 знаков после точки (scale хранилища).
var moneyPattern = regexp.MustCompile(`^\d+(\.\d{1,4})?$`)

func validateMoneyAmount(fl validator.FieldLevel) bool {
	return moneyPattern.MatchString(fl.Field().String())
}

// validateTransactionType проверяет тип транзакции.
func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "TOP_UP", "BONUS", "SPEND":
		return true
	}
	return false
}

// ============================================
// Validation Error Handling
// ============================================

// HandleValidationErrors преобразует ошибки валидации в HTTP ответ.
func HandleValidationErrors(c *gin.Context, err error) {
	var fieldErrors []common.FieldError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range validationErrors {
			fieldErrors = append(fieldErrors, common.FieldError{
				Field:   fieldErr.Field(),
				Message: getValidationMessage(fieldErr),
				Code:    fieldErr.Tag(),
			})
		}
	}

	if len(fieldErrors) == 0 {
		// Не ValidationErrors (например, битый JSON) - общая ошибка
		common.BadRequestResponse(c, "Invalid request body: "+err.Error())
		return
	}

	common.ValidationErrorResponse(c, fieldErrors)
}

// getValidationMessage возвращает человекочитаемое сообщение об ошибке.
func getValidationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Invalid UUID format"
	case "min":
		return "Value is too short (minimum: " + fe.Param() + ")"
	case "max":
		return "Value is too long (maximum: " + fe.Param() + ")"
	case "oneof":
		return "Value must be one of: " + fe.Param()
	case "asset_symbol":
		return "Invalid asset symbol (uppercase letters and digits, e.g. 'GOLD')"
	case "money_amount":
		return "Invalid amount format (decimal with up to 4 fraction digits, e.g. '100.50')"
	case "transaction_type":
		return "Invalid transaction type (must be TOP_UP, BONUS or SPEND)"
	default:
		return "Invalid value"
	}
}

// ============================================
// Request Parsing Helpers
// ============================================

// BindJSON биндит JSON тело запроса.
// Возвращает true если успешно, false если была ошибка (ответ уже отправлен).
func BindJSON[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindQuery биндит query параметры.
func BindQuery[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindURI биндит URI параметры.
func BindURI[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindUri(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// ============================================
// Pagination Helper
// ============================================

const (
	defaultPageLimit = 20
	maxPageLimit     = 500
)

// PaginationParams - offset/limit пагинация из query string.
type PaginationParams struct {
	Offset int
	Limit  int
}

// ParsePagination парсит offset/limit из запроса,
// подставляя дефолты и отсекая значения вне диапазона.
func ParsePagination(c *gin.Context) PaginationParams {
	params := PaginationParams{Offset: 0, Limit: defaultPageLimit}

	if offset := c.Query("offset"); offset != "" {
		if v, ok := parseUint(offset); ok {
			params.Offset = v
		}
	}

	if limit := c.Query("limit"); limit != "" {
		if v, ok := parseUint(limit); ok && v > 0 {
			if v > maxPageLimit {
				v = maxPageLimit
			}
			params.Limit = v
		}
	}

	return params
}

// parseUint парсит неотрицательное целое, отклоняя мусор.
func parseUint(s string) (int, bool) {
	if s == "" || len(s) > 9 {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
