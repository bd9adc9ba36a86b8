// Package ports - UnitOfWork паттерн для управления транзакциями.
//
// Pattern: Unit of Work
// - Обеспечивает атомарность операций
// - Один UnitOfWork = одна БД-транзакция
// - Автоматический rollback при ошибке
package ports

import "context"

// UnitOfWork определяет контракт для управления транзакциями.
//
// Переданный в fn context содержит транзакцию. Все repository-операции
// внутри fn обязаны использовать этот context, иначе они выполнятся
// вне транзакции.
type UnitOfWork interface {
	// Execute выполняет функцию внутри транзакции.
	//
	// Поведение:
	// - Начинает транзакцию
	// - Выполняет fn
	// - Если fn возвращает error: ROLLBACK
	// - Если fn возвращает nil: COMMIT
	Execute(ctx context.Context, fn func(context.Context) error) error

	// ExecuteWithRetry аналогичен Execute, но с повтором при
	// конкурентных конфликтах: deadlock и lock timeout прозрачно
	// откатываются и транзакция стартует заново с экспоненциальной
	// задержкой. После исчерпания попыток возвращает ContentionError.
	ExecuteWithRetry(ctx context.Context, fn func(context.Context) error) error
}
