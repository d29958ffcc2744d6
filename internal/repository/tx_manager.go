package repository

import (
	"context"
	"errors"
)

var (
	// 直列化失敗・デッドロック。やり直せば通る可能性がある
	ErrRetryable = errors.New("retryable storage error")
	// 一意制約違反
	ErrDuplicate = errors.New("duplicate key")
)

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Inventory() InventoryRepository
	Products() ProductRepository
	AuditLogs() AuditLogRepository
	Reviews() ReviewRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがエラーを返せば全部ロールバック。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
