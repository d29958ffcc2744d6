package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 明細は注文と同じTxで作る。作成後は変更しない。
type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	// 作成順
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
