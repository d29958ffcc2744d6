package repository

import (
	"context"
	"fmt"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

const orderItemBatchSize = 100

type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

// CreateBulk はorderIDを付けてまとめてINSERTする。
// 数量0以下・マイナス価格の明細が1つでもあれば何も書かない。
func (r *OrderItemGormRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].Quantity < 1 {
			return fmt.Errorf("order item %d: quantity must be positive", items[i].ProductID)
		}
		if items[i].Price.IsNegative() {
			return fmt.Errorf("order item %d: negative price", items[i].ProductID)
		}
		items[i].OrderID = orderID
	}
	return r.db.WithContext(ctx).CreateInBatches(&items, orderItemBatchSize).Error
}

func (r *OrderItemGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	items := []model.OrderItem{}
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
