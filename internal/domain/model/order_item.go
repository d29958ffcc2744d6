package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 1注文に同じ商品は1行だけ
type OrderItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64           `gorm:"not null;uniqueIndex:idx_order_items_order_product" json:"order_id"`
	ProductID           int64           `gorm:"not null;uniqueIndex:idx_order_items_order_product;index" json:"product_id"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	Price               decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (it OrderItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(it.Quantity))
}
