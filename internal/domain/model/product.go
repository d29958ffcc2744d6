package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// カタログ側の商品。ここでは参照と在庫減算だけ行う。
type Product struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Stock     int64           `gorm:"not null;check:stock >= 0" json:"stock"`
	IsActive  bool            `gorm:"not null" json:"is_active"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// カートに入れられる状態か
func (p Product) Purchasable() bool {
	return p.IsActive && p.Price.IsPositive()
}
