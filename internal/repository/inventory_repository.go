package repository

import (
	"context"
)

type InventoryRepository interface {
	// 在庫が足りるときだけ減算（1行の条件付きUPDATE）
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫の現在値を取得
	StockOf(ctx context.Context, productID int64) (int64, error)
}
