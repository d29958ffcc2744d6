package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// カタログの参照だけを約束。検索や管理は外部。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 見つからないIDは結果に含めない
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	// id昇順で行ロックを取る（デッドロック回避）
	LockByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
}
