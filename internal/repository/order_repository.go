package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 条件付き更新で対象行が前提の状態になかった
var ErrConflict = errors.New("conflict")

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 行ロック付きで取得（トランザクション内で使う）
	LockByID(ctx context.Context, orderID int64) (model.Order, error)
	LockByIDs(ctx context.Context, orderIDs []int64) ([]model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order *model.Order) error

	// fromの状態のときだけtoにする。違えばErrConflict
	UpdateStatus(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) error
	UpdateTotal(ctx context.Context, orderID int64, total decimal.Decimal) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	// キャンセル以外の注文にその商品が含まれるか
	HasPurchased(ctx context.Context, userID int64, productID int64) (bool, error)
}
