package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// セッションIDをキーにカートを保存する。期限付き。
type CartSessionRepository interface {
	// 無ければ空のカートを返す（エラーにしない）
	Load(ctx context.Context, sessionID string) (model.Cart, error)
	// 保存のたびに期限を延長する
	Save(ctx context.Context, sessionID string, cart model.Cart) error
	Delete(ctx context.Context, sessionID string) error
	// 期限だけ変更
	ExpireAfter(ctx context.Context, sessionID string, ttl time.Duration) error
}
