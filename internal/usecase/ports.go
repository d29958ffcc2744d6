package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// 注文確定の通知。失敗しても注文は取り消さない。
type Notifier interface {
	NotifyOrderConfirmed(ctx context.Context, order model.Order, recipient string) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// 本番用の時計
func SystemClock() Clock { return realClock{} }
