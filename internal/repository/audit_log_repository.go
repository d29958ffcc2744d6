package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 注文の変更履歴。書き込みは状態変更と同じTxで行う。
type AuditLogRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	// 古い順。limitが0以下なら上限まで
	ListByOrderID(ctx context.Context, orderID int64, limit int) ([]model.AuditLog, error)
}
