package notify

import (
	"context"
	"log/slog"

	"storefront/internal/domain/model"
)

// AMQP_URLが無い環境用。ログに出すだけ。
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyOrderConfirmed(ctx context.Context, order model.Order, recipient string) error {
	n.log.InfoContext(ctx, "order confirmation",
		"order_id", order.ID,
		"recipient", recipient,
		"total_price", order.TotalPrice.StringFixed(2),
	)
	return nil
}
