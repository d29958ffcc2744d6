package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"storefront/internal/domain/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker/v2"
)

const (
	OrderConfirmedQueue = "order.confirmed"
	publishTimeout      = 3 * time.Second
)

// キューに流す注文確定イベント
type OrderConfirmed struct {
	EventType       string      `json:"event_type"`
	OrderID         int64       `json:"order_id"`
	UserID          int64       `json:"user_id"`
	Recipient       string      `json:"recipient"`
	TotalPrice      string      `json:"total_price"`
	ShippingAddress string      `json:"shipping_address"`
	Items           []EventItem `json:"items"`
	Timestamp       time.Time   `json:"timestamp"`
}

type EventItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Price     string `json:"price"`
}

// 送信先の抽象（テストで差し替える）
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier はRabbitMQへ注文確定を流す。
// ブローカーが落ちている間はブレーカーが開いてすぐ失敗する。
type AMQPNotifier struct {
	ch      channel
	breaker *gobreaker.CircuitBreaker[any]
	log     *slog.Logger
}

func NewAMQPNotifier(conn *amqp.Connection, log *slog.Logger) (*AMQPNotifier, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// 送信時にキューが無くて失敗しないように先に作る
	if _, err := ch.QueueDeclare(OrderConfirmedQueue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare %s: %w", OrderConfirmedQueue, err)
	}

	return newAMQPNotifier(ch, log), nil
}

func newAMQPNotifier(ch channel, log *slog.Logger) *AMQPNotifier {
	n := &AMQPNotifier{ch: ch, log: log}
	n.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "order-notifier",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			n.log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return n
}

func (n *AMQPNotifier) Close() error {
	return n.ch.Close()
}

func (n *AMQPNotifier) NotifyOrderConfirmed(ctx context.Context, order model.Order, recipient string) error {
	body, err := json.Marshal(newOrderConfirmed(order, recipient))
	if err != nil {
		return fmt.Errorf("marshal OrderConfirmed: %w", err)
	}

	_, err = n.breaker.Execute(func() (any, error) {
		return nil, n.publishJSON(ctx, OrderConfirmedQueue, body)
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", OrderConfirmedQueue, err)
	}
	return nil
}

func (n *AMQPNotifier) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return n.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func newOrderConfirmed(o model.Order, recipient string) OrderConfirmed {
	ev := OrderConfirmed{
		EventType:       "OrderConfirmed",
		OrderID:         o.ID,
		UserID:          o.UserID,
		Recipient:       recipient,
		TotalPrice:      o.TotalPrice.StringFixed(2),
		ShippingAddress: o.ShippingAddress,
		Items:           make([]EventItem, 0, len(o.Items)),
		Timestamp:       time.Now().UTC(),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, EventItem{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		})
	}
	return ev
}
