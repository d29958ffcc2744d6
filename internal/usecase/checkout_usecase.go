package usecase

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	// 直列化失敗・デッドロック時の試行回数
	maxCheckoutAttempts = 3
	notifyTimeout       = 5 * time.Second
)

type CheckoutUsecase struct {
	tx       repo.TransactionManager
	carts    *CartUsecase
	users    repo.UserRepository
	notifier Notifier
	ids      IDGenerator
	log      *slog.Logger
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	carts *CartUsecase,
	users repo.UserRepository,
	notifier Notifier,
	ids IDGenerator,
	log *slog.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:       tx,
		carts:    carts,
		users:    users,
		notifier: notifier,
		ids:      ids,
		log:      log,
	}
}

type CheckoutInput struct {
	ShippingAddress string
}

// Checkout はカートを注文に変える。
// 在庫確認・注文作成・明細作成・在庫減算・合計計算は1トランザクション。
// カートはコミット後に消す。同じカートの再送は冪等キーで既存注文を返す。
func (u *CheckoutUsecase) Checkout(ctx context.Context, sessionID string, actor model.Actor, in CheckoutInput) (OrderOutput, error) {
	if actor.UserID <= 0 {
		return OrderOutput{}, ErrUnauthorized
	}
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return OrderOutput{}, ErrInvalidShippingAddress
	}

	cart, err := u.carts.Load(ctx, sessionID)
	if err != nil {
		return OrderOutput{}, err
	}
	if cart.IsEmpty() {
		return OrderOutput{}, ErrEmptyCart
	}
	if cart.Token == "" {
		cart.Token = u.ids.NewID()
	}

	var (
		order  model.Order
		replay bool
	)
	for attempt := 1; ; attempt++ {
		order, replay, err = u.placeOrder(ctx, cart, actor.UserID, address)
		if err == nil || !errors.Is(err, repo.ErrRetryable) || attempt >= maxCheckoutAttempts {
			break
		}
		u.log.WarnContext(ctx, "checkout retry", "attempt", attempt, "user_id", actor.UserID, "err", err)
	}

	// 同時に同じカートで確定された（一意キー違反）
	if errors.Is(err, repo.ErrDuplicate) {
		order, replay, err = u.findExisting(ctx, actor.UserID, cart.Token)
	}
	if err != nil {
		return OrderOutput{}, storageErr("checkout", err)
	}

	// コミット済みなのでカートの削除失敗は注文を失敗にしない
	if err := u.carts.Clear(ctx, sessionID); err != nil {
		u.log.ErrorContext(ctx, "clear cart after checkout", "order_id", order.ID, "err", err)
	}

	if replay {
		u.log.InfoContext(ctx, "checkout replayed", "order_id", order.ID, "user_id", actor.UserID)
		return ToOrderOutput(order), nil
	}

	u.log.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"user_id", actor.UserID,
		"total_price", order.TotalPrice.StringFixed(2),
		"items", len(order.Items),
	)
	u.notify(ctx, order)

	return ToOrderOutput(order), nil
}

func (u *CheckoutUsecase) placeOrder(ctx context.Context, cart model.Cart, userID int64, address string) (model.Order, bool, error) {
	var (
		out    model.Order
		replay bool
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// クリアが失われたカートの再送
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, cart.Token)
		if err != nil {
			return storageErr("find order by key", err)
		}
		if found {
			out, replay = existing, true
			return nil
		}

		// id昇順でロックしてから在庫を読み直す
		products, err := r.Products().LockByIDs(ctx, cart.ProductIDs())
		if err != nil {
			return storageErr("lock products", err)
		}

		entries := slices.Collect(joinCart(cart, products))
		if len(entries) == 0 {
			return ErrEmptyCart
		}

		// カートの順で最初に足りない商品を返す
		for _, e := range entries {
			if e.Product.Stock < e.Quantity {
				return &InsufficientStockError{
					ProductID:   e.Product.ID,
					ProductName: e.Product.Name,
					Requested:   e.Quantity,
					Available:   e.Product.Stock,
				}
			}
		}

		order := model.Order{
			UserID:          userID,
			Status:          model.OrderStatusPaid,
			TotalPrice:      decimal.Zero,
			ShippingAddress: address,
			IdempotencyKey:  cart.Token,
		}
		if err := r.Orders().Create(ctx, &order); err != nil {
			return storageErr("create order", err)
		}

		items := make([]model.OrderItem, 0, len(entries))
		for _, e := range entries {
			items = append(items, model.OrderItem{
				ProductID:           e.Product.ID,
				ProductNameSnapshot: e.Product.Name,
				Price:               e.UnitPrice,
				Quantity:            e.Quantity,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
			return storageErr("create order items", err)
		}

		for _, e := range entries {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, e.Product.ID, e.Quantity)
			if err != nil {
				return storageErr("decrease stock", err)
			}
			if !ok {
				available, err := r.Inventory().StockOf(ctx, e.Product.ID)
				if err != nil {
					return storageErr("read stock", err)
				}
				return &InsufficientStockError{
					ProductID:   e.Product.ID,
					ProductName: e.Product.Name,
					Requested:   e.Quantity,
					Available:   available,
				}
			}
		}

		if _, err := RecalcTotalTx(ctx, r, order.ID); err != nil {
			return err
		}

		out, err = r.Orders().FindByID(ctx, order.ID)
		if err != nil {
			return storageErr("find order", err)
		}
		return nil
	})
	if err != nil {
		return model.Order{}, false, err
	}
	return out, replay, nil
}

func (u *CheckoutUsecase) findExisting(ctx context.Context, userID int64, token string) (model.Order, bool, error) {
	var (
		out   model.Order
		found bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, ok, err := r.Orders().FindByIdempotencyKey(ctx, userID, token)
		if err != nil {
			return err
		}
		out, found = o, ok
		return nil
	})
	if err != nil {
		return model.Order{}, false, err
	}
	if !found {
		// 一意キー違反なのに読めない。カートは残したまま再試行させる
		return model.Order{}, false, &StorageError{Op: "find order by key", Err: repo.ErrConflict}
	}
	return out, true, nil
}

// 通知はベストエフォート。失敗はログだけ。
func (u *CheckoutUsecase) notify(ctx context.Context, order model.Order) {
	if u.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	user, err := u.users.FindByID(ctx, order.UserID)
	if err != nil {
		u.log.WarnContext(ctx, "notify: recipient lookup failed", "order_id", order.ID, "err", err)
		return
	}

	if err := u.notifier.NotifyOrderConfirmed(ctx, order, user.Email); err != nil {
		u.log.WarnContext(ctx, "notify: order confirmation failed", "order_id", order.ID, "err", err)
	}
}
