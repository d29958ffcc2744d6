package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx    repo.TransactionManager
	clock Clock
	log   *slog.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, clock Clock, log *slog.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, clock: clock, log: log}
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	Status          string            `json:"status"`
	TotalPrice      string            `json:"total_price"`
	ShippingAddress string            `json:"shipping_address"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Orders []OrderOutput `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

// 自分の注文一覧（新しい順）
func (u *OrderUsecase) ListMine(ctx context.Context, actor model.Actor, page int, limit int) (OrderListOutput, error) {
	if actor.UserID <= 0 {
		return OrderListOutput{}, ErrUnauthorized
	}
	page, limit = normalizePage(page, limit)

	var out OrderListOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, actor.UserID, page, limit)
		if err != nil {
			return storageErr("list orders", err)
		}

		out = OrderListOutput{Orders: make([]OrderOutput, 0, len(orders)), Total: total, Page: page, Limit: limit}
		for _, o := range orders {
			out.Orders = append(out.Orders, ToOrderOutput(o))
		}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, storageErr("list orders", err)
	}
	return out, nil
}

func (u *OrderUsecase) GetMine(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	if actor.UserID <= 0 {
		return OrderOutput{}, ErrUnauthorized
	}
	if orderID <= 0 {
		return OrderOutput{}, ErrNotFound
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return storageErr("find order", err)
		}
		//他人の注文は「存在しない扱い」にする
		if o.UserID != actor.UserID && !actor.IsAdmin() {
			return ErrNotFound
		}
		out = ToOrderOutput(o)
		return nil
	})
	if err != nil {
		return OrderOutput{}, storageErr("find order", err)
	}
	return out, nil
}

// Cancel は本人か管理者だけ。在庫は戻さない。
func (u *OrderUsecase) Cancel(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	if actor.UserID <= 0 {
		return OrderOutput{}, ErrUnauthorized
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := transitionTx(ctx, r, u.clock, actor, orderID, model.OrderStatusCancelled, func(o model.Order) error {
			if !actor.CanManage(o.UserID) {
				return ErrForbidden
			}
			return nil
		})
		if err != nil {
			return err
		}
		out = ToOrderOutput(o)
		return nil
	})
	if err != nil {
		return OrderOutput{}, storageErr("cancel order", err)
	}

	u.log.InfoContext(ctx, "order cancelled", "order_id", orderID, "actor_user_id", actor.UserID)
	return out, nil
}

// RecalcTotal は自前のトランザクションで合計を再計算する。
func (u *OrderUsecase) RecalcTotal(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return storageErr("lock order", err)
		}
		if !actor.CanManage(o.UserID) {
			return ErrForbidden
		}

		before := o.TotalPrice
		total, err := RecalcTotalTx(ctx, r, orderID)
		if err != nil {
			return err
		}

		if err := writeAudit(ctx, r, u.clock, actor, model.AuditActionRecalcOrderTotal, orderID,
			totalSnapshot{TotalPrice: before.StringFixed(2)},
			totalSnapshot{TotalPrice: total.StringFixed(2)},
		); err != nil {
			return err
		}

		o, err = r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return storageErr("find order", err)
		}
		out = ToOrderOutput(o)
		return nil
	})
	if err != nil {
		return OrderOutput{}, storageErr("recalc total", err)
	}
	return out, nil
}

// RecalcTotalTx は呼び出し側のトランザクション内で明細から合計を出し直す。
func RecalcTotalTx(ctx context.Context, r repo.TxRepos, orderID int64) (decimal.Decimal, error) {
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return decimal.Zero, storageErr("list order items", err)
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	total = total.Round(2)

	if err := r.Orders().UpdateTotal(ctx, orderID, total); err != nil {
		return decimal.Zero, storageErr("update total", err)
	}
	return total, nil
}

type statusSnapshot struct {
	Status model.OrderStatus `json:"status"`
}

type totalSnapshot struct {
	TotalPrice string `json:"total_price"`
}

// transitionTx は行ロック→状態機械チェック→条件付き更新→監査ログ。
// guardはロック後の注文で権限を確認する。
func transitionTx(
	ctx context.Context,
	r repo.TxRepos,
	clock Clock,
	actor model.Actor,
	orderID int64,
	to model.OrderStatus,
	guard func(o model.Order) error,
) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, ErrNotFound
	}

	o, err := r.Orders().LockByID(ctx, orderID)
	if err != nil {
		return model.Order{}, storageErr("lock order", err)
	}
	if guard != nil {
		if err := guard(o); err != nil {
			return model.Order{}, err
		}
	}

	from := o.Status
	if !from.CanTransitionTo(to) {
		return model.Order{}, &InvalidTransitionError{OrderID: orderID, From: from, To: to}
	}

	err = r.Orders().UpdateStatus(ctx, orderID, from, to)
	if errors.Is(err, repo.ErrConflict) {
		return model.Order{}, &InvalidTransitionError{OrderID: orderID, From: from, To: to}
	}
	if err != nil {
		return model.Order{}, storageErr("update status", err)
	}

	if err := writeAudit(ctx, r, clock, actor, model.AuditActionUpdateOrderStatus, orderID,
		statusSnapshot{Status: from},
		statusSnapshot{Status: to},
	); err != nil {
		return model.Order{}, err
	}

	o, err = r.Orders().FindByID(ctx, orderID)
	if err != nil {
		return model.Order{}, storageErr("find order", err)
	}
	return o, nil
}

func writeAudit(
	ctx context.Context,
	r repo.TxRepos,
	clock Clock,
	actor model.Actor,
	action model.AuditAction,
	orderID int64,
	before any,
	after any,
) error {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return err
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return err
	}

	if err := r.AuditLogs().Create(ctx, &model.AuditLog{
		OrderID:     orderID,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		Action:      action,
		BeforeJSON:  string(beforeJSON),
		AfterJSON:   string(afterJSON),
		CreatedAt:   clock.Now(),
	}); err != nil {
		return storageErr("write audit log", err)
	}
	return nil
}

func ToOrderOutput(o model.Order) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.Price.StringFixed(2),
			Quantity:  it.Quantity,
			Subtotal:  it.LineTotal().StringFixed(2),
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalPrice:      o.TotalPrice.StringFixed(2),
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}

func normalizePage(page int, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return page, limit
}
