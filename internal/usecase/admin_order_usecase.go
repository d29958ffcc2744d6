package usecase

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminOrderUsecase struct {
	tx    repo.TransactionManager
	clock Clock
	log   *slog.Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, clock Clock, log *slog.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, clock: clock, log: log}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

type AdminOrderListInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   string
	To     string
}

// 注文一覧（status/user/期間で絞り込み）
func (u *AdminOrderUsecase) List(ctx context.Context, actor model.Actor, in AdminOrderListInput) (OrderListOutput, error) {
	if !actor.IsAdmin() {
		return OrderListOutput{}, ErrForbidden
	}

	f := repo.AdminOrderListFilter{UserID: in.UserID}
	f.Page, f.Limit = normalizePage(in.Page, in.Limit)

	if s := strings.ToLower(strings.TrimSpace(in.Status)); s != "" {
		if !model.OrderStatus(s).Valid() {
			return OrderListOutput{}, ErrInvalidStatus
		}
		f.Status = s
	}

	var ok bool
	if in.From != "" {
		if f.From, ok = parseDateTimeRFC3339(in.From); !ok {
			return OrderListOutput{}, ErrInvalidDateRange
		}
	}
	if in.To != "" {
		if f.To, ok = parseDateTimeRFC3339(in.To); !ok {
			return OrderListOutput{}, ErrInvalidDateRange
		}
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return OrderListOutput{}, ErrInvalidDateRange
	}

	var out OrderListOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return storageErr("list orders", err)
		}

		out = OrderListOutput{Orders: make([]OrderOutput, 0, len(orders)), Total: total, Page: f.Page, Limit: f.Limit}
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

// Transition は任意のステータス変更を状態機械に通す。
func (u *AdminOrderUsecase) Transition(ctx context.Context, actor model.Actor, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if !actor.IsAdmin() {
		return OrderOutput{}, ErrForbidden
	}
	to := model.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !to.Valid() {
		return OrderOutput{}, ErrInvalidStatus
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := transitionTx(ctx, r, u.clock, actor, orderID, to, nil)
		if err != nil {
			return err
		}
		out = ToOrderOutput(o)
		return nil
	})
	if err != nil {
		return OrderOutput{}, storageErr("update order status", err)
	}

	u.log.InfoContext(ctx, "order status updated", "order_id", orderID, "status", to, "actor_user_id", actor.UserID)
	return out, nil
}

// Ship はまとめて発送済みにする。1件でも失敗すれば全件戻す。
func (u *AdminOrderUsecase) Ship(ctx context.Context, actor model.Actor, orderIDs []int64) ([]OrderOutput, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	// id昇順に並べてロック順をそろえる
	ids := slices.Clone(orderIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) == 0 {
		return []OrderOutput{}, nil
	}

	outs := make([]OrderOutput, 0, len(ids))
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 先にまとめてロック。1件でも無ければ何もしない
		locked, err := r.Orders().LockByIDs(ctx, ids)
		if err != nil {
			return storageErr("lock orders", err)
		}
		if len(locked) != len(ids) {
			return ErrNotFound
		}

		for _, id := range ids {
			o, err := transitionTx(ctx, r, u.clock, actor, id, model.OrderStatusShipped, nil)
			if err != nil {
				return err
			}
			outs = append(outs, ToOrderOutput(o))
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("ship orders", err)
	}

	u.log.InfoContext(ctx, "orders shipped", "order_ids", ids, "actor_user_id", actor.UserID)
	return outs, nil
}

func (u *AdminOrderUsecase) Deliver(ctx context.Context, actor model.Actor, orderID int64) (OrderOutput, error) {
	return u.Transition(ctx, actor, orderID, AdminUpdateOrderStatusInput{Status: string(model.OrderStatusDelivered)})
}

// 注文の変更履歴（古い順）
func (u *AdminOrderUsecase) History(ctx context.Context, actor model.Actor, orderID int64) ([]model.AuditLog, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	var logs []model.AuditLog
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			return storageErr("find order", err)
		}
		var err error
		logs, err = r.AuditLogs().ListByOrderID(ctx, orderID, 0)
		if err != nil {
			return storageErr("list audit logs", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("order history", err)
	}
	return logs, nil
}

// 期間パラメータはRFC3339
func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
