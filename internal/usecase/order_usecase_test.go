package usecase_test

import (
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_CancelByOwner(t *testing.T) {
	env := newTestEnv(t)
	env.allowNotify()
	a := env.seedProduct(t, "A", "10.00", 5)
	buyer := env.seedUser(t, "buyer@example.com", model.RoleUser)
	placed := env.placeOrder(t, "sid", buyer, map[int64]int64{a.ID: 2})

	out, err := env.orders.Cancel(t.Context(), buyer, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusCancelled), out.Status)

	// 在庫は戻さない
	assert.Equal(t, int64(3), env.stockOf(t, a.ID))

	var logs []model.AuditLog
	require.NoError(t, env.db.Where("order_id = ?", placed.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionUpdateOrderStatus, logs[0].Action)
	assert.JSONEq(t, `{"status":"paid"}`, logs[0].BeforeJSON)
	assert.JSONEq(t, `{"status":"cancelled"}`, logs[0].AfterJSON)
	assert.Equal(t, buyer.UserID, logs[0].ActorUserID)
	assert.Equal(t, model.RoleUser, logs[0].ActorRole)
}

func TestOrder_CancelShippedIsInvalidTransition(t *testing.T) {
	env := newTestEnv(t)
	env.allowNotify()
	a := env.seedProduct(t, "A", "10.00", 5)
	buyer := env.seedUser(t, "buyer@example.com", model.RoleUser)
	admin := env.seedUser(t, "admin@example.com", model.RoleAdmin)
	placed := env.placeOrder(t, "sid", buyer, map[int64]int64{a.ID: 1})

	_, err := env.admin.Ship(t.Context(), admin, []int64{placed.ID})
	require.NoError(t, err)

	_, err = env.orders.Cancel(t.Context(), buyer, placed.ID)

	var transErr *usecase.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, model.OrderStatusShipped, transErr.From)
	assert.Equal(t, model.OrderStatusShipped, env.statusOf(t, placed.ID))
}

func TestOrder_CancelTwiceReportsTerminal(t *testing.T) {
	env := newTestEnv(t)
	env.allowNotify()
	a := env.seedProduct(t, "A", "10.00", 5)
	buyer := env.seedUser(t, "buyer@example.com", model.RoleUser)
	placed := env.placeOrder(t, "sid", buyer, map[int64]int64{a.ID: 1})

	_, err := env.orders.Cancel(t.Context(), buyer, placed.ID)
	require.NoError(t, err)

	_, err = env.orders.Cancel(t.Context(), buyer, placed.ID)
	require.ErrorIs(t, err, usecase.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "already cancelled")
}

func TestOrder_CancelPermissions(t *testing.T) {
	env := newTestEnv(t)
	env.allowNotify()
	a := env.seedProduct(t, "A", "10.00", 5)
	buyer := env.seedUser(t, "buyer@example.com", model.RoleUser)
	other := env.seedUser(t, "other@example.com", model.RoleUser)
	admin := env.seedUser(t, "admin@example.com", model.RoleAdmin)
	placed := env.placeOrder(t, "sid", buyer, map[int64]int64{a.ID: 1})

	_, err := env.orders.Cancel(t.Context(), other, placed.ID)
	assert.ErrorIs(t, err, usecase.ErrForbidden)
	assert.Equal(t, model.OrderStatusPaid, env.statusOf(t, placed.ID))

	_, err = env.orders.Cancel(t.Context(), admin, placed.ID)
	require.NoError(t, err)

	// 終端からは動かない
	_, err = env.orders.Cancel(t.Context(), admin, placed.ID)
	assert.ErrorIs(t, err, usecase.ErrInvalidTransition)

	_, err = env.orders.Cancel(t.Context(), admin, 9999)
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestOrder_GetMineHidesOthers(t *testing.T) {
	env := newTestEnv(t)
	env.allowNotify()
	a := env.seedProduct(t, "A", "10.00", 5)
	buyer := env.seedUser(t, "buyer@example.com", model.RoleUser)
	other := env.seedUser(t, "other@example.com", model.RoleUser)
	placed := env.placeOrder(t, "sid", buyer, map[int64]int64{a.ID: 1})

	got, err := env.orders.GetMine(t.Context(), buyer, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, got.ID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "A", got.Items[0].Name)

	_, err = env.orders.GetMine(t.Context(), other, placed.ID)
	assert.ErrorIs(t, err, usecase.ErrNotFound)

	list, err := env.orders.ListMine(t.Context(), other, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, list.Orders)

	list, err = env.orders.ListMine(t.Context(), buyer, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 50, list.Limit)
}

func TestOrder_RecalcTotal(t *testing.T) {
	env := newTestEnv(t)
	env.allowNotify()
	a := env.seedProduct(t, "A", "10.00", 5)
	buyer := env.seedUser(t, "buyer@example.com", model.RoleUser)
	admin := env.seedUser(t, "admin@example.com", model.RoleAdmin)
	placed := env.placeOrder(t, "sid", buyer, map[int64]int64{a.ID: 2})

	// 合計を壊してから再計算
	require.NoError(t, env.db.Model(&model.Order{}).Where("id = ?", placed.ID).Update("total_price", "1.00").Error)

	out, err := env.orders.RecalcTotal(t.Context(), admin, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, "20.00", out.TotalPrice)

	var logs []model.AuditLog
	require.NoError(t, env.db.Where("action = ?", model.AuditActionRecalcOrderTotal).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.JSONEq(t, `{"total_price":"1.00"}`, logs[0].BeforeJSON)
	assert.JSONEq(t, `{"total_price":"20.00"}`, logs[0].AfterJSON)
}
