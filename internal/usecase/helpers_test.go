package usecase_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	repo "storefront/internal/repository"
	"storefront/internal/testutil"
	"storefront/internal/usecase"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// =====================
// mocks
// =====================

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) NotifyOrderConfirmed(ctx context.Context, order model.Order, recipient string) error {
	args := m.Called(ctx, order, recipient)
	return args.Error(0)
}

type uuidGen struct{}

func (uuidGen) NewID() string { return uuid.NewString() }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// 最初のfailTimes回だけErrRetryableを返す
type flakyTxManager struct {
	inner     repo.TransactionManager
	failTimes int
	calls     int
}

func (m *flakyTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.calls++
	if m.calls <= m.failTimes {
		return repo.ErrRetryable
	}
	return m.inner.WithinTx(ctx, fn)
}

// =====================
// env
// =====================

type testEnv struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	sessions *infraRepo.CartSessionRedisRepository
	txm      repo.TransactionManager
	notifier *NotifierMock

	cart     *usecase.CartUsecase
	checkout *usecase.CheckoutUsecase
	orders   *usecase.OrderUsecase
	admin    *usecase.AdminOrderUsecase
	reviews  *usecase.ReviewUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := testutil.NewSQLiteDB(t)
	mr, client := testutil.NewRedis(t)

	env := &testEnv{
		db:       gdb,
		mr:       mr,
		sessions: infraRepo.NewCartSessionRedisRepository(client, time.Hour),
		txm:      infraRepo.NewTxManagerGorm(gdb),
		notifier: &NotifierMock{},
	}
	env.build(env.txm)
	return env
}

// txmを差し替えて組み直す
func (e *testEnv) build(txm repo.TransactionManager) {
	log := logger.Discard()
	clock := fixedClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	users := infraRepo.NewUserGormRepository(e.db)
	products := infraRepo.NewProductGormRepository(e.db)

	e.cart = usecase.NewCartUsecase(e.sessions, products, uuidGen{})
	e.checkout = usecase.NewCheckoutUsecase(txm, e.cart, users, e.notifier, uuidGen{}, log)
	e.orders = usecase.NewOrderUsecase(txm, clock, log)
	e.admin = usecase.NewAdminOrderUsecase(txm, clock, log)
	e.reviews = usecase.NewReviewUsecase(txm)
}

// 通知は成功扱いにする
func (e *testEnv) allowNotify() {
	e.notifier.On("NotifyOrderConfirmed", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}

func (e *testEnv) seedProduct(t *testing.T, name string, price string, stock int64) model.Product {
	t.Helper()

	p := model.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock, IsActive: true}
	require.NoError(t, e.db.Create(&p).Error)
	return p
}

func (e *testEnv) seedUser(t *testing.T, email string, role model.Role) model.Actor {
	t.Helper()

	u := model.User{Email: email, Role: role, IsActive: true}
	require.NoError(t, e.db.Create(&u).Error)
	return model.Actor{UserID: u.ID, Role: u.Role}
}

func (e *testEnv) stockOf(t *testing.T, productID int64) int64 {
	t.Helper()

	var p model.Product
	require.NoError(t, e.db.First(&p, productID).Error)
	return p.Stock
}

func (e *testEnv) countOrders(t *testing.T) int64 {
	t.Helper()

	var n int64
	require.NoError(t, e.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func (e *testEnv) countOrderItems(t *testing.T) int64 {
	t.Helper()

	var n int64
	require.NoError(t, e.db.Model(&model.OrderItem{}).Count(&n).Error)
	return n
}

func (e *testEnv) statusOf(t *testing.T, orderID int64) model.OrderStatus {
	t.Helper()

	var o model.Order
	require.NoError(t, e.db.First(&o, orderID).Error)
	return o.Status
}

// カートに入れてチェックアウトまで
func (e *testEnv) placeOrder(t *testing.T, sid string, actor model.Actor, lines map[int64]int64) usecase.OrderOutput {
	t.Helper()

	for productID, qty := range lines {
		_, err := e.cart.AddIncremental(t.Context(), sid, productID, qty)
		require.NoError(t, err)
	}
	out, err := e.checkout.Checkout(t.Context(), sid, actor, usecase.CheckoutInput{ShippingAddress: "1-2-3 Shibuya, Tokyo"})
	require.NoError(t, err)
	return out
}
