package repository

import (
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	return testutil.NewSQLiteDB(t)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	return testutil.NewRedis(t)
}

func seedProduct(t *testing.T, gdb *gorm.DB, name string, price string, stock int64) model.Product {
	t.Helper()

	p := model.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, gdb.Create(&p).Error)
	return p
}

func seedUser(t *testing.T, gdb *gorm.DB, email string) model.User {
	t.Helper()

	u := model.User{Email: email, Role: model.RoleUser, IsActive: true}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

func seedOrder(t *testing.T, gdb *gorm.DB, userID int64, status model.OrderStatus, items ...model.OrderItem) model.Order {
	t.Helper()

	o := model.Order{
		UserID:          userID,
		Status:          status,
		TotalPrice:      decimal.Zero,
		ShippingAddress: "1-2-3 Shibuya, Tokyo",
		IdempotencyKey:  uuid.NewString(),
		CreatedAt:       time.Now(),
	}
	require.NoError(t, NewOrderGormRepository(gdb).Create(t.Context(), &o))
	if len(items) > 0 {
		require.NoError(t, NewOrderItemGormRepository(gdb).CreateBulk(t.Context(), o.ID, items))
	}
	return o
}
