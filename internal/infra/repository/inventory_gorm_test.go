package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryGorm_DecreaseStockIfEnough(t *testing.T) {
	gdb := newTestDB(t)
	p := seedProduct(t, gdb, "A", "10.00", 3)
	r := NewInventoryGormRepository(gdb)

	ok, err := r.DecreaseStockIfEnough(t.Context(), p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// 残り1に対して2は減らさない
	ok, err = r.DecreaseStockIfEnough(t.Context(), p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	stock, err := r.StockOf(t.Context(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stock)

	_, err = r.DecreaseStockIfEnough(t.Context(), p.ID, 0)
	assert.Error(t, err)
}

func TestProductGorm_LockByIDsOrdersAscending(t *testing.T) {
	gdb := newTestDB(t)
	a := seedProduct(t, gdb, "A", "1.00", 1)
	b := seedProduct(t, gdb, "B", "1.00", 1)
	r := NewProductGormRepository(gdb)

	got, err := r.LockByIDs(t.Context(), []int64{b.ID, a.ID, 9999})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, b.ID, got[1].ID)
}
