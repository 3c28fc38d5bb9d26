package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novapos/internal/domain"
	"novapos/internal/store"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	databaseURL := os.Getenv("NOVAPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set NOVAPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestDecrementStockFloorsAtZero(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	stamp := time.Now().UnixNano()
	tracked := fmt.Sprintf("prod-it-%d", stamp)
	untracked := fmt.Sprintf("prod-it-free-%d", stamp)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id IN ($1, $2)`, tracked, untracked)
	})

	three := 3
	_, err := s.SaveProduct(ctx, domain.Product{ID: tracked, Name: "IT Cake", Price: decimal.RequireFromString("6.50"), Category: domain.CategoryDesserts, Stock: &three})
	require.NoError(t, err)
	_, err = s.SaveProduct(ctx, domain.Product{ID: untracked, Name: "IT Water", Price: decimal.RequireFromString("2"), Category: domain.CategoryDrinks})
	require.NoError(t, err)

	require.NoError(t, s.DecrementStock(ctx, []domain.StockAdjustment{
		{ProductID: tracked, Qty: 5},
		{ProductID: untracked, Qty: 1},
	}))

	got, err := s.GetProduct(ctx, tracked)
	require.NoError(t, err)
	require.NotNil(t, got.Stock)
	assert.Equal(t, 0, *got.Stock)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("6.50")))

	free, err := s.GetProduct(ctx, untracked)
	require.NoError(t, err)
	assert.Nil(t, free.Stock)
}

func TestSessionOpenCloseFlipsRegister(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	stamp := time.Now().UnixNano()
	branch, err := s.SaveBranch(ctx, domain.Branch{Name: fmt.Sprintf("IT Branch %d", stamp), Active: true})
	require.NoError(t, err)
	register, err := s.SaveRegister(ctx, domain.CashRegister{Name: "IT Register", BranchID: branch.ID})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cash_sessions WHERE register_id = $1`, register.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cash_registers WHERE id = $1`, register.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM branches WHERE id = $1`, branch.ID)
	})

	session, err := s.CreateSession(ctx, domain.CashSession{RegisterID: register.ID, UserID: "u1", UserName: "IT", InitialCash: decimal.NewFromInt(50)})
	require.NoError(t, err)

	_, err = s.CreateSession(ctx, domain.CashSession{RegisterID: register.ID, UserID: "u2", UserName: "IT2"})
	require.ErrorIs(t, err, store.ErrConflict)

	end := time.Now().UTC()
	final := decimal.NewFromInt(80)
	expected := decimal.NewFromInt(75)
	variance := final.Sub(expected)
	closed, err := s.CloseSession(ctx, domain.CashSession{ID: session.ID, EndTime: &end, FinalCash: &final, ExpectedCash: &expected, Variance: &variance})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusClosed, closed.Status)
	require.NotNil(t, closed.Variance)
	assert.True(t, closed.Variance.Equal(decimal.NewFromInt(5)))

	reloaded, err := s.GetRegister(ctx, register.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegisterStatusClosed, reloaded.Status)
}
