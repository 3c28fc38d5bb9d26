package pos

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novapos/internal/domain"
)

var cashier = domain.Actor{UserID: "user-cashier", Username: "cashier", Name: "Carlos", Role: domain.RoleCashier, Branch: "Central"}

func TestCheckoutRecordsSaleAndClearsCart(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{})
	fillScenarioCart(t, e, s)

	sale, err := e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "cash", CustomerName: "Ana"}, cashier)
	require.NoError(t, err)

	requireDecimal(t, "12.00", sale.Subtotal)
	requireDecimal(t, "1.92", sale.Tax)
	requireDecimal(t, "13.92", sale.Total)
	assert.Equal(t, domain.PaymentCash, sale.PaymentMethod)
	assert.Equal(t, "Ana", sale.CustomerName)
	assert.Equal(t, "user-cashier", sale.CashierID)
	assert.Equal(t, "Central", sale.BranchName)
	assert.NotEmpty(t, sale.ID)

	cart := e.Cart()
	assert.Empty(t, cart.Lines)
	assert.False(t, cart.CheckoutPending)

	history := e.Sales()
	require.Len(t, history, 1)
	assert.Equal(t, sale.ID, history[0].ID)
}

func TestSaleTotalsAreConsistent(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{})
	fillScenarioCart(t, e, s)
	mustDispatch(t, e, AddItem{Product: product(t, s, "9")})

	sale, err := e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "card"}, domain.Actor{})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, item := range sale.Items {
		sum = sum.Add(item.LineTotal())
	}
	assert.True(t, sum.Equal(sale.Subtotal))
	assert.True(t, sale.Subtotal.Add(sale.Tax).Equal(sale.Total))
}

func TestSaleItemsAreFrozen(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{})
	fillScenarioCart(t, e, s)

	sale, err := e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "cash"}, domain.Actor{})
	require.NoError(t, err)
	sale.Items[0].Quantity = 99

	mustDispatch(t, e, AddItem{Product: product(t, s, "1")})
	stored, ok := e.Sale(sale.ID)
	require.True(t, ok)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.Len(t, stored.Items, 2)
}

func TestCheckoutUsesCachedNoteOrFallback(t *testing.T) {
	advisor := &stubAdvisor{suggestion: domain.Suggestion{UpsellSuggestion: "Add a muffin", ThankYouNote: "Enjoy the coffee, Ana!", Source: domain.SuggestionSourceGemini}}
	e, s := newTestEngine(t, advisor, Options{})

	fillScenarioCart(t, e, s)
	_, err := e.Analyze(context.Background(), "Ana")
	require.NoError(t, err)
	withNote, err := e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "card", CustomerName: "Ana"}, domain.Actor{})
	require.NoError(t, err)
	assert.Equal(t, "Enjoy the coffee, Ana!", withNote.AIMessage)
	assert.Equal(t, "Add a muffin", withNote.UpsellSuggestion)
	assert.Nil(t, e.Cart().Suggestion)

	fillScenarioCart(t, e, s)
	plain, err := e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "card", CustomerName: "Ana"}, domain.Actor{})
	require.NoError(t, err)
	assert.Equal(t, "Thank you for your purchase, Ana!", plain.AIMessage)
	assert.Empty(t, plain.UpsellSuggestion)
}

func TestCheckoutDefaultsCustomerName(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{})
	fillScenarioCart(t, e, s)

	sale, err := e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "transfer", CustomerName: "   "}, domain.Actor{})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCustomerName, sale.CustomerName)
	assert.Equal(t, "Thank you for your purchase, Walk-in Customer!", sale.AIMessage)
}

func TestCheckoutRejectsEmptyCartAndUnknownMethod(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{})

	_, err := e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "cash"}, domain.Actor{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	fillScenarioCart(t, e, s)
	_, err = e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "bitcoin"}, domain.Actor{})
	assert.ErrorIs(t, err, ErrInvalidPayment)
	assert.Len(t, e.Cart().Lines, 2)
	assert.False(t, e.Cart().CheckoutPending)
}

func TestCheckoutRejectsQRWithoutApprovalFlow(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{})
	fillScenarioCart(t, e, s)

	_, err := e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: " QR "}, cashier)
	require.ErrorIs(t, err, ErrInvalidPayment)

	assert.Empty(t, e.Sales())
	assert.Nil(t, e.ActiveQR())
	cart := e.Cart()
	assert.Len(t, cart.Lines, 2)
	assert.False(t, cart.CheckoutPending)
}

func TestCheckoutIsAtMostOnceWhilePending(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{CheckoutDelay: 100 * time.Millisecond})
	fillScenarioCart(t, e, s)

	var (
		wg    sync.WaitGroup
		first error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, first = e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "cash"}, domain.Actor{})
	}()

	require.Eventually(t, func() bool { return e.Cart().CheckoutPending }, time.Second, time.Millisecond)

	_, err := e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "cash"}, domain.Actor{})
	assert.ErrorIs(t, err, ErrCheckoutPending)
	_, err = e.StartQRPayment(context.Background(), domain.CheckoutRequest{}, domain.Actor{})
	assert.ErrorIs(t, err, ErrCheckoutPending)
	_, err = e.Dispatch(context.Background(), AddItem{Product: product(t, s, "2")})
	assert.ErrorIs(t, err, ErrCheckoutPending)
	_, err = e.Dispatch(context.Background(), ClearCart{})
	assert.ErrorIs(t, err, ErrCheckoutPending)

	wg.Wait()
	require.NoError(t, first)
	assert.Len(t, e.Sales(), 1)
}

func TestCheckoutCancelledDuringDelayHasNoEffect(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{CheckoutDelay: time.Hour})
	fillScenarioCart(t, e, s)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := e.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash"}, domain.Actor{})
	require.ErrorIs(t, err, context.Canceled)

	cart := e.Cart()
	assert.Len(t, cart.Lines, 2)
	assert.False(t, cart.CheckoutPending)
	assert.Empty(t, e.Sales())
	assert.Equal(t, 120, *product(t, s, "1").Stock)
}

func TestCheckoutDecrementsStockWithFloor(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{})
	one := 1
	tart := product(t, s, "13")
	tart.Stock = &one
	_, err := s.SaveProduct(context.Background(), tart)
	require.NoError(t, err)

	mustDispatch(t, e, AddItem{Product: tart})
	mustDispatch(t, e, AddItem{Product: tart})
	mustDispatch(t, e, AddItem{Product: product(t, s, "3")})

	_, err = e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "cash"}, domain.Actor{})
	require.NoError(t, err)

	assert.Equal(t, 0, *product(t, s, "13").Stock)
	assert.Nil(t, product(t, s, "3").Stock)
}

func TestCheckoutStockFailureLeavesStateUntouched(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{})
	fillScenarioCart(t, e, s)
	e.store = failingStockStore{Store: s}

	_, err := e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "cash"}, domain.Actor{})
	require.True(t, errors.Is(err, errStockWrite))

	cart := e.Cart()
	assert.Len(t, cart.Lines, 2)
	assert.False(t, cart.CheckoutPending)
	assert.Empty(t, e.Sales())
}

func TestSaleIDsStayUniqueInHistory(t *testing.T) {
	ids := []string{"sale-a", "sale-a", "sale-b"}
	var mu sync.Mutex
	next := func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		ids = ids[1:]
		return id
	}
	e, s := newTestEngine(t, nil, Options{NewID: next})

	fillScenarioCart(t, e, s)
	first, err := e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "cash"}, domain.Actor{})
	require.NoError(t, err)
	fillScenarioCart(t, e, s)
	second, err := e.Checkout(context.Background(), domain.CheckoutRequest{PaymentMethod: "cash"}, domain.Actor{})
	require.NoError(t, err)

	assert.Equal(t, "sale-a", first.ID)
	assert.Equal(t, "sale-b", second.ID)
	history := e.Sales()
	assert.Equal(t, "sale-b", history[0].ID, "history is newest first")
}
