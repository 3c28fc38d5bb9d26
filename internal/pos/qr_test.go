package pos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novapos/internal/domain"
)

func TestQRPaymentCommitsOnApproval(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{
		QRGenerating: time.Millisecond,
		QRWaiting:    time.Millisecond,
		QRApproval:   time.Millisecond,
	})
	fillScenarioCart(t, e, s)

	qr, err := e.StartQRPayment(context.Background(), domain.CheckoutRequest{CustomerName: "Ana"}, cashier)
	require.NoError(t, err)
	assert.Equal(t, "NOVAPOS_QR_FIXED_AMOUNT_13.92", qr.Payload())
	assert.Same(t, qr, e.ActiveQR())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sale, err := qr.Result(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentQR, sale.PaymentMethod)
	requireDecimal(t, "13.92", sale.Total)
	assert.Equal(t, QRCompleted, qr.Status().Phase)
	assert.Equal(t, sale.ID, qr.Status().SaleID)
	assert.Empty(t, e.Cart().Lines)
	assert.Len(t, e.Sales(), 1)
}

func TestQRPaymentCancelBeforeApprovalLeavesCart(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{
		QRGenerating: time.Millisecond,
		QRWaiting:    time.Hour,
	})
	fillScenarioCart(t, e, s)

	qr, err := e.StartQRPayment(context.Background(), domain.CheckoutRequest{}, domain.Actor{})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return qr.Status().Phase == QRWaiting }, time.Second, time.Millisecond)
	assert.True(t, e.Cart().CheckoutPending)

	qr.Cancel()
	qr.Cancel()

	select {
	case <-qr.Done():
	default:
		t.Fatal("expected flow to be finished after cancel")
	}
	assert.Equal(t, QRCancelled, qr.Status().Phase)
	_, err = qr.Result(context.Background())
	assert.ErrorIs(t, err, ErrQRCancelled)

	cart := e.Cart()
	assert.Len(t, cart.Lines, 2)
	assert.False(t, cart.CheckoutPending)
	assert.Empty(t, e.Sales())
	assert.Equal(t, 120, *product(t, s, "1").Stock)
}

func TestQRPaymentSurvivesCallerContext(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{QRWaiting: 20 * time.Millisecond})
	fillScenarioCart(t, e, s)

	ctx, cancel := context.WithCancel(context.Background())
	qr, err := e.StartQRPayment(ctx, domain.CheckoutRequest{}, domain.Actor{})
	require.NoError(t, err)
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	_, err = qr.Result(waitCtx)
	require.NoError(t, err)
	assert.Len(t, e.Sales(), 1)
}

func TestQRPaymentRequiresItems(t *testing.T) {
	e, _ := newTestEngine(t, nil, Options{})
	_, err := e.StartQRPayment(context.Background(), domain.CheckoutRequest{}, domain.Actor{})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, e.ActiveQR())
}
