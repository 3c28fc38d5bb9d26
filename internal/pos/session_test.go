package pos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novapos/internal/domain"
	"novapos/internal/store"
)

func TestOpenSessionMarksRegisterOpen(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{})

	res := mustDispatch(t, e, OpenSession{RegisterID: "register-1", User: cashier, InitialCash: dec("100")})
	require.NotNil(t, res.Session)
	assert.Equal(t, domain.SessionStatusOpen, res.Session.Status)
	assert.Equal(t, "Carlos", res.Session.UserName)
	assert.Equal(t, "Central", res.Session.BranchName)

	register, err := s.GetRegister(context.Background(), "register-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RegisterStatusOpen, register.Status)

	_, err = e.Dispatch(context.Background(), OpenSession{RegisterID: "register-1", User: cashier, InitialCash: dec("50")})
	assert.ErrorIs(t, err, ErrRegisterOpen)
}

func TestOpenSessionValidation(t *testing.T) {
	e, _ := newTestEngine(t, nil, Options{})
	ctx := context.Background()

	_, err := e.Dispatch(ctx, OpenSession{RegisterID: " ", User: cashier})
	assert.ErrorIs(t, err, ErrInvalidCommand)

	_, err = e.Dispatch(ctx, OpenSession{RegisterID: "register-1", User: cashier, InitialCash: dec("-1")})
	assert.ErrorIs(t, err, ErrInvalidCommand)

	_, err = e.Dispatch(ctx, OpenSession{RegisterID: "register-404", User: cashier})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = e.Dispatch(ctx, OpenSession{RegisterID: "register-3", User: cashier})
	assert.ErrorIs(t, err, ErrBranchMismatch)

	admin := domain.Actor{UserID: "user-admin", Username: "admin", Role: domain.RoleAdmin}
	res, err := e.Dispatch(ctx, OpenSession{RegisterID: "register-3", User: admin})
	require.NoError(t, err)
	assert.Equal(t, "admin", res.Session.UserName)
}

func TestCloseSessionComputesExpectedCashAndVariance(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{})
	ctx := context.Background()

	opened := mustDispatch(t, e, OpenSession{RegisterID: "register-1", User: cashier, InitialCash: dec("100")})

	fillScenarioCart(t, e, s)
	_, err := e.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "cash"}, cashier)
	require.NoError(t, err)
	fillScenarioCart(t, e, s)
	_, err = e.Checkout(ctx, domain.CheckoutRequest{PaymentMethod: "card"}, cashier)
	require.NoError(t, err)

	res := mustDispatch(t, e, CloseSession{SessionID: opened.Session.ID, FinalCash: dec("110")})
	closed := res.Session
	require.NotNil(t, closed)
	assert.Equal(t, domain.SessionStatusClosed, closed.Status)
	require.NotNil(t, closed.EndTime)
	require.NotNil(t, closed.ExpectedCash)
	require.NotNil(t, closed.Variance)
	requireDecimal(t, "113.92", *closed.ExpectedCash)
	requireDecimal(t, "110", *closed.FinalCash)
	requireDecimal(t, "-3.92", *closed.Variance)

	register, err := s.GetRegister(ctx, "register-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RegisterStatusClosed, register.Status)

	_, err = e.Dispatch(ctx, CloseSession{SessionID: opened.Session.ID, FinalCash: dec("110")})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestCloseSessionErrors(t *testing.T) {
	e, _ := newTestEngine(t, nil, Options{})
	ctx := context.Background()

	_, err := e.Dispatch(ctx, CloseSession{SessionID: "session-404", FinalCash: dec("1")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = e.Dispatch(ctx, CloseSession{SessionID: "session-404", FinalCash: dec("-1")})
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestOpenAllRegistersCanBeClosedAgain(t *testing.T) {
	e, s := newTestEngine(t, nil, Options{})
	ctx := context.Background()

	res := mustDispatch(t, e, OpenAllRegisters{})
	assert.Equal(t, 3, res.Count)

	res = mustDispatch(t, e, OpenAllRegisters{})
	assert.Equal(t, 0, res.Count)

	_, err := e.Dispatch(ctx, OpenSession{RegisterID: "register-2", User: cashier})
	assert.ErrorIs(t, err, ErrRegisterOpen)

	register, err := s.GetRegister(ctx, "register-2")
	require.NoError(t, err)
	register.Status = domain.RegisterStatusClosed
	saved, err := s.SaveRegister(ctx, *register)
	require.NoError(t, err)
	assert.Equal(t, domain.RegisterStatusClosed, saved.Status)

	opened := mustDispatch(t, e, OpenSession{RegisterID: "register-2", User: cashier, InitialCash: dec("50")})
	require.NotNil(t, opened.Session)

	closed := mustDispatch(t, e, CloseSession{SessionID: opened.Session.ID, FinalCash: dec("50")})
	assert.Equal(t, domain.SessionStatusClosed, closed.Session.Status)

	register, err = s.GetRegister(ctx, "register-2")
	require.NoError(t, err)
	assert.Equal(t, domain.RegisterStatusClosed, register.Status)
}
