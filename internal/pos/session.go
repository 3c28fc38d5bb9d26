package pos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"novapos/internal/domain"
	"novapos/internal/store"
)

func (e *Engine) openSession(ctx context.Context, c OpenSession) (Result, error) {
	registerID := strings.TrimSpace(c.RegisterID)
	if registerID == "" {
		return Result{}, fmt.Errorf("%w: register is required", ErrInvalidCommand)
	}
	if c.InitialCash.IsNegative() {
		return Result{}, fmt.Errorf("%w: initial cash must not be negative", ErrInvalidCommand)
	}

	register, err := e.store.GetRegister(ctx, registerID)
	if err != nil {
		return Result{}, err
	}
	if c.User.Branch != "" && !strings.EqualFold(register.BranchName, c.User.Branch) {
		return Result{}, ErrBranchMismatch
	}
	if register.Status == domain.RegisterStatusOpen {
		return Result{}, ErrRegisterOpen
	}

	userName := c.User.Name
	if userName == "" {
		userName = c.User.Username
	}
	session, err := e.store.CreateSession(ctx, domain.CashSession{
		UserID:      c.User.UserID,
		UserName:    userName,
		RegisterID:  register.ID,
		StartTime:   e.opts.Now(),
		InitialCash: c.InitialCash,
		Notes:       strings.TrimSpace(c.Notes),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Result{}, ErrRegisterOpen
		}
		return Result{}, err
	}

	e.logger.Info().Str("session_id", session.ID).Str("register_id", register.ID).Msg("cash session opened")
	return Result{Outcome: OutcomeApplied, Session: session}, nil
}

// closeSession stamps the closing fields. ExpectedCash is the opening float
// plus cash sales recorded since the session started.
func (e *Engine) closeSession(ctx context.Context, c CloseSession) (Result, error) {
	if c.FinalCash.IsNegative() {
		return Result{}, fmt.Errorf("%w: final cash must not be negative", ErrInvalidCommand)
	}

	session, err := e.store.GetSession(ctx, c.SessionID)
	if err != nil {
		return Result{}, err
	}
	if session.Status != domain.SessionStatusOpen {
		return Result{}, ErrSessionClosed
	}

	expected := session.InitialCash.Add(e.cashSalesSince(*session))
	final := c.FinalCash
	variance := final.Sub(expected)
	end := e.opts.Now()

	closed, err := e.store.CloseSession(ctx, domain.CashSession{
		ID:           session.ID,
		EndTime:      &end,
		FinalCash:    &final,
		ExpectedCash: &expected,
		Variance:     &variance,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Result{}, ErrSessionClosed
		}
		return Result{}, err
	}

	e.logger.Info().
		Str("session_id", closed.ID).
		Str("expected", expected.StringFixed(2)).
		Str("variance", variance.StringFixed(2)).
		Msg("cash session closed")
	return Result{Outcome: OutcomeApplied, Session: closed}, nil
}

func (e *Engine) cashSalesSince(session domain.CashSession) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := decimal.Zero
	for _, sale := range e.sales {
		if sale.PaymentMethod != domain.PaymentCash || sale.CreatedAt.Before(session.StartTime) {
			continue
		}
		if sale.BranchName != "" && session.BranchName != "" && !strings.EqualFold(sale.BranchName, session.BranchName) {
			continue
		}
		total = total.Add(sale.Total)
	}
	return total
}

func (e *Engine) openAllRegisters(ctx context.Context) (Result, error) {
	opened, err := e.store.OpenAllRegisters(ctx)
	if err != nil {
		return Result{}, err
	}
	e.logger.Info().Int("registers", opened).Msg("all registers opened")
	return Result{Outcome: OutcomeApplied, Count: opened}, nil
}
