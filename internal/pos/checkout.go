package pos

import (
	"context"
	"slices"
	"strings"

	"novapos/internal/domain"
)

// directPaymentMethod reports whether method can settle through Checkout.
// QR sales only come from an approved QRPayment.
func directPaymentMethod(method string) bool {
	return method != domain.PaymentQR && slices.Contains(domain.PaymentMethods, method)
}

// beginCheckout claims the pending flag. It fails when the cart is empty or
// another checkout already holds it.
func (e *Engine) beginCheckout() (domain.Totals, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending {
		return domain.Totals{}, ErrCheckoutPending
	}
	if len(e.lines) == 0 {
		return domain.Totals{}, ErrEmptyCart
	}
	e.pending = true
	return ComputeTotals(e.lines, e.taxRate), nil
}

func (e *Engine) abortCheckout() {
	e.mu.Lock()
	e.pending = false
	e.mu.Unlock()
}

// Checkout finalizes the cart into a sale after the simulated payment delay.
// Cancelling ctx during the delay aborts with no side effects.
func (e *Engine) Checkout(ctx context.Context, req domain.CheckoutRequest, actor domain.Actor) (domain.Sale, error) {
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if !directPaymentMethod(method) {
		return domain.Sale{}, ErrInvalidPayment
	}
	req.PaymentMethod = method

	if _, err := e.beginCheckout(); err != nil {
		return domain.Sale{}, err
	}

	if err := sleep(ctx, e.opts.CheckoutDelay); err != nil {
		e.abortCheckout()
		e.logger.Info().Err(err).Msg("checkout aborted during payment delay")
		return domain.Sale{}, err
	}

	return e.commit(context.WithoutCancel(ctx), req, actor)
}

// commit turns the pending cart into a sale. Stock is written first; when
// that fails the cart, history and cached suggestion are left untouched.
func (e *Engine) commit(ctx context.Context, req domain.CheckoutRequest, actor domain.Actor) (domain.Sale, error) {
	e.mu.Lock()
	lines := slices.Clone(e.lines)
	var cached *domain.Suggestion
	if e.suggestion != nil {
		s := *e.suggestion
		cached = &s
	}
	e.mu.Unlock()

	adjustments := make([]domain.StockAdjustment, 0, len(lines))
	for _, line := range lines {
		adjustments = append(adjustments, domain.StockAdjustment{ProductID: line.ProductID, Qty: line.Quantity})
	}
	if err := e.store.DecrementStock(ctx, adjustments); err != nil {
		e.abortCheckout()
		e.logger.Error().Err(err).Msg("stock update failed, sale not recorded")
		return domain.Sale{}, err
	}

	customer := domain.CustomerOrDefault(req.CustomerName)
	totals := ComputeTotals(lines, e.taxRate)
	sale := domain.Sale{
		CreatedAt:     e.opts.Now(),
		Items:         lines,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Total:         totals.Total,
		PaymentMethod: req.PaymentMethod,
		CustomerName:  customer,
		ClientID:      strings.TrimSpace(req.ClientID),
		AIMessage:     domain.FallbackThankYouNote(customer),
		CashierID:     actor.UserID,
		BranchName:    actor.Branch,
	}
	if cached != nil && strings.TrimSpace(cached.ThankYouNote) != "" {
		sale.AIMessage = cached.ThankYouNote
		sale.UpsellSuggestion = cached.UpsellSuggestion
	}

	e.mu.Lock()
	sale.ID = e.uniqueSaleID()
	e.saleIDs[sale.ID] = struct{}{}
	e.sales = slices.Insert(e.sales, 0, sale)
	e.lines = nil
	e.suggestion = nil
	e.revision++
	e.pending = false
	e.mu.Unlock()

	e.logger.Info().
		Str("sale_id", sale.ID).
		Str("method", sale.PaymentMethod).
		Str("total", sale.Total.StringFixed(2)).
		Int("lines", len(sale.Items)).
		Msg("sale recorded")
	return cloneSale(sale), nil
}

// uniqueSaleID must be called with e.mu held.
func (e *Engine) uniqueSaleID() string {
	for {
		id := e.opts.NewID()
		if _, taken := e.saleIDs[id]; !taken && id != "" {
			return id
		}
	}
}

func cloneSale(s domain.Sale) domain.Sale {
	s.Items = slices.Clone(s.Items)
	return s
}
