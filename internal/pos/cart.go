package pos

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"novapos/internal/domain"
)

// ComputeTotals derives subtotal, tax and total from lines without rounding.
func ComputeTotals(lines []domain.CartLine, rate decimal.Decimal) domain.Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	tax := subtotal.Mul(rate)
	return domain.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Cart returns a snapshot of the cart with freshly derived totals.
func (e *Engine) Cart() domain.CartView {
	e.mu.Lock()
	defer e.mu.Unlock()

	lines := slices.Clone(e.lines)
	if lines == nil {
		lines = []domain.CartLine{}
	}
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}

	view := domain.CartView{
		Lines:           lines,
		ItemCount:       count,
		Totals:          ComputeTotals(lines, e.taxRate),
		TaxRate:         e.taxRate.String(),
		Analyzing:       e.analyzing > 0,
		CheckoutPending: e.pending,
	}
	if e.suggestion != nil {
		s := *e.suggestion
		view.Suggestion = &s
	}
	return view
}

func (e *Engine) lineIndex(productID string) int {
	return slices.IndexFunc(e.lines, func(l domain.CartLine) bool { return l.ProductID == productID })
}

func (e *Engine) addItem(c AddItem) (Result, error) {
	p := c.Product
	if strings.TrimSpace(p.ID) == "" || !p.IsActive() {
		return Result{Outcome: OutcomeIgnored}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending {
		return Result{}, ErrCheckoutPending
	}
	if i := e.lineIndex(p.ID); i >= 0 {
		e.lines[i].Quantity++
	} else {
		e.lines = append(e.lines, domain.CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Category:  p.Category,
			Image:     p.Image,
			Quantity:  1,
		})
	}
	e.revision++
	e.suggestion = nil
	return Result{Outcome: OutcomeApplied}, nil
}

// updateQuantity applies qty+delta only when the result stays positive.
// Use RemoveItem to drop a line.
func (e *Engine) updateQuantity(c UpdateQuantity) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending {
		return Result{}, ErrCheckoutPending
	}
	i := e.lineIndex(c.ProductID)
	if i < 0 {
		return Result{Outcome: OutcomeNotFound}, nil
	}
	next := e.lines[i].Quantity + c.Delta
	if c.Delta == 0 || next <= 0 {
		return Result{Outcome: OutcomeIgnored}, nil
	}
	e.lines[i].Quantity = next
	e.revision++
	return Result{Outcome: OutcomeApplied}, nil
}

func (e *Engine) removeItem(c RemoveItem) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending {
		return Result{}, ErrCheckoutPending
	}
	i := e.lineIndex(c.ProductID)
	if i < 0 {
		return Result{Outcome: OutcomeNotFound}, nil
	}
	e.lines = slices.Delete(e.lines, i, i+1)
	e.revision++
	return Result{Outcome: OutcomeApplied}, nil
}

func (e *Engine) clearCart() (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending {
		return Result{}, ErrCheckoutPending
	}
	e.lines = nil
	e.suggestion = nil
	e.revision++
	return Result{Outcome: OutcomeApplied}, nil
}

// Analyze asks the advisor for a suggestion on the current cart. The result
// is cached for checkout only if the cart did not change in the meantime
// and the advisor did not fall back.
func (e *Engine) Analyze(ctx context.Context, customer string) (domain.Suggestion, error) {
	e.mu.Lock()
	if len(e.lines) == 0 {
		e.mu.Unlock()
		return domain.Suggestion{}, ErrEmptyCart
	}
	lines := slices.Clone(e.lines)
	revision := e.revision
	e.analyzing++
	e.mu.Unlock()

	catalog, err := e.store.ListProducts(ctx, false)
	if err != nil {
		e.logger.Warn().Err(err).Msg("catalog unavailable for suggestion")
		catalog = nil
	}

	suggestion := e.advisor.Suggest(ctx, domain.SuggestionRequest{
		CustomerName: domain.CustomerOrDefault(customer),
		Lines:        lines,
		Catalog:      catalog,
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	e.analyzing--
	if revision == e.revision && suggestion.Source != domain.SuggestionSourceFallback {
		s := suggestion
		e.suggestion = &s
	} else if revision != e.revision {
		e.logger.Debug().Uint64("revision", revision).Uint64("current", e.revision).Msg("discarding stale suggestion")
	}
	return suggestion, nil
}
