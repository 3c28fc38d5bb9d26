package pos

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"novapos/internal/domain"
)

// Aggregate computes Z-report totals over sales. GeneratedAt is left zero.
func Aggregate(sales []domain.Sale) domain.ZReport {
	byMethod := make(map[string]*domain.PaymentSummary, len(domain.PaymentMethods))
	rows := make([]domain.PaymentSummary, len(domain.PaymentMethods))
	for i, method := range domain.PaymentMethods {
		rows[i] = domain.PaymentSummary{PaymentMethod: method, Total: decimal.Zero}
		byMethod[method] = &rows[i]
	}

	revenue := decimal.Zero
	for _, sale := range sales {
		revenue = revenue.Add(sale.Total)
		if row, ok := byMethod[sale.PaymentMethod]; ok {
			row.Transactions++
			row.Total = row.Total.Add(sale.Total)
		}
	}

	average := decimal.Zero
	if len(sales) > 0 {
		average = revenue.Div(decimal.NewFromInt(int64(len(sales))))
	}

	return domain.ZReport{
		TotalRevenue:  revenue,
		Transactions:  len(sales),
		AverageTicket: average,
		ByMethod:      rows,
	}
}

// FilterSales keeps sales whose customer name or id contains query,
// ignoring case. An empty query keeps everything.
func FilterSales(sales []domain.Sale, query string) []domain.Sale {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Sale, 0, len(sales))
	for _, sale := range sales {
		if query == "" ||
			strings.Contains(strings.ToLower(sale.CustomerName), query) ||
			strings.Contains(strings.ToLower(sale.ID), query) {
			out = append(out, cloneSale(sale))
		}
	}
	return out
}

// Sales returns the history, newest first.
func (e *Engine) Sales() []domain.Sale {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Sale, len(e.sales))
	for i, sale := range e.sales {
		out[i] = cloneSale(sale)
	}
	return out
}

func (e *Engine) Sale(id string) (domain.Sale, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, sale := range e.sales {
		if sale.ID == id {
			return cloneSale(sale), true
		}
	}
	return domain.Sale{}, false
}

func (e *Engine) ZReport() domain.ZReport {
	report := Aggregate(e.Sales())
	report.GeneratedAt = e.opts.Now()
	return report
}

// deleteSale voids one sale. Stock is not restored.
func (e *Engine) deleteSale(c DeleteSale) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := slices.IndexFunc(e.sales, func(s domain.Sale) bool { return s.ID == c.SaleID })
	if i < 0 {
		return Result{Outcome: OutcomeNotFound}, nil
	}
	e.sales = slices.Delete(e.sales, i, i+1)
	delete(e.saleIDs, c.SaleID)
	e.logger.Info().Str("sale_id", c.SaleID).Msg("sale voided")
	return Result{Outcome: OutcomeApplied}, nil
}

func (e *Engine) closeDay() (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := Aggregate(e.sales)
	report.GeneratedAt = e.opts.Now()
	removed := len(e.sales)
	e.sales = nil
	clear(e.saleIDs)
	e.logger.Info().Int("sales", removed).Str("revenue", report.TotalRevenue.StringFixed(2)).Msg("day closed")
	return Result{Outcome: OutcomeApplied, Count: removed, Report: &report}, nil
}
