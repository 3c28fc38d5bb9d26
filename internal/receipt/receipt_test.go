package receipt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novapos/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleSale() domain.Sale {
	return domain.Sale{
		ID:        "sale-0a1b2c3d4e5f",
		CreatedAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		Items: []domain.CartLine{
			{ProductID: "1", Name: "Artisan Cappuccino", Price: dec("4.50"), Quantity: 2},
			{ProductID: "5", Name: "Butter Croissant", Price: dec("3.00"), Quantity: 1},
		},
		Subtotal:      dec("12"),
		Tax:           dec("1.92"),
		Total:         dec("13.92"),
		PaymentMethod: domain.PaymentCash,
		CustomerName:  "Ana",
		AIMessage:     "Thank you for your purchase, Ana!",
	}
}

func TestTextTicket(t *testing.T) {
	ticket := Text(sampleSale(), "NovaPOS Café")

	lines := strings.Split(strings.TrimRight(ticket, "\n"), "\n")
	assert.Contains(t, ticket, "NovaPOS Café")
	assert.Contains(t, ticket, "2 x Artisan Cappuccino")
	assert.Contains(t, ticket, "9.00")
	assert.Contains(t, ticket, "Payment                     Cash")
	assert.Equal(t, "Thank you for your purchase, Ana!", lines[len(lines)-1])

	for _, line := range lines {
		if strings.HasPrefix(line, "TOTAL") {
			assert.Equal(t, "TOTAL                      13.92", line)
		}
	}
}

func TestRowTruncatesLongLabels(t *testing.T) {
	got := row("3 x Extremely Long Seasonal Pumpkin Spice Latte", "12.00")
	assert.Equal(t, ticketWidth+1, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, " 12.00\n"))
}

func TestZReportPDF(t *testing.T) {
	report := domain.ZReport{
		TotalRevenue:  dec("27.84"),
		Transactions:  2,
		AverageTicket: dec("13.92"),
		ByMethod: []domain.PaymentSummary{
			{PaymentMethod: domain.PaymentCash, Transactions: 1, Total: dec("13.92")},
			{PaymentMethod: domain.PaymentCard, Total: decimal.Zero},
			{PaymentMethod: domain.PaymentTransfer, Total: decimal.Zero},
			{PaymentMethod: domain.PaymentQR, Transactions: 1, Total: dec("13.92")},
		},
		GeneratedAt: time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, ZReportPDF(&buf, report, "NovaPOS Café"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestMethodLabel(t *testing.T) {
	assert.Equal(t, "Transfer", MethodLabel(domain.PaymentTransfer))
	assert.Equal(t, "voucher", MethodLabel("voucher"))
}
