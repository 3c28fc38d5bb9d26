// Package receipt renders sales and Z-reports for printing.
package receipt

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"

	"novapos/internal/domain"
)

const (
	ticketWidth = 32
	rollWidthMM = 80
	marginMM    = 4
)

var methodLabels = map[string]string{
	domain.PaymentCash:     "Cash",
	domain.PaymentCard:     "Card",
	domain.PaymentTransfer: "Transfer",
	domain.PaymentQR:       "QR",
}

func MethodLabel(method string) string {
	if label, ok := methodLabels[method]; ok {
		return label
	}
	return method
}

// Text renders a sale as a fixed-width ticket for a 58mm thermal printer.
func Text(sale domain.Sale, businessName string) string {
	var b strings.Builder
	rule := strings.Repeat("-", ticketWidth) + "\n"

	b.WriteString(center(businessName))
	b.WriteString(rule)
	b.WriteString(row("Sale", sale.ID))
	b.WriteString(row("Date", sale.CreatedAt.Format("2006-01-02 15:04")))
	b.WriteString(row("Customer", sale.CustomerName))
	if sale.BranchName != "" {
		b.WriteString(row("Branch", sale.BranchName))
	}
	b.WriteString(rule)

	for _, item := range sale.Items {
		label := fmt.Sprintf("%d x %s", item.Quantity, item.Name)
		b.WriteString(row(label, item.LineTotal().StringFixed(2)))
	}

	b.WriteString(rule)
	b.WriteString(row("Subtotal", sale.Subtotal.StringFixed(2)))
	b.WriteString(row("Tax", sale.Tax.StringFixed(2)))
	b.WriteString(row("TOTAL", sale.Total.StringFixed(2)))
	b.WriteString(row("Payment", MethodLabel(sale.PaymentMethod)))
	b.WriteString(rule)

	if sale.AIMessage != "" {
		b.WriteString(sale.AIMessage)
		b.WriteString("\n")
	}
	return b.String()
}

// row pads left and right to the ticket width, truncating left when needed.
func row(left, right string) string {
	space := ticketWidth - utf8.RuneCountInString(right) - 1
	if space < 1 {
		return left + " " + right + "\n"
	}
	if utf8.RuneCountInString(left) > space {
		runes := []rune(left)
		left = string(runes[:space-1]) + "."
	}
	pad := ticketWidth - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	return left + strings.Repeat(" ", pad) + right + "\n"
}

func center(text string) string {
	n := utf8.RuneCountInString(text)
	if n >= ticketWidth {
		return text + "\n"
	}
	return strings.Repeat(" ", (ticketWidth-n)/2) + text + "\n"
}

// ZReportPDF writes the Z-report as a single page sized for an 80mm roll.
func ZReportPDF(w io.Writer, report domain.ZReport, businessName string) error {
	height := 70 + float64(len(report.ByMethod))*6
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: rollWidthMM, Ht: height},
	})
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	contentW := float64(rollWidthMM - 2*marginMM)
	labelW := contentW * 0.6
	valueW := contentW - labelW

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, tr(businessName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Z Report", "", 1, "C", false, 0, "")
	generated := report.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	pdf.CellFormat(contentW, 4, generated.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.Line(marginMM, pdf.GetY(), rollWidthMM-marginMM, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 9)
	summary := [][2]string{
		{"Transactions", fmt.Sprintf("%d", report.Transactions)},
		{"Average ticket", report.AverageTicket.StringFixed(2)},
	}
	for _, line := range summary {
		pdf.CellFormat(labelW, 6, line[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, line[1], "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(labelW*0.6, 5, "Method", "B", 0, "L", false, 0, "")
	pdf.CellFormat(labelW*0.4, 5, "Count", "B", 0, "C", false, 0, "")
	pdf.CellFormat(valueW, 5, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, m := range report.ByMethod {
		pdf.CellFormat(labelW*0.6, 6, MethodLabel(m.PaymentMethod), "", 0, "L", false, 0, "")
		pdf.CellFormat(labelW*0.4, 6, fmt.Sprintf("%d", m.Transactions), "", 0, "C", false, 0, "")
		pdf.CellFormat(valueW, 6, m.Total.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(marginMM, pdf.GetY(), rollWidthMM-marginMM, pdf.GetY())
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(labelW, 7, "TOTAL REVENUE", "", 0, "L", false, 0, "")
	pdf.CellFormat(valueW, 7, report.TotalRevenue.StringFixed(2), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("receipt: render z report: %w", err)
	}
	return nil
}
