// Package receipt renders sale, collection and return slips as plain text
// and as an ESC/POS byte stream for 58/80mm thermal printers.
package receipt

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
)

const width = 32

var (
	escInit       = []byte{0x1b, 0x40}
	escCut        = []byte{0x1d, 0x56, 0x41, 0x10}
	escDrawerKick = []byte{0x1b, 0x70, 0x00, 0x19, 0xfa}
)

type Receipt struct {
	Ref          string `json:"ref"`
	PreviewText  string `json:"preview_text"`
	EscposBase64 string `json:"escpos_base64"`
	FileName     string `json:"file_name"`

	payload []byte
}

// Payload is the raw ESC/POS stream sent to the printer.
func (r Receipt) Payload() []byte {
	return r.payload
}

type Builder struct {
	ShopName string
	Footer   string
}

func NewBuilder(shopName string) Builder {
	if strings.TrimSpace(shopName) == "" {
		shopName = "Galla POS"
	}
	return Builder{ShopName: shopName, Footer: "Thank you, visit again"}
}

func (b Builder) Sale(sale domain.Sale) Receipt {
	lines := b.header("Bill: "+sale.ID, sale.Cashier, sale.CreatedAt.Format("2006-01-02 15:04"))
	for _, line := range sale.Lines {
		lines = append(lines, fmt.Sprintf("%s x%d", truncate(line.Name, width-6), line.Quantity))
		lines = append(lines, row("  @"+money(line.UnitPrice), money(line.LineTotal)))
	}
	lines = append(lines,
		rule('-'),
		row("Subtotal", money(sale.Subtotal)),
		row("Discount", money(sale.TotalDiscount)),
		row("CGST", money(sale.CGST)),
		row("SGST", money(sale.SGST)),
		row("TOTAL", money(sale.GrandTotal)),
		rule('-'),
	)
	for _, t := range sale.Tenders {
		lines = append(lines, row("Paid "+strings.ToUpper(string(t.Mode)), money(t.Amount)))
	}
	if sale.Change.IsPositive() {
		lines = append(lines, row("Change", money(sale.Change)))
	}
	if sale.Method == domain.MethodDue {
		lines = append(lines,
			row("On credit", money(decimal.Max(decimal.Zero, sale.GrandTotal.Sub(sale.AmountPaid)))),
			"Customer: "+truncate(sale.Customer, width-10),
		)
	}
	return b.finish(sale.ID, lines, tookCash(sale.Tenders))
}

func (b Builder) Collection(due domain.Due, payment domain.DuePayment) Receipt {
	lines := b.header("Due: "+due.ID, payment.Cashier, payment.CreatedAt.Format("2006-01-02 15:04"))
	lines = append(lines,
		"Customer: "+truncate(due.Customer, width-10),
		"Bill: "+due.SaleID,
		rule('-'),
		row("Received "+strings.ToUpper(string(payment.Mode)), money(payment.Amount)),
		row("Balance", money(due.Balance)),
	)
	if due.Settled {
		lines = append(lines, "** SETTLED **")
	}
	return b.finish(payment.ID, lines, payment.Mode == domain.TenderCash)
}

func (b Builder) Return(ret domain.Return) Receipt {
	lines := b.header("Return: "+ret.ID, ret.ProcessedBy, ret.CreatedAt.Format("2006-01-02 15:04"))
	lines = append(lines, "Bill: "+ret.SaleID)
	for _, item := range ret.Items {
		if item.Quantity <= 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s x%d", truncate(item.Name, width-6), item.Quantity))
	}
	lines = append(lines,
		rule('-'),
		row("Refund "+strings.ToUpper(string(ret.Tender)), money(ret.Refund)),
	)
	if ret.Reason != "" {
		lines = append(lines, "Reason: "+truncate(ret.Reason, width-8))
	}
	return b.finish(ret.ID, lines, ret.Tender == domain.TenderCash)
}

func (b Builder) header(title string, cashier string, at string) []string {
	return []string{
		center(b.ShopName),
		rule('='),
		title,
		"Cashier: " + cashier,
		"Date: " + at,
		rule('-'),
	}
}

func (b Builder) finish(ref string, lines []string, kick bool) Receipt {
	lines = append(lines, rule('='), center(b.Footer), "")

	payload := append([]byte{}, escInit...)
	if kick {
		payload = append(payload, escDrawerKick...)
	}
	for _, line := range lines {
		payload = append(payload, []byte(line)...)
		payload = append(payload, '\n')
	}
	payload = append(payload, escCut...)

	return Receipt{
		Ref:          ref,
		PreviewText:  strings.Join(lines, "\n"),
		EscposBase64: base64.StdEncoding.EncodeToString(payload),
		FileName:     fmt.Sprintf("receipt-%s.bin", ref),
		payload:      payload,
	}
}

func tookCash(tenders []domain.Tender) bool {
	for _, t := range tenders {
		if t.Mode == domain.TenderCash && t.Amount.IsPositive() {
			return true
		}
	}
	return false
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func rule(ch byte) string {
	return strings.Repeat(string(ch), width)
}

func row(label string, value string) string {
	gap := width - len(label) - len(value)
	if gap < 1 {
		label = truncate(label, width-len(value)-1)
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + value
}

func center(s string) string {
	s = truncate(s, width)
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func truncate(s string, n int) string {
	if n < 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
