package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TenderMode string

const (
	TenderCash TenderMode = "cash"
	TenderUPI  TenderMode = "upi"
)

func (m TenderMode) Valid() bool {
	return m == TenderCash || m == TenderUPI
}

type PaymentType string

const (
	PaymentPaid PaymentType = "PAID"
	PaymentDue  PaymentType = "DUE"
)

type MethodLabel string

const (
	MethodCash  MethodLabel = "CASH"
	MethodUPI   MethodLabel = "UPI"
	MethodMixed MethodLabel = "MIXED"
	MethodDue   MethodLabel = "DUE"
)

type DiscountKind string

const (
	DiscountAmount     DiscountKind = "amount"
	DiscountPercentage DiscountKind = "percentage"
)

// LineKind tags a cart or sale line. Inventory lines are bound to a stocked
// product and move stock; ad hoc lines carry their own name and price and
// never touch inventory.
type LineKind string

const (
	LineInventory LineKind = "inventory"
	LineAdHoc     LineKind = "adhoc"
)

type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	MinStock     int             `json:"min_stock"`
	NonInventory bool            `json:"non_inventory"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type CartItem struct {
	Kind           LineKind        `json:"kind"`
	ProductID      string          `json:"product_id,omitempty"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	Discount       decimal.Decimal `json:"discount"`
	DiscountKind   DiscountKind    `json:"discount_kind"`
	AvailableStock int             `json:"available_stock,omitempty"`
	LineKey        string          `json:"line_key,omitempty"`
}

// NewInventoryItem builds a cart line for a catalog product. Products flagged
// as non-inventory become ad hoc lines that keep their product reference.
func NewInventoryItem(product Product, qty int) CartItem {
	item := CartItem{
		Kind:         LineInventory,
		ProductID:    product.ID,
		Name:         product.Name,
		UnitPrice:    product.Price,
		Quantity:     qty,
		Discount:     decimal.Zero,
		DiscountKind: DiscountAmount,
	}
	if product.NonInventory {
		item.Kind = LineAdHoc
		return item
	}
	item.AvailableStock = product.Stock
	return item
}

func NewAdHocItem(name string, price decimal.Decimal, qty int) CartItem {
	return CartItem{
		Kind:         LineAdHoc,
		Name:         strings.TrimSpace(name),
		UnitPrice:    price,
		Quantity:     qty,
		Discount:     decimal.Zero,
		DiscountKind: DiscountAmount,
	}
}

func (c CartItem) TracksStock() bool {
	return c.Kind == LineInventory
}

// StockLimit reports the maximum quantity the line may hold. The second
// value is false for lines without a stock bound.
func (c CartItem) StockLimit() (int, bool) {
	if !c.TracksStock() {
		return 0, false
	}
	return c.AvailableStock, true
}

// Key identifies the line inside a cart. The cart assigns it when the line
// is added; a line never placed in a cart falls back to its product id.
func (c CartItem) Key() string {
	if c.LineKey != "" {
		return c.LineKey
	}
	return c.ProductID
}

// SamePricing reports whether two lines for one product can share a line
// without changing what either would have been charged.
func (c CartItem) SamePricing(other CartItem) bool {
	return c.ProductID != "" &&
		c.ProductID == other.ProductID &&
		c.UnitPrice.Equal(other.UnitPrice) &&
		c.Discount.Equal(other.Discount) &&
		c.DiscountKind == other.DiscountKind
}

type Totals struct {
	Subtotal      decimal.Decimal   `json:"subtotal"`
	TotalDiscount decimal.Decimal   `json:"total_discount"`
	AfterDiscount decimal.Decimal   `json:"after_discount"`
	TaxRate       decimal.Decimal   `json:"tax_rate"`
	Tax           decimal.Decimal   `json:"tax"`
	CGST          decimal.Decimal   `json:"cgst"`
	SGST          decimal.Decimal   `json:"sgst"`
	GrandTotal    decimal.Decimal   `json:"grand_total"`
	LineTotals    []decimal.Decimal `json:"line_totals"`
}

type Tender struct {
	Mode   TenderMode      `json:"mode" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

type PaymentRequest struct {
	Type     PaymentType `json:"type" validate:"required,oneof=PAID DUE"`
	Tenders  []Tender    `json:"tenders" validate:"dive"`
	Customer string      `json:"customer,omitempty" validate:"max=120"`
}

// PaymentDecision is the reconciled outcome of a payment request. It is
// produced only for valid requests and is not modified afterwards.
type PaymentDecision struct {
	Type          PaymentType     `json:"type"`
	Method        MethodLabel     `json:"method"`
	Tendered      decimal.Decimal `json:"tendered"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	Change        decimal.Decimal `json:"change"`
	Breakdown     []Tender        `json:"breakdown"`
	Customer      string          `json:"customer,omitempty"`
}

func (d PaymentDecision) TenderedBy(mode TenderMode) decimal.Decimal {
	total := decimal.Zero
	for _, t := range d.Breakdown {
		if t.Mode == mode {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// NetCash is the cash that stays in the drawer after change is handed back.
func (d PaymentDecision) NetCash() decimal.Decimal {
	return d.TenderedBy(TenderCash).Sub(d.Change)
}

type SaleLine struct {
	LineID       string          `json:"line_id"`
	Kind         LineKind        `json:"kind"`
	ProductID    string          `json:"product_id,omitempty"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountKind DiscountKind    `json:"discount_kind"`
	NetUnitPrice decimal.Decimal `json:"net_unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

type ReturnRef struct {
	ReturnID  string          `json:"return_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

type Sale struct {
	ID            string          `json:"id"`
	Day           string          `json:"day"`
	Cashier       string          `json:"cashier"`
	Lines         []SaleLine      `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Tax           decimal.Decimal `json:"tax"`
	CGST          decimal.Decimal `json:"cgst"`
	SGST          decimal.Decimal `json:"sgst"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	Method        MethodLabel     `json:"method"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Change        decimal.Decimal `json:"change"`
	Tenders       []Tender        `json:"tenders"`
	Customer      string          `json:"customer,omitempty"`
	Returns       []ReturnRef     `json:"returns"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (s Sale) Line(lineID string) (SaleLine, bool) {
	for _, line := range s.Lines {
		if line.LineID == lineID {
			return line, true
		}
	}
	return SaleLine{}, false
}

type Due struct {
	ID             string          `json:"id"`
	SaleID         string          `json:"sale_id"`
	Day            string          `json:"day"`
	Customer       string          `json:"customer"`
	Total          decimal.Decimal `json:"total"`
	UpfrontPaid    decimal.Decimal `json:"upfront_paid"`
	UpfrontTender  MethodLabel     `json:"upfront_tender,omitempty"`
	UpfrontTenders []Tender        `json:"upfront_tenders"`
	Balance        decimal.Decimal `json:"balance"`
	Settled        bool            `json:"settled"`
	Payments       []DuePayment    `json:"payments"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type DuePayment struct {
	ID        string          `json:"id"`
	DueID     string          `json:"due_id"`
	Day       string          `json:"day"`
	Amount    decimal.Decimal `json:"amount"`
	Mode      TenderMode      `json:"mode"`
	Cashier   string          `json:"cashier"`
	CreatedAt time.Time       `json:"created_at"`
}

type ReturnItem struct {
	LineID      string          `json:"line_id" validate:"required"`
	Kind        LineKind        `json:"kind,omitempty"`
	ProductID   string          `json:"product_id,omitempty"`
	Name        string          `json:"name,omitempty"`
	MaxQuantity int             `json:"max_quantity"`
	Quantity    int             `json:"quantity" validate:"min=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type Return struct {
	ID          string          `json:"id"`
	SaleID      string          `json:"sale_id"`
	Day         string          `json:"day"`
	Reason      string          `json:"reason"`
	Items       []ReturnItem    `json:"items"`
	Refund      decimal.Decimal `json:"refund"`
	Tender      TenderMode      `json:"tender"`
	ProcessedBy string          `json:"processed_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

type RefundTender string

const (
	RefundCash     RefundTender = "cash"
	RefundOriginal RefundTender = "original"
)

// RefundPolicy decides how a return is paid out. The zero value refunds in
// cash and excludes tax.
type RefundPolicy struct {
	Tender     RefundTender `json:"tender"`
	IncludeTax bool         `json:"include_tax"`
}

type DrawerStatus string

const (
	DrawerUninitialized DrawerStatus = "UNINITIALIZED"
	DrawerOpen          DrawerStatus = "OPEN"
)

type DrawerState struct {
	Day         string          `json:"day"`
	Status      DrawerStatus    `json:"status"`
	OpeningCash decimal.Decimal `json:"opening_cash"`
	CurrentCash decimal.Decimal `json:"current_cash"`
	OpenedBy    string          `json:"opened_by,omitempty"`
	OpenedAt    time.Time       `json:"opened_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type TenderTotals struct {
	Day       string          `json:"day"`
	Cash      decimal.Decimal `json:"cash"`
	UPI       decimal.Decimal `json:"upi"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Expense struct {
	ID        string          `json:"id"`
	Day       string          `json:"day"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	Cashier   string          `json:"cashier"`
	CreatedAt time.Time       `json:"created_at"`
}

type CheckoutLine struct {
	ProductID    string          `json:"product_id,omitempty" validate:"omitempty,max=64"`
	Name         string          `json:"name,omitempty" validate:"required_without=ProductID,max=120"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity" validate:"min=1"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountKind DiscountKind    `json:"discount_kind,omitempty" validate:"omitempty,oneof=amount percentage"`
}

type CheckoutRequest struct {
	Lines          []CheckoutLine   `json:"lines" validate:"required,min=1,dive"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent,omitempty"`
	Payment        PaymentRequest   `json:"payment" validate:"required"`
}

type QuoteRequest struct {
	Lines          []CheckoutLine   `json:"lines" validate:"required,min=1,dive"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent,omitempty"`
}

type Quote struct {
	Items  []CartItem `json:"items"`
	Totals Totals     `json:"totals"`
}

type LowStockAlert struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	MinStock  int    `json:"min_stock"`
}

type CheckoutResult struct {
	Sale     Sale            `json:"sale"`
	Due      *Due            `json:"due,omitempty"`
	LowStock []LowStockAlert `json:"low_stock,omitempty"`
}

type CollectionResult struct {
	Due     Due        `json:"due"`
	Payment DuePayment `json:"payment"`
}

type ReturnResult struct {
	Sale   Sale   `json:"sale"`
	Return Return `json:"return"`
}

type OpenDayRequest struct {
	OpeningCash decimal.Decimal `json:"opening_cash"`
}

type CollectRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Mode   TenderMode      `json:"mode" validate:"required,oneof=cash upi"`
}

type SettleRequest struct {
	Mode TenderMode `json:"mode" validate:"required,oneof=cash upi"`
}

type ReturnRequest struct {
	SaleID     string       `json:"sale_id" validate:"required"`
	Items      []ReturnItem `json:"items" validate:"required,min=1,dive"`
	Reason     string       `json:"reason" validate:"max=240"`
	ManagerPIN string       `json:"manager_pin,omitempty"`
}

type ExpenseRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"max=240"`
}

type DaySummary struct {
	Day         string          `json:"day"`
	Status      DrawerStatus    `json:"status"`
	OpeningCash decimal.Decimal `json:"opening_cash"`
	CurrentCash decimal.Decimal `json:"current_cash"`
	CashRevenue decimal.Decimal `json:"cash_revenue"`
	UPIRevenue  decimal.Decimal `json:"upi_revenue"`
	SalesCount  int             `json:"sales_count"`
	SalesTotal  decimal.Decimal `json:"sales_total"`
	Refunds     decimal.Decimal `json:"refunds"`
	Expenses    decimal.Decimal `json:"expenses"`
	Collections decimal.Decimal `json:"collections"`
	Outstanding decimal.Decimal `json:"outstanding"`
	OpenDues    int             `json:"open_dues"`
	GeneratedAt time.Time       `json:"generated_at"`
}

type Reconciliation struct {
	Day             string          `json:"day"`
	StoredCash      decimal.Decimal `json:"stored_cash"`
	ReplayedCash    decimal.Decimal `json:"replayed_cash"`
	StoredCashRev   decimal.Decimal `json:"stored_cash_revenue"`
	ReplayedCashRev decimal.Decimal `json:"replayed_cash_revenue"`
	StoredUPIRev    decimal.Decimal `json:"stored_upi_revenue"`
	ReplayedUPIRev  decimal.Decimal `json:"replayed_upi_revenue"`
	Events          int             `json:"events"`
	Balanced        bool            `json:"balanced"`
}

type Actor struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}
