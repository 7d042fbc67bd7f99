package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
)

// Cart is an editable list of lines owned by a single terminal. It is not
// safe for concurrent use.
type Cart struct {
	items []domain.CartItem
	seq   int
}

func NewCart() *Cart {
	return &Cart{}
}

func (c *Cart) indexOf(key string) int {
	for i, item := range c.items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

// productQuantity sums the quantity of every line for productID except the
// line at skip.
func (c *Cart) productQuantity(productID string, skip int) int {
	total := 0
	for i, item := range c.items {
		if i != skip && item.ProductID == productID {
			total += item.Quantity
		}
	}
	return total
}

// checkStock bounds the product's total quantity across the cart when the
// line at idx holds qty.
func (c *Cart) checkStock(item domain.CartItem, idx int, qty int) error {
	limit, bounded := item.StockLimit()
	if !bounded {
		return nil
	}
	if total := c.productQuantity(item.ProductID, idx) + qty; total > limit {
		return fmt.Errorf("%w: %s has %d in stock, requested %d", domain.ErrInsufficientStock, item.Name, limit, total)
	}
	return nil
}

func (c *Cart) nextKey(item domain.CartItem) string {
	c.seq++
	if item.ProductID == "" {
		return fmt.Sprintf("adhoc:%d", c.seq)
	}
	if c.indexOf(item.ProductID) < 0 {
		return item.ProductID
	}
	return fmt.Sprintf("%s#%d", item.ProductID, c.seq)
}

// Add appends a line. A product line priced and discounted exactly like an
// existing line for the same product is merged into it instead. Ad hoc lines
// are never merged.
func (c *Cart) Add(item domain.CartItem) error {
	if item.DiscountKind == "" {
		item.DiscountKind = domain.DiscountAmount
	}
	if err := ValidateItem(item); err != nil {
		return err
	}

	for idx, existing := range c.items {
		if !existing.SamePricing(item) {
			continue
		}
		qty := existing.Quantity + item.Quantity
		if err := c.checkStock(existing, idx, qty); err != nil {
			return err
		}
		c.items[idx].Quantity = qty
		return nil
	}

	if err := c.checkStock(item, -1, item.Quantity); err != nil {
		return err
	}
	item.LineKey = c.nextKey(item)
	c.items = append(c.items, item)
	return nil
}

func (c *Cart) Increment(key string) error {
	idx := c.indexOf(key)
	if idx < 0 {
		return fmt.Errorf("%w: %s not in cart", domain.ErrInvalidLine, key)
	}
	return c.SetQuantity(key, c.items[idx].Quantity+1)
}

func (c *Cart) Decrement(key string) error {
	idx := c.indexOf(key)
	if idx < 0 {
		return fmt.Errorf("%w: %s not in cart", domain.ErrInvalidLine, key)
	}
	return c.SetQuantity(key, c.items[idx].Quantity-1)
}

// SetQuantity replaces a line quantity. Zero or less removes the line.
func (c *Cart) SetQuantity(key string, qty int) error {
	idx := c.indexOf(key)
	if idx < 0 {
		return fmt.Errorf("%w: %s not in cart", domain.ErrInvalidLine, key)
	}
	if qty <= 0 {
		c.items = append(c.items[:idx], c.items[idx+1:]...)
		return nil
	}
	if err := c.checkStock(c.items[idx], idx, qty); err != nil {
		return err
	}
	c.items[idx].Quantity = qty
	return nil
}

// SetDiscount replaces the line discount. Applying the same discount twice
// leaves the line unchanged.
func (c *Cart) SetDiscount(key string, value decimal.Decimal, kind domain.DiscountKind) error {
	idx := c.indexOf(key)
	if idx < 0 {
		return fmt.Errorf("%w: %s not in cart", domain.ErrInvalidLine, key)
	}
	if err := ValidateDiscount(value, kind); err != nil {
		return err
	}
	c.items[idx].Discount = value
	c.items[idx].DiscountKind = kind
	return nil
}

func (c *Cart) Remove(key string) {
	if idx := c.indexOf(key); idx >= 0 {
		c.items = append(c.items[:idx], c.items[idx+1:]...)
	}
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Totals(taxRatePercent decimal.Decimal) (domain.Totals, error) {
	if len(c.items) == 0 {
		return domain.Totals{}, domain.ErrEmptyCart
	}
	return Compute(c.items, taxRatePercent)
}
