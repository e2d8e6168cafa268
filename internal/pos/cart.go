package pos

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CartItem is one line of the sale being assembled.
type CartItem struct {
	ID       uint            `json:"id"`
	Type     ItemType        `json:"type"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func (i *CartItem) setQuantity(q int) {
	i.Quantity = q
	i.Subtotal = i.Price.Mul(decimal.NewFromInt(int64(q)))
}

// CustomerRef points at a customer without owning it.
type CustomerRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Totals is the arithmetic summary of a cart.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Cart is one operator's in-progress sale. It never touches storage;
// callers load the current stock and hand it in with every mutation.
type Cart struct {
	Items         []CartItem      `json:"items"`
	Discount      decimal.Decimal `json:"discount"`
	Customer      *CustomerRef    `json:"customer,omitempty"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
}

func NewCart() *Cart {
	return &Cart{Items: []CartItem{}, PaymentMethod: DefaultPaymentMethod}
}

func (c *Cart) index(id uint, typ ItemType) int {
	for i := range c.Items {
		if c.Items[i].ID == id && c.Items[i].Type == typ {
			return i
		}
	}
	return -1
}

// AddItem adds one unit of entry. An existing (id, type) line is incremented,
// otherwise a new line with quantity 1 is appended.
func (c *Cart) AddItem(entry CatalogEntry) error {
	if !entry.Type.Valid() {
		return ErrInvalidItemType
	}

	i := c.index(entry.ID, entry.Type)
	next := 1
	if i >= 0 {
		next = c.Items[i].Quantity + 1
	}
	if entry.Type == ItemProduct && next > entry.Stock {
		return fmt.Errorf("%w: %s has %d in stock", ErrOutOfStock, entry.Name, entry.Stock)
	}

	if i >= 0 {
		c.Items[i].setQuantity(next)
		return nil
	}

	item := CartItem{ID: entry.ID, Type: entry.Type, Name: entry.Name, Price: entry.Price}
	item.setQuantity(1)
	c.Items = append(c.Items, item)
	return nil
}

// UpdateQuantity moves a line's quantity by delta. A result of zero or less
// drops the line. For products the result is checked against stock and the
// line is left unchanged when it would exceed it.
func (c *Cart) UpdateQuantity(id uint, typ ItemType, delta, stock int) error {
	i := c.index(id, typ)
	if i < 0 {
		return ErrItemNotFound
	}

	next := c.Items[i].Quantity + delta
	if next <= 0 {
		c.removeAt(i)
		return nil
	}
	if typ == ItemProduct && next > stock {
		return fmt.Errorf("%w: %s has %d in stock", ErrOutOfStock, c.Items[i].Name, stock)
	}
	c.Items[i].setQuantity(next)
	return nil
}

// RemoveItem drops the line. Removing a missing line is not an error.
func (c *Cart) RemoveItem(id uint, typ ItemType) {
	if i := c.index(id, typ); i >= 0 {
		c.removeAt(i)
	}
}

func (c *Cart) removeAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// SetDiscount stores a flat discount. Amounts above the subtotal are kept
// here and refused at checkout, where the total is known to be final.
func (c *Cart) SetDiscount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrInvalidDiscount
	}
	c.Discount = d
	return nil
}

func (c *Cart) SetCustomer(ref *CustomerRef) {
	c.Customer = ref
}

func (c *Cart) SetPaymentMethod(m PaymentMethod) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, m)
	}
	c.PaymentMethod = m
	return nil
}

func (c *Cart) Totals() Totals {
	subtotal := decimal.Zero
	for _, it := range c.Items {
		subtotal = subtotal.Add(it.Subtotal)
	}
	return Totals{
		Subtotal: subtotal,
		Discount: c.Discount,
		Total:    subtotal.Sub(c.Discount),
	}
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Snapshot copies the lines so later cart edits cannot reach a sale.
func (c *Cart) Snapshot() []CartItem {
	out := make([]CartItem, len(c.Items))
	copy(out, c.Items)
	return out
}

// Reset returns the cart to its post-checkout state.
func (c *Cart) Reset() {
	c.Items = []CartItem{}
	c.Discount = decimal.Zero
	c.Customer = nil
	c.PaymentMethod = DefaultPaymentMethod
}
