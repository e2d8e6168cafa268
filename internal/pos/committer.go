package pos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Committer turns a cart into a persisted sale.
type Committer struct {
	sales  SaleStore
	ledger *Ledger
}

func NewCommitter(sales SaleStore, ledger *Ledger) *Committer {
	return &Committer{sales: sales, ledger: ledger}
}

// Validate checks everything that can be checked without storage and
// returns the totals the sale would carry.
func Validate(op Operator, cart *Cart, tendered decimal.Decimal) (Totals, error) {
	if !op.valid() {
		return Totals{}, ErrNoOperator
	}
	if cart == nil || cart.IsEmpty() {
		return Totals{}, ErrEmptyCart
	}
	if cart.Discount.IsNegative() {
		return Totals{}, ErrInvalidDiscount
	}
	for _, it := range cart.Items {
		if !it.Type.Valid() {
			return Totals{}, ErrInvalidItemType
		}
		if it.Quantity <= 0 {
			return Totals{}, fmt.Errorf("%w: %s has quantity %d", ErrInvalidQuantity, it.Name, it.Quantity)
		}
	}

	t := cart.Totals()
	if !t.Total.IsPositive() {
		return Totals{}, fmt.Errorf("%w: subtotal %s, discount %s", ErrNonPositiveTotal, t.Subtotal.StringFixed(2), t.Discount.StringFixed(2))
	}
	if !cart.PaymentMethod.Valid() {
		return Totals{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, cart.PaymentMethod)
	}
	if tendered.IsNegative() {
		return Totals{}, ErrInvalidAmount
	}
	if !tendered.IsZero() && tendered.LessThan(t.Total) {
		return Totals{}, ErrInsufficientPayment
	}
	return t, nil
}

// Commit validates the cart, makes sure today's register exists and writes
// the sale with its stock movements and register totals in one unit of
// work. tendered is the amount handed over; zero means exact payment.
// On success the cart is reset; on any error it is left as it was.
func (c *Committer) Commit(ctx context.Context, op Operator, cart *Cart, tendered decimal.Decimal) (*Sale, error) {
	totals, err := Validate(op, cart, tendered)
	if err != nil {
		return nil, err
	}

	reg, err := c.ledger.Today(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("open today's register: %w", err)
	}
	if !reg.IsOpen() {
		return nil, ErrRegisterClosed
	}

	paid := tendered
	if paid.IsZero() {
		paid = totals.Total
	}

	sale := &Sale{
		Reference:    uuid.NewString(),
		Date:         c.ledger.Now(),
		Items:        cart.Snapshot(),
		Subtotal:     totals.Subtotal,
		Discount:     totals.Discount,
		Total:        totals.Total,
		Payment:      Payment{Method: cart.PaymentMethod, Amount: paid},
		Change:       paid.Sub(totals.Total),
		EmployeeID:   op.ID,
		EmployeeName: op.Name,
		Status:       SaleCompleted,
	}
	if cart.Customer != nil {
		id := cart.Customer.ID
		sale.CustomerID = &id
		sale.CustomerName = cart.Customer.Name
	}

	saved, err := c.sales.CommitSale(ctx, reg.ID, sale)
	if err != nil {
		return nil, err
	}

	cart.Reset()
	return saved, nil
}
