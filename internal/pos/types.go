package pos

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemType tells products (stock tracked) from services.
type ItemType string

const (
	ItemProduct ItemType = "product"
	ItemService ItemType = "service"
)

func (t ItemType) Valid() bool {
	return t == ItemProduct || t == ItemService
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
	PaymentDebit  PaymentMethod = "debit"
	PaymentPix    PaymentMethod = "pix"
)

// DefaultPaymentMethod is what a fresh cart starts with.
const DefaultPaymentMethod = PaymentCash

// PaymentMethods lists every method a register keeps a total for, in display order.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCredit, PaymentDebit, PaymentPix}

func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// ParsePaymentMethod accepts any casing and surrounding blanks.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
	}
	return m, nil
}

// Operator is the authenticated employee running the register.
// It is passed explicitly into every core operation.
type Operator struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

const RoleAdmin = "admin"

func (o Operator) IsAdmin() bool { return o.Role == RoleAdmin }

func (o Operator) valid() bool { return o.ID != 0 }

// CatalogEntry is what the cart needs to know about a product or service
// at the moment it is added. Stock is ignored for services.
type CatalogEntry struct {
	ID    uint
	Type  ItemType
	Name  string
	Price decimal.Decimal
	Stock int
}
