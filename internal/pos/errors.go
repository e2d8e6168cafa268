package pos

import "errors"

// Validation failures. These are returned before anything is written.
var (
	ErrNoOperator           = errors.New("an authenticated operator is required")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrNonPositiveTotal     = errors.New("sale total must be greater than zero")
	ErrInvalidDiscount      = errors.New("discount cannot be negative")
	ErrInvalidAmount        = errors.New("amount cannot be negative")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidItemType      = errors.New("item type must be product or service")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrInsufficientPayment  = errors.New("payment amount is lower than the sale total")
)

// State conflicts.
var (
	ErrOutOfStock     = errors.New("not enough stock")
	ErrItemNotFound   = errors.New("item is not in the cart")
	ErrNotFound       = errors.New("not found")
	ErrRegisterClosed = errors.New("cash register is closed")
	ErrRegisterExists = errors.New("cash register already opened today")
	ErrForbidden      = errors.New("operator cannot access this cash register")
)
