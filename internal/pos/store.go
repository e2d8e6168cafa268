package pos

import "context"

// RegisterStore persists cash registers. UpdateRegister runs apply against
// the locked, current row and saves whatever state apply leaves behind;
// an error from apply aborts the update.
type RegisterStore interface {
	// EnsureRegister returns the register for reg's employee and day,
	// creating reg when none exists. Concurrent callers get the same row.
	EnsureRegister(ctx context.Context, reg *CashRegister) (*CashRegister, error)
	// CreateRegister fails with ErrRegisterExists when the day is taken.
	CreateRegister(ctx context.Context, reg *CashRegister) (*CashRegister, error)
	GetRegister(ctx context.Context, id uint) (*CashRegister, error)
	UpdateRegister(ctx context.Context, id uint, apply func(*CashRegister) error) (*CashRegister, error)
	ListRegisters(ctx context.Context, employeeID uint, from, to string) ([]CashRegister, error)
}

// SaleStore persists a sale, moves stock for its product lines and appends
// it to the register as a single unit of work.
type SaleStore interface {
	CommitSale(ctx context.Context, registerID uint, sale *Sale) (*Sale, error)
}

// CartStore keeps one cart per operator between requests.
type CartStore interface {
	// Load returns a fresh cart when the operator has none.
	Load(ctx context.Context, operatorID uint) (*Cart, error)
	Save(ctx context.Context, operatorID uint, cart *Cart) error
	Delete(ctx context.Context, operatorID uint) error
}
