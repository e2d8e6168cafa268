package pos

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger runs the open/close lifecycle of per-employee, per-day registers.
type Ledger struct {
	store RegisterStore
	loc   *time.Location
	now   func() time.Time
}

type LedgerOption func(*Ledger)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// WithLocation sets the zone that decides where a calendar day starts.
func WithLocation(loc *time.Location) LedgerOption {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

func NewLedger(store RegisterStore, opts ...LedgerOption) *Ledger {
	l := &Ledger{store: store, loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now is the ledger's clock in its business zone.
func (l *Ledger) Now() time.Time { return l.now().In(l.loc) }

func (l *Ledger) BusinessDay(t time.Time) string {
	return t.In(l.loc).Format(BusinessDayLayout)
}

// Today returns the operator's register for the current day, opening one
// with a zero float when there is none yet.
func (l *Ledger) Today(ctx context.Context, op Operator) (*CashRegister, error) {
	if !op.valid() {
		return nil, ErrNoOperator
	}
	now := l.Now()
	return l.store.EnsureRegister(ctx, NewCashRegister(op, l.BusinessDay(now), decimal.Zero, now))
}

// Open starts today's register with an explicit opening float.
func (l *Ledger) Open(ctx context.Context, op Operator, opening decimal.Decimal) (*CashRegister, error) {
	if !op.valid() {
		return nil, ErrNoOperator
	}
	if opening.IsNegative() {
		return nil, ErrInvalidAmount
	}
	now := l.Now()
	return l.store.CreateRegister(ctx, NewCashRegister(op, l.BusinessDay(now), opening, now))
}

func (l *Ledger) Get(ctx context.Context, op Operator, id uint) (*CashRegister, error) {
	if !op.valid() {
		return nil, ErrNoOperator
	}
	reg, err := l.store.GetRegister(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(op, reg) {
		return nil, ErrForbidden
	}
	return reg, nil
}

// Close freezes the register. amount is the counted drawer; nil means the
// expected amount. Closing twice fails with ErrRegisterClosed.
func (l *Ledger) Close(ctx context.Context, op Operator, id uint, amount *decimal.Decimal) (*CashRegister, error) {
	if !op.valid() {
		return nil, ErrNoOperator
	}
	return l.store.UpdateRegister(ctx, id, func(reg *CashRegister) error {
		if !canAccess(op, reg) {
			return ErrForbidden
		}
		return reg.Close(amount, l.Now())
	})
}

// History lists registers between two days, inclusive. Admins may pass any
// employeeID; everybody else only sees their own.
func (l *Ledger) History(ctx context.Context, op Operator, employeeID uint, from, to time.Time) ([]CashRegister, error) {
	if !op.valid() {
		return nil, ErrNoOperator
	}
	if employeeID == 0 || !op.IsAdmin() {
		employeeID = op.ID
	}
	return l.store.ListRegisters(ctx, employeeID, l.BusinessDay(from), l.BusinessDay(to))
}

func canAccess(op Operator, reg *CashRegister) bool {
	return op.IsAdmin() || reg.EmployeeID == op.ID
}
