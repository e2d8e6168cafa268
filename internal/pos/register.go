package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

type RegisterStatus string

const (
	RegisterOpen   RegisterStatus = "open"
	RegisterClosed RegisterStatus = "closed"
)

// BusinessDayLayout is how a register's calendar day is written.
const BusinessDayLayout = "2006-01-02"

// CashRegister is one employee's cash drawer for one calendar day.
type CashRegister struct {
	ID             uint                              `json:"id"`
	EmployeeID     uint                              `json:"employeeId"`
	EmployeeName   string                            `json:"employeeName"`
	Date           string                            `json:"date"`
	OpeningAmount  decimal.Decimal                   `json:"openingAmount"`
	ClosingAmount  *decimal.Decimal                  `json:"closingAmount,omitempty"`
	ExpectedAmount *decimal.Decimal                  `json:"expectedAmount,omitempty"`
	TotalSales     decimal.Decimal                   `json:"totalSales"`
	TotalPayments  map[PaymentMethod]decimal.Decimal `json:"totalPayments"`
	Sales          []Sale                            `json:"sales"`
	Status         RegisterStatus                    `json:"status"`
	OpenedAt       time.Time                         `json:"openedAt"`
	ClosedAt       *time.Time                        `json:"closedAt,omitempty"`
}

// NewCashRegister returns an open register with every payment total at zero.
func NewCashRegister(op Operator, day string, opening decimal.Decimal, now time.Time) *CashRegister {
	return &CashRegister{
		EmployeeID:    op.ID,
		EmployeeName:  op.Name,
		Date:          day,
		OpeningAmount: opening,
		TotalSales:    decimal.Zero,
		TotalPayments: ZeroPayments(),
		Sales:         []Sale{},
		Status:        RegisterOpen,
		OpenedAt:      now,
	}
}

func ZeroPayments() map[PaymentMethod]decimal.Decimal {
	m := make(map[PaymentMethod]decimal.Decimal, len(PaymentMethods))
	for _, pm := range PaymentMethods {
		m[pm] = decimal.Zero
	}
	return m
}

func (r *CashRegister) IsOpen() bool { return r.Status == RegisterOpen }

// AppendSale records a completed sale. Closed registers refuse it.
func (r *CashRegister) AppendSale(s Sale) error {
	if !r.IsOpen() {
		return ErrRegisterClosed
	}
	if !s.Payment.Method.Valid() {
		return ErrInvalidPaymentMethod
	}
	if r.TotalPayments == nil {
		r.TotalPayments = ZeroPayments()
	}

	r.Sales = append(r.Sales, s)
	r.TotalSales = r.TotalSales.Add(s.Total)
	r.TotalPayments[s.Payment.Method] = r.TotalPayments[s.Payment.Method].Add(s.Total)
	return nil
}

// Expected is what the drawer should hold: opening float plus sales.
func (r *CashRegister) Expected() decimal.Decimal {
	return r.OpeningAmount.Add(r.TotalSales)
}

// Close freezes the register. A nil amount closes at the expected amount.
func (r *CashRegister) Close(amount *decimal.Decimal, now time.Time) error {
	if !r.IsOpen() {
		return ErrRegisterClosed
	}
	expected := r.Expected()
	closing := expected
	if amount != nil {
		if amount.IsNegative() {
			return ErrInvalidAmount
		}
		closing = *amount
	}

	r.Status = RegisterClosed
	r.ClosingAmount = &closing
	r.ExpectedAmount = &expected
	r.ClosedAt = &now
	return nil
}

// Difference is closing minus expected, zero while open.
func (r *CashRegister) Difference() decimal.Decimal {
	if r.ClosingAmount == nil || r.ExpectedAmount == nil {
		return decimal.Zero
	}
	return r.ClosingAmount.Sub(*r.ExpectedAmount)
}
