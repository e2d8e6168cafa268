package events

import (
	"strconv"

	"go-bizpos/internal/pos"

	"github.com/shopspring/decimal"
)

const (
	EventSaleCompleted  = "sale.completed"
	EventRegisterClosed = "register.closed"
)

type SaleLine struct {
	ItemID   uint            `json:"itemId"`
	ItemType string          `json:"itemType"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type SaleCompletedV1 struct {
	SaleID         uint            `json:"saleId"`
	Reference      string          `json:"reference"`
	CashRegisterID uint            `json:"cashRegisterId"`
	EmployeeID     uint            `json:"employeeId"`
	CustomerID     *uint           `json:"customerId,omitempty"`
	PaymentMethod  string          `json:"paymentMethod"`
	Total          decimal.Decimal `json:"total"`
	Lines          []SaleLine      `json:"lines"`
}

func SaleCompleted(s *pos.Sale) (EventEnvelope, error) {
	ev := SaleCompletedV1{
		SaleID:         s.ID,
		Reference:      s.Reference,
		CashRegisterID: s.CashRegisterID,
		EmployeeID:     s.EmployeeID,
		CustomerID:     s.CustomerID,
		PaymentMethod:  string(s.Payment.Method),
		Total:          s.Total,
	}
	for _, it := range s.Items {
		ev.Lines = append(ev.Lines, SaleLine{
			ItemID:   it.ID,
			ItemType: string(it.Type),
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	return NewEnvelope(EventSaleCompleted, 1, strconv.FormatUint(uint64(s.CashRegisterID), 10), s.Date, ev)
}

type RegisterClosedV1 struct {
	CashRegisterID uint                                  `json:"cashRegisterId"`
	EmployeeID     uint                                  `json:"employeeId"`
	Date           string                                `json:"date"`
	OpeningAmount  decimal.Decimal                       `json:"openingAmount"`
	ClosingAmount  decimal.Decimal                       `json:"closingAmount"`
	ExpectedAmount decimal.Decimal                       `json:"expectedAmount"`
	TotalSales     decimal.Decimal                       `json:"totalSales"`
	TotalPayments  map[pos.PaymentMethod]decimal.Decimal `json:"totalPayments"`
}

func RegisterClosed(r *pos.CashRegister) (EventEnvelope, error) {
	ev := RegisterClosedV1{
		CashRegisterID: r.ID,
		EmployeeID:     r.EmployeeID,
		Date:           r.Date,
		OpeningAmount:  r.OpeningAmount,
		ExpectedAmount: r.Expected(),
		TotalSales:     r.TotalSales,
		TotalPayments:  r.TotalPayments,
	}
	if r.ClosingAmount != nil {
		ev.ClosingAmount = *r.ClosingAmount
	}
	occurred := r.OpenedAt
	if r.ClosedAt != nil {
		occurred = *r.ClosedAt
	}
	return NewEnvelope(EventRegisterClosed, 1, strconv.FormatUint(uint64(r.ID), 10), occurred, ev)
}
