package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
)

type Payment struct {
	Method PaymentMethod   `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// Sale is the immutable record of a checkout. Items are copies of the cart
// lines as they were when the sale was committed.
type Sale struct {
	ID             uint            `json:"id"`
	Reference      string          `json:"reference"`
	Date           time.Time       `json:"date"`
	Items          []CartItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	Payment        Payment         `json:"payment"`
	Change         decimal.Decimal `json:"change"`
	CustomerID     *uint           `json:"customerId,omitempty"`
	CustomerName   string          `json:"customerName,omitempty"`
	EmployeeID     uint            `json:"employeeId"`
	EmployeeName   string          `json:"employeeName"`
	Status         SaleStatus      `json:"status"`
	CashRegisterID uint            `json:"cashRegisterId"`
}

// ProductLines returns the lines that move stock.
func (s *Sale) ProductLines() []CartItem {
	var lines []CartItem
	for _, it := range s.Items {
		if it.Type == ItemProduct {
			lines = append(lines, it)
		}
	}
	return lines
}
