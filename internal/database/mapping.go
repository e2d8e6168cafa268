package database

import (
	"go-bizpos/internal/models"
	"go-bizpos/internal/pos"

	"github.com/shopspring/decimal"
)

func registerRecord(r *pos.CashRegister) models.CashRegister {
	return models.CashRegister{
		ID:             r.ID,
		EmployeeID:     r.EmployeeID,
		EmployeeName:   r.EmployeeName,
		BusinessDate:   r.Date,
		OpeningAmount:  r.OpeningAmount,
		ClosingAmount:  r.ClosingAmount,
		ExpectedAmount: r.ExpectedAmount,
		TotalSales:     r.TotalSales,
		TotalCash:      r.TotalPayments[pos.PaymentCash],
		TotalCredit:    r.TotalPayments[pos.PaymentCredit],
		TotalDebit:     r.TotalPayments[pos.PaymentDebit],
		TotalPix:       r.TotalPayments[pos.PaymentPix],
		SaleCount:      len(r.Sales),
		Status:         string(r.Status),
		OpenedAt:       r.OpenedAt,
		ClosedAt:       r.ClosedAt,
	}
}

func registerFromRecord(rec *models.CashRegister) *pos.CashRegister {
	r := &pos.CashRegister{
		ID:             rec.ID,
		EmployeeID:     rec.EmployeeID,
		EmployeeName:   rec.EmployeeName,
		Date:           rec.BusinessDate,
		OpeningAmount:  rec.OpeningAmount,
		ClosingAmount:  rec.ClosingAmount,
		ExpectedAmount: rec.ExpectedAmount,
		TotalSales:     rec.TotalSales,
		TotalPayments: map[pos.PaymentMethod]decimal.Decimal{
			pos.PaymentCash:   rec.TotalCash,
			pos.PaymentCredit: rec.TotalCredit,
			pos.PaymentDebit:  rec.TotalDebit,
			pos.PaymentPix:    rec.TotalPix,
		},
		Sales:    make([]pos.Sale, 0, len(rec.Sales)),
		Status:   pos.RegisterStatus(rec.Status),
		OpenedAt: rec.OpenedAt,
		ClosedAt: rec.ClosedAt,
	}
	for i := range rec.Sales {
		r.Sales = append(r.Sales, *saleFromRecord(&rec.Sales[i]))
	}
	return r
}

// registerUpdates is the mutable part of a register row.
func registerUpdates(r *pos.CashRegister) map[string]any {
	upd := map[string]any{
		"status":          string(r.Status),
		"closing_amount":  nullableDecimal(r.ClosingAmount),
		"expected_amount": nullableDecimal(r.ExpectedAmount),
		"total_sales":     r.TotalSales,
		"total_cash":      r.TotalPayments[pos.PaymentCash],
		"total_credit":    r.TotalPayments[pos.PaymentCredit],
		"total_debit":     r.TotalPayments[pos.PaymentDebit],
		"total_pix":       r.TotalPayments[pos.PaymentPix],
		"closed_at":       nil,
	}
	if r.ClosedAt != nil {
		upd["closed_at"] = *r.ClosedAt
	}
	return upd
}

func saleRecord(s *pos.Sale) models.Sale {
	rec := models.Sale{
		ID:             s.ID,
		Reference:      s.Reference,
		CashRegisterID: s.CashRegisterID,
		EmployeeID:     s.EmployeeID,
		EmployeeName:   s.EmployeeName,
		CustomerID:     s.CustomerID,
		CustomerName:   s.CustomerName,
		Subtotal:       s.Subtotal,
		Discount:       s.Discount,
		TotalAmount:    s.Total,
		PaymentMethod:  string(s.Payment.Method),
		AmountPaid:     s.Payment.Amount,
		ChangeDue:      s.Change,
		Status:         string(s.Status),
		SaleTime:       s.Date,
		Items:          make([]models.SaleItem, 0, len(s.Items)),
	}
	for _, it := range s.Items {
		rec.Items = append(rec.Items, models.SaleItem{
			ItemType:    string(it.Type),
			ItemID:      it.ID,
			Name:        it.Name,
			Quantity:    it.Quantity,
			PriceAtSale: it.Price,
			Subtotal:    it.Subtotal,
		})
	}
	return rec
}

func saleFromRecord(rec *models.Sale) *pos.Sale {
	s := &pos.Sale{
		ID:             rec.ID,
		Reference:      rec.Reference,
		Date:           rec.SaleTime,
		Items:          make([]pos.CartItem, 0, len(rec.Items)),
		Subtotal:       rec.Subtotal,
		Discount:       rec.Discount,
		Total:          rec.TotalAmount,
		Payment:        pos.Payment{Method: pos.PaymentMethod(rec.PaymentMethod), Amount: rec.AmountPaid},
		Change:         rec.ChangeDue,
		CustomerID:     rec.CustomerID,
		CustomerName:   rec.CustomerName,
		EmployeeID:     rec.EmployeeID,
		EmployeeName:   rec.EmployeeName,
		Status:         pos.SaleStatus(rec.Status),
		CashRegisterID: rec.CashRegisterID,
	}
	for _, it := range rec.Items {
		s.Items = append(s.Items, pos.CartItem{
			ID:       it.ItemID,
			Type:     pos.ItemType(it.ItemType),
			Name:     it.Name,
			Price:    it.PriceAtSale,
			Quantity: it.Quantity,
			Subtotal: it.Subtotal,
		})
	}
	return s
}
