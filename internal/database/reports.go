package database

import (
	"context"
	"fmt"
	"time"

	"go-bizpos/internal/models"
	"go-bizpos/internal/pos"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentBreakdown struct {
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	Count         int64           `json:"count"`
}

type TopSeller struct {
	ItemType string          `json:"item_type"`
	ItemID   uint            `json:"item_id"`
	Name     string          `json:"name"`
	Sold     int64           `json:"sold"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// SalesReport covers completed sales in [start, end].
type SalesReport struct {
	Start        time.Time          `json:"start"`
	End          time.Time          `json:"end"`
	TotalRevenue decimal.Decimal    `json:"total_revenue"`
	TotalOrders  int64              `json:"total_orders"`
	ByPayment    []PaymentBreakdown `json:"by_payment"`
	TopSelling   []TopSeller        `json:"top_selling"`
	RecentSales  []pos.Sale         `json:"recent_sales"`
}

func (s *Store) SalesReport(ctx context.Context, start, end time.Time) (*SalesReport, error) {
	report := &SalesReport{Start: start, End: end}
	completed := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Sale{}).
			Where("sale_time BETWEEN ? AND ? AND status = ?", start, end, string(pos.SaleCompleted))
	}

	// 1. Revenue and count. COALESCE gives 0 instead of NULL on empty ranges
	var totals struct {
		Revenue decimal.Decimal
		Orders  int64
	}
	if err := completed().Select("COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS orders").Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("calculate revenue: %w", err)
	}
	report.TotalRevenue = totals.Revenue
	report.TotalOrders = totals.Orders

	// 2. Per payment method
	err := completed().
		Select("payment_method, COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Group("payment_method").
		Order("payment_method").
		Scan(&report.ByPayment).Error
	if err != nil {
		return nil, fmt.Errorf("group by payment method: %w", err)
	}

	// 3. Top 5 by units sold
	err = s.db.WithContext(ctx).Table("sale_items").
		Select("sale_items.item_type, sale_items.item_id, sale_items.name, SUM(sale_items.quantity) AS sold, SUM(sale_items.subtotal) AS revenue").
		Joins("JOIN sales ON sale_items.sale_id = sales.id").
		Where("sales.sale_time BETWEEN ? AND ? AND sales.status = ?", start, end, string(pos.SaleCompleted)).
		Group("sale_items.item_type, sale_items.item_id, sale_items.name").
		Order("sold desc").
		Limit(5).
		Scan(&report.TopSelling).Error
	if err != nil {
		return nil, fmt.Errorf("fetch top selling items: %w", err)
	}

	// 4. Last 10 sales, newest first
	var recent []models.Sale
	err = s.db.WithContext(ctx).Preload("Items").
		Where("sale_time BETWEEN ? AND ?", start, end).
		Order("sale_time desc").Order("id desc").
		Limit(10).
		Find(&recent).Error
	if err != nil {
		return nil, fmt.Errorf("fetch recent sales: %w", err)
	}
	report.RecentSales = make([]pos.Sale, 0, len(recent))
	for i := range recent {
		report.RecentSales = append(report.RecentSales, *saleFromRecord(&recent[i]))
	}

	return report, nil
}
