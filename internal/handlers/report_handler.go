package handlers

import (
	"net/http"
	"sort"
	"time"

	"go-bizpos/internal/pos"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// --- GET: /api/reports?start=YYYY-MM-DD&end=YYYY-MM-DD ---
// Both days are inclusive and default to today.
func (h *Handler) GetSalesReport(c *gin.Context) {
	loc := h.Ledger.Now().Location()
	today := h.Ledger.BusinessDay(h.Ledger.Now())

	start, err := time.ParseInLocation(pos.BusinessDayLayout, c.DefaultQuery("start", today), loc)
	if err != nil {
		badRequest(c, "Dates must be in YYYY-MM-DD format")
		return
	}
	endDay, err := time.ParseInLocation(pos.BusinessDayLayout, c.DefaultQuery("end", today), loc)
	if err != nil {
		badRequest(c, "Dates must be in YYYY-MM-DD format")
		return
	}
	if endDay.Before(start) {
		badRequest(c, "end must not be before start")
		return
	}
	end := endDay.AddDate(0, 0, 1).Add(-time.Nanosecond)

	report, err := h.Store.SalesReport(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- DATA STRUCTURES FOR VALUATION REPORT ---

// ValuationItem represents a single row in the PDF table
type ValuationItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// CategoryGroup represents one entire table in the PDF (e.g., "DRINKS")
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type ValuationResponse struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// --- GET: /api/reports/valuation ---
// GetStockValuation calculates the total monetary value of all physical inventory
func (h *Handler) GetStockValuation(c *gin.Context) {
	products, err := h.Store.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	grandTotal := decimal.Zero
	groupedMap := make(map[string]*CategoryGroup)

	for _, p := range products {
		catName := p.Category
		if catName == "" {
			catName = "Uncategorized"
		}
		group, exists := groupedMap[catName]
		if !exists {
			group = &CategoryGroup{CategoryName: catName, Items: []ValuationItem{}, Subtotal: decimal.Zero}
			groupedMap[catName] = group
		}

		itemTotal := p.CostPrice.Mul(decimal.NewFromInt(int64(p.CurrentStock)))
		group.Items = append(group.Items, ValuationItem{
			Name:      p.Name,
			Quantity:  p.CurrentStock,
			CostPrice: p.CostPrice,
			TotalCost: itemTotal,
		})
		group.Subtotal = group.Subtotal.Add(itemTotal)
		grandTotal = grandTotal.Add(itemTotal)
	}

	response := ValuationResponse{Categories: make([]CategoryGroup, 0, len(groupedMap)), GrandTotal: grandTotal}
	for _, group := range groupedMap {
		response.Categories = append(response.Categories, *group)
	}
	sort.Slice(response.Categories, func(i, j int) bool {
		return response.Categories[i].CategoryName < response.Categories[j].CategoryName
	})

	c.JSON(http.StatusOK, response)
}
