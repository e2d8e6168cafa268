package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User - the operator behind the register
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	Name         string    `gorm:"size:100" json:"name"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'cashier'
	CreatedAt    time.Time `json:"created_at"`
}

// Product - stock-tracked catalog entry
type Product struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"size:150" json:"name"`
	Barcode      *string         `gorm:"uniqueIndex;size:64" json:"barcode,omitempty"`
	Category     string          `gorm:"size:80" json:"category"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(12,2)" json:"cost_price"`
	CurrentStock int             `json:"current_stock"`
	ImageURL     string          `json:"image_url"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Service - sellable work, no stock
type Service struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:150" json:"name"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	DurationMinutes int             `json:"duration_minutes"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
}

type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:150;index" json:"name"`
	Phone     string    `gorm:"size:30" json:"phone"`
	Email     string    `gorm:"size:150" json:"email"`
	Document  string    `gorm:"size:30" json:"document"`
	CreatedAt time.Time `json:"created_at"`
}

// StockMovement - every change to Product.CurrentStock goes through one of these
type StockMovement struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProductID  uint      `gorm:"index" json:"product_id"`
	Type       string    `gorm:"size:20" json:"type"` // 'in', 'out', 'adjustment'
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason"`
	SaleID     *uint     `gorm:"index" json:"sale_id,omitempty"`
	EmployeeID uint      `json:"employee_id"`
	Date       time.Time `json:"date"`
}

// CashRegister - one drawer per employee per business day.
// The unique index is what makes lazy creation race free.
type CashRegister struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	EmployeeID     uint             `gorm:"uniqueIndex:idx_register_employee_day" json:"employee_id"`
	EmployeeName   string           `json:"employee_name"`
	BusinessDate   string           `gorm:"size:10;uniqueIndex:idx_register_employee_day" json:"business_date"`
	OpeningAmount  decimal.Decimal  `gorm:"type:decimal(12,2)" json:"opening_amount"`
	ClosingAmount  *decimal.Decimal `gorm:"type:decimal(12,2)" json:"closing_amount"`
	ExpectedAmount *decimal.Decimal `gorm:"type:decimal(12,2)" json:"expected_amount"`
	TotalSales     decimal.Decimal  `gorm:"type:decimal(12,2)" json:"total_sales"`
	TotalCash      decimal.Decimal  `gorm:"type:decimal(12,2)" json:"total_cash"`
	TotalCredit    decimal.Decimal  `gorm:"type:decimal(12,2)" json:"total_credit"`
	TotalDebit     decimal.Decimal  `gorm:"type:decimal(12,2)" json:"total_debit"`
	TotalPix       decimal.Decimal  `gorm:"type:decimal(12,2)" json:"total_pix"`
	SaleCount      int              `json:"sale_count"`
	Status         string           `gorm:"size:10;index" json:"status"` // 'open', 'closed'
	OpenedAt       time.Time        `json:"opened_at"`
	ClosedAt       *time.Time       `json:"closed_at"`
	Sales          []Sale           `gorm:"foreignKey:CashRegisterID" json:"sales,omitempty"`
}

// Sale - the transaction header, never edited once written
type Sale struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Reference      string          `gorm:"uniqueIndex;size:36" json:"reference"`
	CashRegisterID uint            `gorm:"index" json:"cash_register_id"`
	Position       int             `json:"position"` // order within the register
	EmployeeID     uint            `gorm:"index" json:"employee_id"`
	EmployeeName   string          `json:"employee_name"`
	CustomerID     *uint           `gorm:"index" json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
	Discount       decimal.Decimal `gorm:"type:decimal(12,2)" json:"discount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_amount"`
	PaymentMethod  string          `gorm:"size:10" json:"payment_method"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount_paid"`
	ChangeDue      decimal.Decimal `gorm:"type:decimal(12,2)" json:"change_due"`
	Status         string          `gorm:"size:10" json:"status"` // 'completed', 'cancelled'
	SaleTime       time.Time       `gorm:"index" json:"sale_time"`
	Items          []SaleItem      `gorm:"foreignKey:SaleID" json:"items"`
}

// SaleItem - snapshot of one cart line
type SaleItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SaleID      uint            `gorm:"index" json:"sale_id"`
	ItemType    string          `gorm:"size:10" json:"item_type"` // 'product', 'service'
	ItemID      uint            `json:"item_id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	PriceAtSale decimal.Decimal `gorm:"type:decimal(12,2)" json:"price_at_sale"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
}

// OutboxEvent - written in the same transaction as the change it announces
type OutboxEvent struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	EventID      string     `gorm:"uniqueIndex;size:36" json:"event_id"`
	EventName    string     `gorm:"size:60" json:"event_name"`
	EventVersion int        `json:"event_version"`
	PartitionKey string     `gorm:"size:60" json:"partition_key"`
	Payload      []byte     `json:"payload"`
	CreatedAt    time.Time  `json:"created_at"`
	PublishedAt  *time.Time `gorm:"index" json:"published_at"`
	Attempts     int        `json:"attempts"`
}
