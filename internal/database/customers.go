package database

import (
	"context"
	"fmt"
	"strings"

	"go-bizpos/internal/models"

	"gorm.io/gorm/clause"
)

// SearchCustomers matches term against name, phone, email and document.
// Names starting with the term come first, then alphabetical.
func (s *Store) SearchCustomers(ctx context.Context, term string, limit int) ([]models.Customer, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	q := s.db.WithContext(ctx).Limit(limit)
	if term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ? OR document LIKE ?", like, like, like, like).
			Order(clause.OrderBy{Expression: clause.Expr{
				SQL:                "CASE WHEN LOWER(name) LIKE ? THEN 0 ELSE 1 END, name",
				Vars:               []any{term + "%"},
				WithoutParentheses: true,
			}})
	} else {
		q = q.Order("name")
	}

	var customers []models.Customer
	if err := q.Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "customer")
	}
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}
