package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-bizpos/internal/models"
	"go-bizpos/internal/pos"

	"gorm.io/gorm"
)

const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
)

var ErrInvalidMovement = errors.New("invalid stock movement")

// applyMovement changes current_stock by the movement and records it.
// "in" and "out" take a positive quantity; "adjustment" takes a signed one.
// Stock never goes below zero: the decrement is conditional on the row.
func applyMovement(tx *gorm.DB, mv *models.StockMovement) (*models.Product, error) {
	var delta int
	switch mv.Type {
	case MovementIn:
		delta = mv.Quantity
	case MovementOut:
		delta = -mv.Quantity
	case MovementAdjustment:
		delta = mv.Quantity
	default:
		return nil, fmt.Errorf("%w: type %q", ErrInvalidMovement, mv.Type)
	}
	if delta == 0 || (mv.Type != MovementAdjustment && mv.Quantity < 0) {
		return nil, fmt.Errorf("%w: quantity %d", ErrInvalidMovement, mv.Quantity)
	}
	if mv.Date.IsZero() {
		mv.Date = time.Now()
	}

	q := tx.Model(&models.Product{}).Where("id = ?", mv.ProductID)
	if delta < 0 {
		q = q.Where("current_stock >= ?", -delta)
	}
	res := q.Update("current_stock", gorm.Expr("current_stock + ?", delta))
	if res.Error != nil {
		return nil, fmt.Errorf("update stock for product %d: %w", mv.ProductID, res.Error)
	}

	var p models.Product
	if err := tx.First(&p, mv.ProductID).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("product %d", mv.ProductID))
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w for %s: %d available, %d requested", pos.ErrOutOfStock, p.Name, p.CurrentStock, -delta)
	}

	if err := tx.Create(mv).Error; err != nil {
		return nil, fmt.Errorf("record stock movement: %w", err)
	}
	return &p, nil
}

// --- Products ---

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("name").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "product")
	}
	return &p, nil
}

func (s *Store) GetProductByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).Where("barcode = ?", barcode).First(&p).Error; err != nil {
		return nil, notFound(err, "product")
	}
	return &p, nil
}

// CreateProduct stores p with zero stock and books any initial stock as an
// "in" movement, so the movement log always explains current_stock.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product, employeeID uint) error {
	initial := p.CurrentStock
	if initial < 0 {
		return fmt.Errorf("%w: negative initial stock", ErrInvalidMovement)
	}
	p.CurrentStock = 0

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if initial == 0 {
			return nil
		}
		updated, err := applyMovement(tx, &models.StockMovement{
			ProductID:  p.ID,
			Type:       MovementIn,
			Quantity:   initial,
			Reason:     "initial stock",
			EmployeeID: employeeID,
		})
		if err != nil {
			return err
		}
		p.CurrentStock = updated.CurrentStock
		return nil
	})
}

// UpdateProduct applies a partial update. Stock is not editable here; it
// only moves through RecordMovement and sales.
func (s *Store) UpdateProduct(ctx context.Context, id uint, fields map[string]any) (*models.Product, error) {
	delete(fields, "id")
	delete(fields, "current_stock")

	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.db.WithContext(ctx).Model(p).Updates(fields).Error; err != nil {
			return nil, fmt.Errorf("update product: %w", err)
		}
	}
	return s.GetProduct(ctx, id)
}

func (s *Store) DeleteProduct(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product: %w", pos.ErrNotFound)
	}
	return nil
}

// RecordMovement books a manual movement and returns the product after it.
func (s *Store) RecordMovement(ctx context.Context, mv *models.StockMovement) (*models.Product, error) {
	var p *models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = applyMovement(tx, mv)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListMovements(ctx context.Context, productID uint, limit int) ([]models.StockMovement, error) {
	var mvs []models.StockMovement
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id desc").
		Limit(limit).
		Find(&mvs).Error
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return mvs, nil
}

// --- Services ---

func (s *Store) ListServices(ctx context.Context, activeOnly bool) ([]models.Service, error) {
	var services []models.Service
	q := s.db.WithContext(ctx).Order("name")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Find(&services).Error; err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

func (s *Store) GetService(ctx context.Context, id uint) (*models.Service, error) {
	var svc models.Service
	if err := s.db.WithContext(ctx).First(&svc, id).Error; err != nil {
		return nil, notFound(err, "service")
	}
	return &svc, nil
}

func (s *Store) CreateService(ctx context.Context, svc *models.Service) error {
	if err := s.db.WithContext(ctx).Create(svc).Error; err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

// CatalogEntry loads what the cart needs for a product or an active service.
func (s *Store) CatalogEntry(ctx context.Context, typ pos.ItemType, id uint) (pos.CatalogEntry, error) {
	switch typ {
	case pos.ItemProduct:
		p, err := s.GetProduct(ctx, id)
		if err != nil {
			return pos.CatalogEntry{}, err
		}
		return pos.CatalogEntry{ID: p.ID, Type: typ, Name: p.Name, Price: p.Price, Stock: p.CurrentStock}, nil
	case pos.ItemService:
		svc, err := s.GetService(ctx, id)
		if err != nil {
			return pos.CatalogEntry{}, err
		}
		if !svc.Active {
			return pos.CatalogEntry{}, fmt.Errorf("service %d is inactive: %w", id, pos.ErrNotFound)
		}
		return pos.CatalogEntry{ID: svc.ID, Type: typ, Name: svc.Name, Price: svc.Price}, nil
	default:
		return pos.CatalogEntry{}, pos.ErrInvalidItemType
	}
}
