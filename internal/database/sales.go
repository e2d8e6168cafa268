package database

import (
	"context"
	"fmt"

	"go-bizpos/internal/events"
	"go-bizpos/internal/models"
	"go-bizpos/internal/pos"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommitSale writes the sale, its stock movements, the register totals and
// the sale.completed event in one transaction. Nothing is kept on error.
func (s *Store) CommitSale(ctx context.Context, registerID uint, sale *pos.Sale) (*pos.Sale, error) {
	var saved *pos.Sale

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the register so appends are serialized per drawer
		var rec models.CashRegister
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, registerID).Error; err != nil {
			return notFound(err, "cash register")
		}

		reg := registerFromRecord(&rec)
		pending := *sale
		pending.CashRegisterID = rec.ID
		if err := reg.AppendSale(pending); err != nil {
			return err
		}

		// 2. Sale header + item snapshots
		row := saleRecord(&pending)
		row.Position = rec.SaleCount + 1
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		pending.ID = row.ID

		// 3. One "out" movement per product line
		for _, ln := range pending.ProductLines() {
			saleID := row.ID
			mv := models.StockMovement{
				ProductID:  ln.ID,
				Type:       MovementOut,
				Quantity:   ln.Quantity,
				Reason:     "sale " + pending.Reference,
				SaleID:     &saleID,
				EmployeeID: pending.EmployeeID,
				Date:       pending.Date,
			}
			if _, err := applyMovement(tx, &mv); err != nil {
				return err
			}
		}

		// 4. Register totals, only while still open
		upd := registerUpdates(reg)
		upd["sale_count"] = row.Position
		res := tx.Model(&models.CashRegister{}).
			Where("id = ? AND status = ?", rec.ID, string(pos.RegisterOpen)).
			Updates(upd)
		if res.Error != nil {
			return fmt.Errorf("update cash register: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return pos.ErrRegisterClosed
		}

		// 5. Announce it
		env, err := events.SaleCompleted(&pending)
		if err != nil {
			return err
		}
		if err := writeOutbox(tx, env); err != nil {
			return err
		}

		saved = &pending
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Store) GetSale(ctx context.Context, id uint) (*pos.Sale, error) {
	var rec models.Sale
	if err := s.db.WithContext(ctx).Preload("Items").First(&rec, id).Error; err != nil {
		return nil, notFound(err, "sale")
	}
	return saleFromRecord(&rec), nil
}

func (s *Store) GetSaleByReference(ctx context.Context, ref string) (*pos.Sale, error) {
	var rec models.Sale
	if err := s.db.WithContext(ctx).Preload("Items").Where("reference = ?", ref).First(&rec).Error; err != nil {
		return nil, notFound(err, "sale")
	}
	return saleFromRecord(&rec), nil
}
