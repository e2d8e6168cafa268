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

func withSales(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sales", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Sales.Items")
}

// EnsureRegister inserts reg unless the (employee, day) pair already has a
// register, then reads back whichever row won. The unique index settles
// concurrent first requests of the day.
func (s *Store) EnsureRegister(ctx context.Context, reg *pos.CashRegister) (*pos.CashRegister, error) {
	rec := registerRecord(reg)
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("ensure cash register: %w", err)
	}
	return s.registerByDay(ctx, reg.EmployeeID, reg.Date)
}

func (s *Store) CreateRegister(ctx context.Context, reg *pos.CashRegister) (*pos.CashRegister, error) {
	rec := registerRecord(reg)
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return nil, fmt.Errorf("create cash register: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, pos.ErrRegisterExists
	}
	return s.GetRegister(ctx, rec.ID)
}

func (s *Store) registerByDay(ctx context.Context, employeeID uint, day string) (*pos.CashRegister, error) {
	var rec models.CashRegister
	err := withSales(s.db.WithContext(ctx)).
		Where("employee_id = ? AND business_date = ?", employeeID, day).
		First(&rec).Error
	if err != nil {
		return nil, notFound(err, "cash register")
	}
	return registerFromRecord(&rec), nil
}

func (s *Store) GetRegister(ctx context.Context, id uint) (*pos.CashRegister, error) {
	var rec models.CashRegister
	if err := withSales(s.db.WithContext(ctx)).First(&rec, id).Error; err != nil {
		return nil, notFound(err, "cash register")
	}
	return registerFromRecord(&rec), nil
}

// UpdateRegister locks the row, lets apply change the domain value and
// writes the result back. Closing emits register.closed to the outbox.
func (s *Store) UpdateRegister(ctx context.Context, id uint, apply func(*pos.CashRegister) error) (*pos.CashRegister, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.CashRegister
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, id).Error; err != nil {
			return notFound(err, "cash register")
		}

		reg := registerFromRecord(&rec)
		wasOpen := reg.IsOpen()
		if err := apply(reg); err != nil {
			return err
		}

		if err := tx.Model(&models.CashRegister{}).Where("id = ?", rec.ID).Updates(registerUpdates(reg)).Error; err != nil {
			return fmt.Errorf("save cash register: %w", err)
		}

		if wasOpen && !reg.IsOpen() {
			env, err := events.RegisterClosed(reg)
			if err != nil {
				return err
			}
			return writeOutbox(tx, env)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetRegister(ctx, id)
}

// ListRegisters returns registers without their sales, newest day first.
func (s *Store) ListRegisters(ctx context.Context, employeeID uint, from, to string) ([]pos.CashRegister, error) {
	var recs []models.CashRegister
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND business_date BETWEEN ? AND ?", employeeID, from, to).
		Order("business_date desc").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list cash registers: %w", err)
	}

	out := make([]pos.CashRegister, 0, len(recs))
	for i := range recs {
		out = append(out, *registerFromRecord(&recs[i]))
	}
	return out, nil
}
