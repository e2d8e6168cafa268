package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"go-bizpos/internal/events"
	"go-bizpos/internal/models"
	"go-bizpos/internal/pos"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store is the GORM-backed persistence for the whole service.
// It satisfies pos.RegisterStore, pos.SaleStore and events.OutboxStore.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var (
	_ pos.RegisterStore  = (*Store)(nil)
	_ pos.SaleStore      = (*Store)(nil)
	_ events.OutboxStore = (*Store)(nil)
)

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, pos.ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

func writeOutbox(tx *gorm.DB, env events.EventEnvelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", env.EventName, err)
	}
	row := models.OutboxEvent{
		EventID:      env.EventID,
		EventName:    env.EventName,
		EventVersion: env.EventVersion,
		PartitionKey: env.PartitionKey,
		Payload:      body,
		CreatedAt:    env.OccurredAt,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("write %s to outbox: %w", env.EventName, err)
	}
	return nil
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}
