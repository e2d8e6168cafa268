package database

import (
	"context"
	"fmt"
	"time"

	"go-bizpos/internal/events"
	"go-bizpos/internal/models"

	"gorm.io/gorm"
)

func (s *Store) PendingEvents(ctx context.Context, limit int) ([]events.PendingEvent, error) {
	var rows []models.OutboxEvent
	err := s.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load outbox: %w", err)
	}

	out := make([]events.PendingEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, events.PendingEvent{
			ID:           r.ID,
			EventID:      r.EventID,
			EventName:    r.EventName,
			EventVersion: r.EventVersion,
			Body:         r.Payload,
		})
	}
	return out, nil
}

func (s *Store) MarkPublished(ctx context.Context, id uint, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{"published_at": at, "attempts": gorm.Expr("attempts + 1")}).Error
	if err != nil {
		return fmt.Errorf("mark outbox %d published: %w", id, err)
	}
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
	if err != nil {
		return fmt.Errorf("mark outbox %d failed: %w", id, err)
	}
	return nil
}
