package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobradar/pkg/models"
	"jobradar/pkg/storage"
)

func (s *Store) Enqueue(ctx context.Context, item *models.RetryQueueItem) error {
	if item.NextRetryAt.IsZero() {
		item.NextRetryAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("postgres: enqueue retry item: %w", err)
	}
	return nil
}

func (s *Store) GetDue(ctx context.Context, now time.Time) ([]models.RetryQueueItem, error) {
	var items []models.RetryQueueItem
	err := s.db.WithContext(ctx).Where("next_retry_at <= ?", now).Order("next_retry_at asc").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: get due retry items: %w", err)
	}
	return items, nil
}

func (s *Store) IncrementRetry(ctx context.Context, id uuid.UUID, nextRetryAt time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.RetryQueueItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"retry_count":   gorm.Expr("retry_count + 1"),
		"next_retry_at": nextRetryAt,
	})
	if result.Error != nil {
		return fmt.Errorf("postgres: increment retry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.RetryQueueItem{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("postgres: remove retry item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
