package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobradar/pkg/models"
)

// UpsertBoard inserts a newly discovered board, or touches LastSeenAt on one
// already known by BoardURL (discovery re-runs the same search periodically
// and will re-surface boards it already has, per spec.md §4.3). Confidence
// only ever moves up: "confidence = max(existing, 0.75)".
func (s *Store) UpsertBoard(ctx context.Context, board *models.DiscoveredBoard) error {
	board.LastSeenAt = time.Now().UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "board_url"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_seen_at": gorm.Expr("excluded.last_seen_at"),
			"confidence":   gorm.Expr("GREATEST(discovered_boards.confidence, excluded.confidence)"),
		}),
	}).Create(board).Error
	if err != nil {
		return fmt.Errorf("postgres: upsert board: %w", err)
	}
	return nil
}

func (s *Store) GetActiveByPlatform(ctx context.Context, platform string) ([]models.DiscoveredBoard, error) {
	var boards []models.DiscoveredBoard
	err := s.db.WithContext(ctx).
		Where("platform = ? AND status = ?", platform, models.BoardStatusActive).
		Find(&boards).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: active boards by platform: %w", err)
	}
	return boards, nil
}

// UpdatePollState records a poll outcome. A board is retired after
// models.MaxConsecutiveZeroYieldRuns consecutive zero-yield polls, per
// spec.md §4.3's board-retirement rule.
func (s *Store) UpdatePollState(ctx context.Context, id uuid.UUID, success bool) error {
	var board models.DiscoveredBoard
	if err := s.db.WithContext(ctx).First(&board, "id = ?", id).Error; err != nil {
		return fmt.Errorf("postgres: load board for poll update: %w", err)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{"last_seen_at": now}
	if success {
		updates["last_success_at"] = now
		updates["consecutive_zero_yield_runs"] = 0
	} else {
		updates["consecutive_zero_yield_runs"] = board.ConsecutiveZeroYieldRuns + 1
		if board.ConsecutiveZeroYieldRuns+1 >= models.MaxConsecutiveZeroYieldRuns {
			updates["status"] = models.BoardStatusInactive
		}
	}

	if err := s.db.WithContext(ctx).Model(&models.DiscoveredBoard{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("postgres: update poll state: %w", err)
	}
	return nil
}
