// Package activity records user actions for the activity feed
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/stockdeck/internal/common"
	"github.com/bobmcallan/stockdeck/internal/interfaces"
	"github.com/bobmcallan/stockdeck/internal/models"
)

const (
	// DefaultLimit is the page size when the caller does not ask for one.
	DefaultLimit = 20
	// MaxLimit caps how much activity a single query can return.
	MaxLimit = 100
)

// Service implements ActivityService on top of the activity store.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new activity service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Record logs a user action. Failures are logged and swallowed: activity
// logging must never break the request that triggered it.
func (s *Service) Record(ctx context.Context, userID, action string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}

	record := &models.ActivityRecord{
		UserID:   userID,
		Action:   action,
		Metadata: metadata,
		DateTime: s.now(),
	}

	if err := s.storage.ActivityStore().SaveActivity(ctx, record); err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Str("action", action).
			Msg("Failed to log user activity")
	}
}

// Recent returns the user's most recent activity, newest first. Zero or
// negative limits get the default page; limits above MaxLimit are clamped.
func (s *Service) Recent(ctx context.Context, userID string, limit int) ([]*models.ActivityRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	records, err := s.storage.ActivityStore().ListActivity(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity for %s: %w", userID, err)
	}
	return records, nil
}

// Ensure Service implements ActivityService
var _ interfaces.ActivityService = (*Service)(nil)
