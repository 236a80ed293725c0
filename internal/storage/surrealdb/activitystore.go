package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/stockdeck/internal/common"
	"github.com/bobmcallan/stockdeck/internal/models"
)

// ActivityStore persists user activity events.
type ActivityStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewActivityStore creates a new ActivityStore.
func NewActivityStore(db *surrealdb.DB, logger *common.Logger) *ActivityStore {
	return &ActivityStore{db: db, logger: logger}
}

// SaveActivity appends one activity record, minting an ID when absent.
func (s *ActivityStore) SaveActivity(ctx context.Context, record *models.ActivityRecord) error {
	if record.ID == "" {
		record.ID = fmt.Sprintf("act_%s", uuid.New().String()[:8])
	}
	if record.DateTime.IsZero() {
		record.DateTime = time.Now()
	}

	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID("activity", record.ID),
		"record": record,
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}
	return nil
}

// ListActivity returns a user's activity, newest first, up to limit.
func (s *ActivityStore) ListActivity(ctx context.Context, userID string, limit int) ([]*models.ActivityRecord, error) {
	sql := "SELECT * FROM activity WHERE user_id = $user_id ORDER BY datetime DESC"
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", limit)
	}
	vars := map[string]any{"user_id": userID}

	results, err := surrealdb.Query[[]models.ActivityRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.ActivityRecord
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}
