package surrealdb

import (
	"context"
	"fmt"

	"github.com/bobmcallan/stockdeck/internal/common"
	"github.com/bobmcallan/stockdeck/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ProfileStore persists dashboard profile documents keyed by user ID.
type ProfileStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(db *surrealdb.DB, logger *common.Logger) *ProfileStore {
	return &ProfileStore{db: db, logger: logger}
}

// GetProfile retrieves a profile, or nil when none exists yet.
func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := surrealdb.Select[models.UserProfile](ctx, s.db, surrealmodels.NewRecordID("profile", userID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select profile: %w", err)
	}
	if profile == nil || profile.UID == "" {
		return nil, nil
	}
	return profile, nil
}

// SaveProfile upserts the full profile document.
func (s *ProfileStore) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	sql := "UPSERT type::record('profile', $id) CONTENT $profile"
	vars := map[string]any{"id": profile.UID, "profile": profile}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.UserProfile](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save profile after retries: %w", lastErr)
}
