// Package profile manages dashboard user profiles and favorites
package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/stockdeck/internal/common"
	"github.com/bobmcallan/stockdeck/internal/interfaces"
	"github.com/bobmcallan/stockdeck/internal/models"
)

// Service implements ProfileService on top of the profile store.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new profile service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// GetProfile retrieves a user's profile, creating it with defaults on first
// access. Identity fields from the verified token (email, name) override
// stored values in the returned document but are not persisted on read.
func (s *Service) GetProfile(ctx context.Context, userID, email, name string) (*models.UserProfile, error) {
	profile, err := s.storage.ProfileStore().GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}

	if profile == nil {
		displayName := name
		if displayName == "" {
			displayName = localPart(email)
		}
		profile = models.NewDefaultProfile(userID, email, displayName, s.now())
		if err := s.storage.ProfileStore().SaveProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("failed to create profile for %s: %w", userID, err)
		}
		s.logger.Info().Str("user_id", userID).Msg("Created new user profile")
		return profile, nil
	}

	if email != "" {
		profile.Email = email
	}
	if name != "" {
		profile.DisplayName = name
	}
	return profile, nil
}

// UpdateProfile applies a partial update to an existing profile. Only
// display name, preferences and favorites are writable; anything else in
// the request is ignored by the handler before it reaches here.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update *models.ProfileUpdate) (*models.UserProfile, error) {
	profile, err := s.storage.ProfileStore().GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}
	if profile == nil {
		return nil, fmt.Errorf("no profile exists for %s", userID)
	}

	if update.DisplayName != nil {
		profile.DisplayName = *update.DisplayName
	}
	if update.Preferences != nil {
		profile.Preferences = *update.Preferences
	}
	if update.Favorites != nil {
		profile.Favorites = *update.Favorites
	}
	profile.LastUpdated = s.now()

	if err := s.storage.ProfileStore().SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile for %s: %w", userID, err)
	}

	s.logger.Debug().Str("user_id", userID).Msg("Profile updated")
	return profile, nil
}

// AddFavorite adds a symbol to the user's favorites. Symbols are stored
// uppercased and deduplicated; re-adding an existing favorite only bumps
// the update timestamp.
func (s *Service) AddFavorite(ctx context.Context, userID, symbol string) error {
	profile, err := s.storage.ProfileStore().GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}
	if profile == nil {
		return fmt.Errorf("no profile exists for %s", userID)
	}

	upper := strings.ToUpper(symbol)
	found := false
	for _, existing := range profile.Favorites {
		if existing == upper {
			found = true
			break
		}
	}
	if !found {
		profile.Favorites = append(profile.Favorites, upper)
	}
	profile.LastUpdated = s.now()

	if err := s.storage.ProfileStore().SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save favorites for %s: %w", userID, err)
	}

	s.logger.Debug().Str("user_id", userID).Str("symbol", upper).Msg("Favorite added")
	return nil
}

// RemoveFavorite removes a symbol from the user's favorites. Removing a
// symbol that is not present succeeds and only bumps the update timestamp.
func (s *Service) RemoveFavorite(ctx context.Context, userID, symbol string) error {
	profile, err := s.storage.ProfileStore().GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}
	if profile == nil {
		return fmt.Errorf("no profile exists for %s", userID)
	}

	upper := strings.ToUpper(symbol)
	kept := profile.Favorites[:0]
	for _, existing := range profile.Favorites {
		if existing != upper {
			kept = append(kept, existing)
		}
	}
	profile.Favorites = kept
	profile.LastUpdated = s.now()

	if err := s.storage.ProfileStore().SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save favorites for %s: %w", userID, err)
	}

	s.logger.Debug().Str("user_id", userID).Str("symbol", upper).Msg("Favorite removed")
	return nil
}

// localPart returns the part of an email address before the @, or the whole
// string when there is no @.
func localPart(email string) string {
	if idx := strings.Index(email, "@"); idx >= 0 {
		return email[:idx]
	}
	return email
}

// Ensure Service implements ProfileService
var _ interfaces.ProfileService = (*Service)(nil)
