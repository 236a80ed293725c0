// Package interfaces defines service contracts for Stockdeck
package interfaces

import (
	"context"

	"github.com/bobmcallan/stockdeck/internal/models"
)

// StockDataService produces per-symbol OHLCV series for dashboard requests.
type StockDataService interface {
	// GetStockData resolves a comma-separated symbol list and range token
	// into one series per symbol. The call is total: every requested symbol
	// is present in the result, with synthetic data substituted wherever
	// live data could not be obtained. fromDate/toDate are optional ISO
	// date bounds that shape synthetic series sizing.
	GetStockData(ctx context.Context, symbols, rangeToken, fromDate, toDate string) models.StockDataResult

	// MapRange resolves a range token to provider query parameters.
	MapRange(rangeToken string) models.ProviderQuery
}

// ProfileService manages user profile documents and favorites.
type ProfileService interface {
	// GetProfile retrieves a user's profile, creating it with defaults on
	// first access and refreshing the last-login timestamp.
	GetProfile(ctx context.Context, userID, email, name string) (*models.UserProfile, error)

	// UpdateProfile applies a partial update; only display name,
	// preferences and favorites are writable.
	UpdateProfile(ctx context.Context, userID string, update *models.ProfileUpdate) (*models.UserProfile, error)

	// AddFavorite adds an uppercased symbol to the user's favorites set.
	AddFavorite(ctx context.Context, userID, symbol string) error

	// RemoveFavorite removes an uppercased symbol from the user's favorites.
	RemoveFavorite(ctx context.Context, userID, symbol string) error
}

// ActivityService records and queries user activity events.
type ActivityService interface {
	// Record logs a user action. Failures are logged, never propagated —
	// activity logging must not break the request that triggered it.
	Record(ctx context.Context, userID, action string, metadata map[string]any)

	// Recent returns the user's most recent activity, newest first.
	Recent(ctx context.Context, userID string, limit int) ([]*models.ActivityRecord, error)
}
