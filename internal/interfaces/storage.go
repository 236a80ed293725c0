// Package interfaces defines service contracts for Stockdeck
package interfaces

import (
	"context"

	"github.com/bobmcallan/stockdeck/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	// Storage accessors
	InternalStore() InternalStore
	ProfileStore() ProfileStore
	ActivityStore() ActivityStore

	// Lifecycle
	Close() error
}

// InternalStore manages user accounts, per-user config, and system-level KV.
type InternalStore interface {
	// User accounts
	GetUser(ctx context.Context, userID string) (*models.InternalUser, error)
	GetUserByEmail(ctx context.Context, email string) (*models.InternalUser, error)
	SaveUser(ctx context.Context, user *models.InternalUser) error
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]string, error)

	// Per-user key-value config
	GetUserKV(ctx context.Context, userID, key string) (*models.UserKeyValue, error)
	SetUserKV(ctx context.Context, userID, key, value string) error
	DeleteUserKV(ctx context.Context, userID, key string) error
	ListUserKV(ctx context.Context, userID string) ([]*models.UserKeyValue, error)

	// System key-value (non-user-scoped)
	GetSystemKV(ctx context.Context, key string) (string, error)
	SetSystemKV(ctx context.Context, key, value string) error

	Close() error
}

// ProfileStore persists dashboard profile documents keyed by user ID.
type ProfileStore interface {
	// GetProfile retrieves a profile, or nil when none exists yet.
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)

	// SaveProfile upserts the full profile document.
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
}

// ActivityStore persists user activity events.
type ActivityStore interface {
	// SaveActivity appends one activity record.
	SaveActivity(ctx context.Context, record *models.ActivityRecord) error

	// ListActivity returns a user's activity, newest first, up to limit.
	ListActivity(ctx context.Context, userID string, limit int) ([]*models.ActivityRecord, error)
}
