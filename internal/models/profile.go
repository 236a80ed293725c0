package models

import "time"

// Default profile preferences applied when a profile is first created.
const (
	DefaultTimeRange = "1M"
	DefaultSymbols   = "AAPL,MSFT,GOOGL"
)

// UserProfile is the dashboard profile document keyed by user ID. Field
// names follow the dashboard wire format (camelCase), which is also the
// stored document shape.
type UserProfile struct {
	UID         string             `json:"uid"`
	Email       string             `json:"email"`
	DisplayName string             `json:"displayName"`
	Preferences ProfilePreferences `json:"preferences"`
	Favorites   []string           `json:"favorites"`
	CreatedAt   time.Time          `json:"createdAt"`
	LastLogin   time.Time          `json:"lastLogin"`
	LastUpdated time.Time          `json:"lastUpdated,omitzero"`
}

// ProfilePreferences holds the dashboard display preferences.
type ProfilePreferences struct {
	DefaultTimeRange string `json:"defaultTimeRange"`
	DefaultSymbols   string `json:"defaultSymbols"`
}

// ProfileUpdate is a partial profile update. Only these fields are writable
// through the API; nil means "leave unchanged".
type ProfileUpdate struct {
	DisplayName *string             `json:"displayName"`
	Preferences *ProfilePreferences `json:"preferences"`
	Favorites   *[]string           `json:"favorites"`
}

// NewDefaultProfile builds the profile document created on first access.
func NewDefaultProfile(uid, email, displayName string, now time.Time) *UserProfile {
	return &UserProfile{
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		Preferences: ProfilePreferences{
			DefaultTimeRange: DefaultTimeRange,
			DefaultSymbols:   DefaultSymbols,
		},
		Favorites: []string{},
		CreatedAt: now,
		LastLogin: now,
	}
}
