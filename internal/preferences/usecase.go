package preferences

import (
	"context"
	"errors"

	"github.com/dav-92/catfoodbot/internal/model"
	"github.com/dav-92/catfoodbot/internal/preferences/dto"
)

// ErrInvalidPreference rejects malformed preference writes at this boundary
// so invalid values never reach the deal matcher.
var ErrInvalidPreference = errors.New("invalid preference")

type UseCase interface {
	// GetOrCreate returns the user's preferences, creating a disabled
	// default row on first contact.
	GetOrCreate(ctx context.Context, userID string) (*model.UserPreferences, error)
	Update(ctx context.Context, input *dto.UpdatePreferencesInput) (*model.UserPreferences, error)
	AddBrand(ctx context.Context, userID, brand string) (*model.UserPreferences, error)
	RemoveBrand(ctx context.Context, userID, brand string) (*model.UserPreferences, error)
	// AllEnabled returns an immutable snapshot of every alert-enabled user,
	// loaded as full aggregates for the matching pass.
	AllEnabled(ctx context.Context) ([]model.UserPreferences, error)
}
