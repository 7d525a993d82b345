package preferences

import (
	"context"

	"github.com/dav-92/catfoodbot/internal/model"
)

type Repository interface {
	FindByUserID(ctx context.Context, userID string) (*model.UserPreferences, error)
	Create(ctx context.Context, prefs *model.UserPreferences) error
	Update(ctx context.Context, prefs *model.UserPreferences) error
	FindAllEnabled(ctx context.Context) ([]model.UserPreferences, error)
}
