package alert

import (
	"context"

	"github.com/dav-92/catfoodbot/internal/model"
)

type Repository interface {
	Find(ctx context.Context, userID, productID string) (*model.AlertSent, error)
	Upsert(ctx context.Context, record *model.AlertSent) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
