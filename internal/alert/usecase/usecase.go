package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dav-92/catfoodbot/internal/alert"
	"github.com/dav-92/catfoodbot/internal/model"
	"github.com/dav-92/catfoodbot/pkg/logger"
)

type alertUseCase struct {
	repo   alert.Repository
	logger logger.ZapLogger
}

func NewAlertUseCase(repo alert.Repository, log logger.ZapLogger) alert.UseCase {
	return &alertUseCase{repo: repo, logger: log}
}

func (uc *alertUseCase) ShouldAlert(ctx context.Context, userID, productID string, candidatePrice float64) (bool, error) {
	record, err := uc.repo.Find(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if record == nil {
		return true, nil
	}
	// Re-alert only on genuine improvement; at an equal-or-better previous
	// price the user has already seen this deal.
	return candidatePrice < record.LastAlertedPrice, nil
}

func (uc *alertUseCase) RecordAlert(ctx context.Context, userID, productID string, price float64) error {
	return uc.repo.Upsert(ctx, &model.AlertSent{
		ID:               uuid.New().String(),
		UserID:           userID,
		ProductID:        productID,
		LastAlertedPrice: price,
		LastAlertedAt:    time.Now().UTC(),
	})
}

func (uc *alertUseCase) Reset(ctx context.Context, userID string) (int64, error) {
	removed, err := uc.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	uc.logger.Info("alert history reset",
		zap.String("user_id", userID),
		zap.Int64("removed", removed),
	)
	return removed, nil
}
