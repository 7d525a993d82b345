package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dav-92/catfoodbot/internal/model"
	"github.com/dav-92/catfoodbot/internal/preferences"
	"github.com/dav-92/catfoodbot/internal/preferences/dto"
	"github.com/dav-92/catfoodbot/pkg/cache"
	"github.com/dav-92/catfoodbot/pkg/logger"
)

type preferencesUseCase struct {
	repo   preferences.Repository
	cache  *cache.RedisClient
	logger logger.ZapLogger
}

func NewPreferencesUseCase(repo preferences.Repository, cache *cache.RedisClient, log logger.ZapLogger) preferences.UseCase {
	return &preferencesUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func (uc *preferencesUseCase) GetOrCreate(ctx context.Context, userID string) (*model.UserPreferences, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: empty user id", preferences.ErrInvalidPreference)
	}

	if cached := uc.fromCache(ctx, userID); cached != nil {
		return cached, nil
	}

	prefs, err := uc.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		now := time.Now().UTC()
		prefs = &model.UserPreferences{
			BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			UserID:        userID,
			AlertsEnabled: false,
		}
		if err := uc.repo.Create(ctx, prefs); err != nil {
			return nil, err
		}
	}

	uc.toCache(ctx, prefs)
	return prefs, nil
}

func (uc *preferencesUseCase) Update(ctx context.Context, input *dto.UpdatePreferencesInput) (*model.UserPreferences, error) {
	if input.MaxPricePerKg != nil && *input.MaxPricePerKg <= 0 {
		return nil, fmt.Errorf("%w: max price per kg must be positive, got %v",
			preferences.ErrInvalidPreference, *input.MaxPricePerKg)
	}
	if input.WatchedBrands != nil {
		for _, b := range input.WatchedBrands {
			if strings.TrimSpace(b) == "" {
				return nil, fmt.Errorf("%w: blank brand name", preferences.ErrInvalidPreference)
			}
			if strings.Contains(b, ",") {
				return nil, fmt.Errorf("%w: brand name must not contain commas: %q",
					preferences.ErrInvalidPreference, b)
			}
		}
	}

	prefs, err := uc.GetOrCreate(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.MaxPricePerKg != nil {
		prefs.MaxPricePerKg = input.MaxPricePerKg
	}
	if input.WatchedBrands != nil {
		prefs.SetBrandsList(input.WatchedBrands)
	}
	if input.AlertsEnabled != nil {
		prefs.AlertsEnabled = *input.AlertsEnabled
	}
	prefs.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, prefs); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, input.UserID)
	return prefs, nil
}

func (uc *preferencesUseCase) AddBrand(ctx context.Context, userID, brand string) (*model.UserPreferences, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, fmt.Errorf("%w: blank brand name", preferences.ErrInvalidPreference)
	}
	if strings.Contains(brand, ",") {
		return nil, fmt.Errorf("%w: brand name must not contain commas: %q", preferences.ErrInvalidPreference, brand)
	}

	prefs, err := uc.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !prefs.AddBrand(brand) {
		return prefs, nil
	}
	prefs.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, prefs); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, userID)
	return prefs, nil
}

func (uc *preferencesUseCase) RemoveBrand(ctx context.Context, userID, brand string) (*model.UserPreferences, error) {
	prefs, err := uc.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !prefs.RemoveBrand(brand) {
		return prefs, nil
	}
	prefs.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, prefs); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, userID)
	return prefs, nil
}

func (uc *preferencesUseCase) AllEnabled(ctx context.Context) ([]model.UserPreferences, error) {
	return uc.repo.FindAllEnabled(ctx)
}

func cacheKey(userID string) string {
	return "prefs:" + userID
}

func (uc *preferencesUseCase) fromCache(ctx context.Context, userID string) *model.UserPreferences {
	if uc.cache == nil {
		return nil
	}
	val, err := uc.cache.Client.Get(ctx, cacheKey(userID)).Result()
	if err != nil {
		return nil
	}
	var prefs model.UserPreferences
	if err := json.Unmarshal([]byte(val), &prefs); err != nil {
		return nil
	}
	return &prefs
}

func (uc *preferencesUseCase) toCache(ctx context.Context, prefs *model.UserPreferences) {
	if uc.cache == nil {
		return
	}
	if data, err := json.Marshal(prefs); err == nil {
		uc.cache.Client.Set(ctx, cacheKey(prefs.UserID), data, 10*time.Minute)
	}
}

func (uc *preferencesUseCase) invalidate(ctx context.Context, userID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		uc.logger.Warn("failed to invalidate preference cache",
			zap.String("user_id", userID), zap.Error(err))
	}
}
