package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/dav-92/catfoodbot/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindByUserID(ctx context.Context, userID string) (*model.UserPreferences, error) {
	var prefs model.UserPreferences
	query := `SELECT * FROM user_preferences WHERE user_id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &prefs, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &prefs, nil
}

func (r *PGRepository) Create(ctx context.Context, prefs *model.UserPreferences) error {
	query := `
        INSERT INTO user_preferences (
            id, user_id, max_price_per_kg, watched_brands, alerts_enabled,
            created_at, updated_at
        )
        VALUES (
            :id, :user_id, :max_price_per_kg, :watched_brands, :alerts_enabled,
            :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, prefs)
	return err
}

func (r *PGRepository) Update(ctx context.Context, prefs *model.UserPreferences) error {
	query := `
        UPDATE user_preferences
        SET max_price_per_kg = :max_price_per_kg,
            watched_brands = :watched_brands,
            alerts_enabled = :alerts_enabled,
            updated_at = :updated_at
        WHERE user_id = :user_id
    `
	_, err := r.DB.NamedExecContext(ctx, query, prefs)
	return err
}

func (r *PGRepository) FindAllEnabled(ctx context.Context) ([]model.UserPreferences, error) {
	var prefs []model.UserPreferences
	query := `SELECT * FROM user_preferences WHERE alerts_enabled = true ORDER BY user_id`
	err := r.DB.SelectContext(ctx, &prefs, query)
	return prefs, err
}
