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

func (r *PGRepository) Find(ctx context.Context, userID, productID string) (*model.AlertSent, error) {
	var record model.AlertSent
	query := `SELECT * FROM alerts_sent WHERE user_id = $1 AND product_id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &record, query, userID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Upsert keeps the single live record per (user, product) invariant in the
// store itself.
func (r *PGRepository) Upsert(ctx context.Context, record *model.AlertSent) error {
	query := `
        INSERT INTO alerts_sent (id, user_id, product_id, last_alerted_price, last_alerted_at)
        VALUES (:id, :user_id, :product_id, :last_alerted_price, :last_alerted_at)
        ON CONFLICT (user_id, product_id) DO UPDATE
        SET last_alerted_price = EXCLUDED.last_alerted_price,
            last_alerted_at = EXCLUDED.last_alerted_at
    `
	_, err := r.DB.NamedExecContext(ctx, query, record)
	return err
}

func (r *PGRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM alerts_sent WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
