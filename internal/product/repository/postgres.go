package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dav-92/catfoodbot/internal/model"
	"github.com/dav-92/catfoodbot/internal/product/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindBySiteExternalID(ctx context.Context, site, externalID string) (*model.Product, error) {
	var p model.Product
	query := `SELECT * FROM products WHERE site = $1 AND external_id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &p, query, site, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, site, external_id, base_product_id, variant_name, name, brand,
            size, url, price, unit_price, currency, last_seen_at,
            created_at, updated_at
        )
        VALUES (
            :id, :site, :external_id, :base_product_id, :variant_name, :name, :brand,
            :size, :url, :price, :unit_price, :currency, :last_seen_at,
            :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) UpdateObserved(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET base_product_id = :base_product_id,
            variant_name = :variant_name,
            name = :name,
            brand = :brand,
            size = :size,
            url = :url,
            price = :price,
            unit_price = :unit_price,
            last_seen_at = :last_seen_at,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) TouchLastSeen(ctx context.Context, id string, seenAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE products SET last_seen_at = $1, updated_at = $1 WHERE id = $2`,
		seenAt, id)
	return err
}

func (r *PGRepository) InsertPriceHistory(ctx context.Context, h *model.PriceHistory) error {
	query := `
        INSERT INTO price_history (id, product_id, price, unit_price, is_on_sale, sale_tag, recorded_at)
        VALUES (:id, :product_id, :price, :unit_price, :is_on_sale, :sale_tag, :recorded_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, h)
	return err
}

func (r *PGRepository) FindHistory(ctx context.Context, productID string, limit int) ([]model.PriceHistory, error) {
	if limit <= 0 {
		limit = 200
	}
	var history []model.PriceHistory
	query := `
        SELECT * FROM price_history
        WHERE product_id = $1
        ORDER BY recorded_at DESC
        LIMIT $2
    `
	err := r.DB.SelectContext(ctx, &history, query, productID, limit)
	return history, err
}

// PruneHistory removes history rows older than maxAge. Idempotent: a second
// call with the same cutoff deletes nothing.
func (r *PGRepository) PruneHistory(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res, err := r.DB.ExecContext(ctx, `DELETE FROM price_history WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.Site != "" {
		conditions = append(conditions, "site = :site")
		args["site"] = f.Site
	}
	if f.Brand != "" {
		conditions = append(conditions, "brand ILIKE :brand")
		args["brand"] = "%" + f.Brand + "%"
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR brand ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	orderBy := "last_seen_at DESC"
	switch f.SortBy {
	case "name":
		orderBy = "name"
	case "price":
		orderBy = "price"
	case "unit_price":
		orderBy = "unit_price NULLS LAST"
	}
	if f.SortBy != "" {
		if strings.EqualFold(f.SortOrder, "desc") {
			orderBy += " DESC"
		} else {
			orderBy += " ASC"
		}
	}

	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY %s", whereClause, orderBy)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	var products []model.Product
	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

// FindSeenSince returns products observed by a scrape after the given time,
// i.e. the listings that are currently live.
func (r *PGRepository) FindSeenSince(ctx context.Context, since time.Time) ([]model.Product, error) {
	var products []model.Product
	query := `SELECT * FROM products WHERE last_seen_at >= $1 ORDER BY unit_price NULLS LAST`
	err := r.DB.SelectContext(ctx, &products, query, since)
	return products, err
}

func (r *PGRepository) DataFreshness(ctx context.Context) (*time.Time, error) {
	var ts sql.NullTime
	err := r.DB.GetContext(ctx, &ts, `SELECT max(recorded_at) FROM price_history`)
	if err != nil {
		return nil, err
	}
	if !ts.Valid {
		return nil, nil
	}
	return &ts.Time, nil
}
