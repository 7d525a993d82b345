package model

import "time"

// Product is one listing on one retailer site. Identity is (site,
// external_id); the same physical product on another site is a separate row
// linked only through its match key.
type Product struct {
	BaseModel
	Site          string     `db:"site" json:"site"`
	ExternalID    string     `db:"external_id" json:"external_id"`
	BaseProductID *string    `db:"base_product_id" json:"base_product_id"` // Nullable, variant grouping
	VariantName   *string    `db:"variant_name" json:"variant_name"`       // Nullable
	Name          string     `db:"name" json:"name"`
	Brand         string     `db:"brand" json:"brand"`
	Size          *string    `db:"size" json:"size"` // Raw size string, e.g. "24 x 800 g"
	URL           string     `db:"url" json:"url"`
	Price         float64    `db:"price" json:"price"`
	UnitPrice     *float64   `db:"unit_price" json:"unit_price"` // €/kg; nil when size unparseable
	Currency      string     `db:"currency" json:"currency"`
	LastSeenAt    time.Time  `db:"last_seen_at" json:"last_seen_at"`
	History       []PriceHistory `db:"-" json:"history,omitempty"`
}

type PriceHistory struct {
	ID         string    `db:"id" json:"id"`
	ProductID  string    `db:"product_id" json:"product_id"`
	Price      float64   `db:"price" json:"price"`
	UnitPrice  *float64  `db:"unit_price" json:"unit_price"`
	IsOnSale   bool      `db:"is_on_sale" json:"is_on_sale"`
	SaleTag    *string   `db:"sale_tag" json:"sale_tag"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}
