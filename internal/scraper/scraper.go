package scraper

import (
	"context"
	"errors"
)

// Sentinel failure classes for a scrape attempt. Adapters wrap the concrete
// cause so the orchestrator can classify per-site outcomes.
var (
	ErrSiteUnreachable = errors.New("site unreachable")
	ErrParseFailure    = errors.New("parse failure")
)

// ScrapedProduct is the site-independent observation every adapter emits.
type ScrapedProduct struct {
	Site          string
	ExternalID    string
	BaseProductID string
	VariantName   string
	Name          string
	Brand         string
	Size          string
	URL           string
	Price         float64
	IsOnSale      bool
	SaleTag       string
}

// Adapter fetches and parses one retailer's catalog. Each adapter is an
// independent failure domain; it must respect ctx cancellation.
type Adapter interface {
	Site() string
	FetchAndParse(ctx context.Context) ([]ScrapedProduct, error)
}
