package sites

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dav-92/catfoodbot/internal/scraper"
)

// zooroyalAdapter reads the zooroyal.de product listing API. The storefront
// itself is rendered client-side, but the listing endpoint serves plain JSON
// per category page.
type zooroyalAdapter struct {
	baseURL string
	client  *http.Client
	opts    Options
}

// NewZooroyal scrapes the zooroyal.de wet cat food listing API.
func NewZooroyal(opts Options) scraper.Adapter {
	return &zooroyalAdapter{
		baseURL: "https://www.zooroyal.de",
		client:  &http.Client{Timeout: opts.RequestTimeout},
		opts:    opts,
	}
}

func (a *zooroyalAdapter) Site() string { return "zooroyal" }

type zooroyalListing struct {
	Total    int               `json:"total"`
	Products []zooroyalProduct `json:"products"`
}

type zooroyalProduct struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	ContentSize string  `json:"contentSize"`
	URL         string  `json:"url"`
	Price       float64 `json:"price"`
	StrikePrice float64 `json:"strikePrice"`
	PromoLabel  string  `json:"promoLabel"`
	Available   bool    `json:"available"`
}

func (a *zooroyalAdapter) FetchAndParse(ctx context.Context) ([]scraper.ScrapedProduct, error) {
	var products []scraper.ScrapedProduct
	seen := map[string]bool{}

	for page := 1; page <= a.opts.maxPages(); page++ {
		listing, err := a.fetchPage(ctx, page)
		if err != nil {
			// Keep what earlier pages yielded; a first-page failure is a
			// hard site failure.
			if len(products) == 0 {
				return nil, err
			}
			return products, nil
		}

		for _, zp := range listing.Products {
			p, ok := a.convert(zp)
			if !ok || seen[p.ExternalID] {
				continue
			}
			seen[p.ExternalID] = true
			products = append(products, p)
		}

		if len(listing.Products) == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return products, ctx.Err()
		case <-time.After(a.opts.RequestDelay):
		}
	}
	return products, nil
}

func (a *zooroyalAdapter) fetchPage(ctx context.Context, page int) (*zooroyalListing, error) {
	url := fmt.Sprintf("%s/api/v1/products?category=katzen-nassfutter&page=%d", a.baseURL, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scraper.ErrSiteUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: listing page %d: status %d", scraper.ErrSiteUnreachable, page, resp.StatusCode)
	}

	var listing zooroyalListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("%w: listing page %d: %v", scraper.ErrParseFailure, page, err)
	}
	return &listing, nil
}

func (a *zooroyalAdapter) convert(zp zooroyalProduct) (scraper.ScrapedProduct, bool) {
	var p scraper.ScrapedProduct
	if zp.ID == "" || zp.Name == "" || zp.Price <= 0 || !zp.Available {
		return p, false
	}

	brand := zp.Brand
	if brand == "" {
		brand = extractBrand(zp.Name)
	}
	size := zp.ContentSize
	if size == "" {
		size = extractSize(zp.Name)
	}
	productURL := zp.URL
	if !strings.HasPrefix(productURL, "http") {
		productURL = a.baseURL + productURL
	}

	p = scraper.ScrapedProduct{
		Site:          "zooroyal",
		ExternalID:    "zooroyal:" + zp.ID,
		BaseProductID: baseProductID(zp.ID),
		VariantName:   extractVariantName(zp.Name, brand, size),
		Name:          zp.Name,
		Brand:         brand,
		Size:          size,
		URL:           productURL,
		Price:         zp.Price,
		IsOnSale:      zp.StrikePrice > zp.Price && zp.StrikePrice > 0,
		SaleTag:       zp.PromoLabel,
	}
	return p, true
}
