package sites

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/dav-92/catfoodbot/internal/scraper"
)

// Options are shared fetch settings every adapter takes from config.
type Options struct {
	UserAgent      string
	RequestDelay   time.Duration
	RequestTimeout time.Duration
	MaxPages       int
}

func (o Options) maxPages() int {
	if o.MaxPages <= 0 {
		return 3
	}
	return o.MaxPages
}

// htmlAdapter is the shared colly implementation for the zooplus-family
// storefronts, which render the same product-card markup. Site specifics
// (domain, category listing) come from the concrete constructors.
type htmlAdapter struct {
	site        string
	baseURL     string
	categoryURL string
	opts        Options
}

func (a *htmlAdapter) Site() string { return a.site }

var (
	priceRe         = regexp.MustCompile(`(\d+(?:[.,]\d{2}))\s*€`)
	perUnitPriceRe  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d{2}))\s*€\s*/\s*(?:kg|g|ml|l|Stück)`)
	discountBadgeRe = regexp.MustCompile(`(?i)(-?\s*\d+)\s*%\s*(?:Extra-?)?Rabatt`)
	externalIDRe    = regexp.MustCompile(`/(\d+)(?:\?|$|#)`)
)

func (a *htmlAdapter) FetchAndParse(ctx context.Context) ([]scraper.ScrapedProduct, error) {
	host := hostOf(a.baseURL)

	c := colly.NewCollector(
		colly.AllowedDomains(host, "www."+strings.TrimPrefix(host, "www.")),
		colly.UserAgent(a.opts.UserAgent),
	)
	c.SetRequestTimeout(a.opts.RequestTimeout)
	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 2,
		Delay:       a.opts.RequestDelay,
		RandomDelay: a.opts.RequestDelay,
	})

	var (
		mu       sync.Mutex
		products []scraper.ScrapedProduct
		seen     = map[string]bool{}
		fetchErr error
	)

	c.OnHTML(`[class*="ProductCard"], [class*="productCard"]`, func(e *colly.HTMLElement) {
		p, ok := a.parseCard(e)
		if !ok {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if !seen[p.ExternalID] {
			seen[p.ExternalID] = true
			products = append(products, p)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		if fetchErr == nil {
			fetchErr = fmt.Errorf("%w: %s: %v", scraper.ErrSiteUnreachable, r.Request.URL, err)
		}
	})

	for page := 1; page <= a.opts.maxPages(); page++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		pageURL := a.categoryURL
		if page > 1 {
			pageURL = fmt.Sprintf("%s?p=%d", a.categoryURL, page)
		}
		if err := c.Visit(pageURL); err != nil {
			mu.Lock()
			if fetchErr == nil {
				fetchErr = fmt.Errorf("%w: %s: %v", scraper.ErrSiteUnreachable, pageURL, err)
			}
			mu.Unlock()
		}
	}
	c.Wait()

	// A transport error with zero parsed products is a hard site failure;
	// with partial results the pages that did load still count.
	if fetchErr != nil && len(products) == 0 {
		return nil, fetchErr
	}
	return products, nil
}

func (a *htmlAdapter) parseCard(e *colly.HTMLElement) (scraper.ScrapedProduct, bool) {
	var p scraper.ScrapedProduct

	href := e.ChildAttr(`a[href*="/shop/"]`, "href")
	if href == "" {
		return p, false
	}
	productURL := e.Request.AbsoluteURL(href)

	rawID := extractExternalID(productURL)
	if rawID == "" {
		return p, false
	}

	text := e.Text
	if strings.Contains(strings.ToLower(text), "nicht lieferbar") {
		return p, false
	}

	name := cleanName(firstNonEmpty(
		e.ChildText(`[class*="productName"]`),
		e.ChildText(`[class*="ProductName"]`),
		e.ChildText("h2"),
		e.ChildText("h3"),
		e.ChildText(`a[href*="/shop/"]`),
	))
	if len(name) < 3 {
		return p, false
	}

	price, ok := extractPrice(text)
	if !ok {
		return p, false
	}

	saleTag, onSale := extractSaleTag(text)

	brand := extractBrand(name)
	size := extractSize(name)
	p = scraper.ScrapedProduct{
		Site:          a.site,
		ExternalID:    a.site + ":" + rawID,
		BaseProductID: baseProductID(rawID),
		VariantName:   extractVariantName(name, brand, size),
		Name:          name,
		Brand:         brand,
		Size:          size,
		URL:           productURL,
		Price:         price,
		IsOnSale:      onSale,
		SaleTag:       saleTag,
	}
	return p, true
}

// extractExternalID prefers the activeVariant query parameter (full variant
// ID like "564091.13") over the trailing path segment.
func extractExternalID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if v := u.Query().Get("activeVariant"); v != "" {
		return v
	}
	if m := externalIDRe.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	return ""
}

func baseProductID(rawID string) string {
	if i := strings.IndexByte(rawID, '.'); i > 0 {
		return rawID[:i]
	}
	return rawID
}

// extractPrice picks the lowest plain euro price on the card, excluding
// per-unit prices (€/kg etc.) which describe the same offer differently.
func extractPrice(text string) (float64, bool) {
	perUnit := map[float64]bool{}
	for _, m := range perUnitPriceRe.FindAllStringSubmatch(text, -1) {
		perUnit[parseEuro(m[1])] = true
	}

	best := 0.0
	for _, m := range priceRe.FindAllStringSubmatch(text, -1) {
		v := parseEuro(m[1])
		if v <= 0 || perUnit[v] {
			continue
		}
		if best == 0 || v < best {
			best = v
		}
	}
	return best, best > 0
}

func extractSaleTag(text string) (string, bool) {
	m := discountBadgeRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, m[1])
	pct, _ := strconv.Atoi(digits)
	if pct <= 0 {
		return "", false
	}
	return fmt.Sprintf("-%d%% Rabatt", pct), true
}

func parseEuro(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}

func hostOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	return u.Host
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
