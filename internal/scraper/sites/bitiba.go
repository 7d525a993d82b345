package sites

import "github.com/dav-92/catfoodbot/internal/scraper"

// NewBitiba scrapes bitiba.de, which shares the zooplus storefront markup.
func NewBitiba(opts Options) scraper.Adapter {
	return &htmlAdapter{
		site:        "bitiba",
		baseURL:     "https://www.bitiba.de",
		categoryURL: "https://www.bitiba.de/shop/katzen/katzenfutter_nassfutter",
		opts:        opts,
	}
}
