package sites

import "github.com/dav-92/catfoodbot/internal/scraper"

// NewZooplus scrapes the zooplus.de wet cat food category listing.
func NewZooplus(opts Options) scraper.Adapter {
	return &htmlAdapter{
		site:        "zooplus",
		baseURL:     "https://www.zooplus.de",
		categoryURL: "https://www.zooplus.de/shop/katzen/katzenfutter_nassfutter",
		opts:        opts,
	}
}
