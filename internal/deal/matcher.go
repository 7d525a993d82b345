package deal

import (
	"sort"

	"github.com/dav-92/catfoodbot/internal/model"
	"github.com/dav-92/catfoodbot/internal/scraper"
)

// Candidate is a product that currently satisfies a user's preferences.
type Candidate struct {
	Product   model.Product
	UnitPrice float64
}

// OtherOffer points at the same offering on another site, shown alongside
// the cheapest one.
type OtherOffer struct {
	Site      string
	UnitPrice float64
	URL       string
}

// GroupedCandidate is the cheapest offering within one match-key group plus
// the sites it was beaten on.
type GroupedCandidate struct {
	Candidate
	OtherSites []OtherOffer
}

// FindDeals computes the deals qualifying for one user. Pure and
// deterministic: same inputs, same output. A product qualifies when its unit
// price is known, under the user's threshold (if any), and its brand matches
// the watched set (if non-empty). Brand matching is normalized bidirectional
// substring: "macs" matches "MAC's Premium" and "wild" matches "Wildcraft".
func FindDeals(products []model.Product, prefs model.UserPreferences) []Candidate {
	watched := prefs.BrandsList()

	var deals []Candidate
	for _, p := range products {
		if p.UnitPrice == nil {
			continue
		}
		if prefs.MaxPricePerKg != nil && *p.UnitPrice > *prefs.MaxPricePerKg {
			continue
		}
		if len(watched) > 0 && !matchesAny(watched, p.Brand) {
			continue
		}
		deals = append(deals, Candidate{Product: p, UnitPrice: *p.UnitPrice})
	}

	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].UnitPrice < deals[j].UnitPrice
	})
	return deals
}

func matchesAny(watched []string, brand string) bool {
	for _, w := range watched {
		if scraper.BrandsMatch(w, brand) {
			return true
		}
	}
	return false
}

// GroupCheapest collapses candidates that are the same offering on
// different sites (same brand + normalized size) down to the cheapest one
// per group, carrying the beaten sites along. Within one site the cheapest
// listing per group wins first, so duplicate variants don't produce
// duplicate alerts.
func GroupCheapest(deals []Candidate) []GroupedCandidate {
	type siteKey struct {
		match string
		site  string
	}

	// Cheapest per (match key, site).
	perSite := map[siteKey]Candidate{}
	for _, d := range deals {
		k := siteKey{match: matchKeyOf(d.Product), site: d.Product.Site}
		if best, ok := perSite[k]; !ok || d.UnitPrice < best.UnitPrice {
			perSite[k] = d
		}
	}

	groups := map[string][]Candidate{}
	for k, d := range perSite {
		groups[k.match] = append(groups[k.match], d)
	}

	var out []GroupedCandidate
	for _, variants := range groups {
		sort.SliceStable(variants, func(i, j int) bool {
			return variants[i].UnitPrice < variants[j].UnitPrice
		})
		g := GroupedCandidate{Candidate: variants[0]}
		for _, v := range variants[1:] {
			g.OtherSites = append(g.OtherSites, OtherOffer{
				Site:      v.Product.Site,
				UnitPrice: v.UnitPrice,
				URL:       v.Product.URL,
			})
		}
		out = append(out, g)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UnitPrice < out[j].UnitPrice
	})
	return out
}

func matchKeyOf(p model.Product) string {
	size := ""
	if p.Size != nil {
		size = *p.Size
	}
	return scraper.MatchKey(p.Brand, size, p.Name)
}
