package model

import "strings"

// UserPreferences is the matching profile for one user. The watched brand
// list is stored comma-joined, as a single aggregate loaded before matching.
type UserPreferences struct {
	BaseModel
	UserID        string   `db:"user_id" json:"user_id"`
	MaxPricePerKg *float64 `db:"max_price_per_kg" json:"max_price_per_kg"` // Nullable, €/kg
	WatchedBrands string   `db:"watched_brands" json:"watched_brands"`
	AlertsEnabled bool     `db:"alerts_enabled" json:"alerts_enabled"`
}

func (p *UserPreferences) BrandsList() []string {
	if p.WatchedBrands == "" {
		return nil
	}
	var brands []string
	for _, b := range strings.Split(p.WatchedBrands, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brands = append(brands, b)
		}
	}
	return brands
}

func (p *UserPreferences) SetBrandsList(brands []string) {
	p.WatchedBrands = strings.Join(brands, ",")
}

// AddBrand appends a brand unless it is already watched (case-insensitive).
// Returns false when the brand was already present.
func (p *UserPreferences) AddBrand(brand string) bool {
	brands := p.BrandsList()
	for _, b := range brands {
		if strings.EqualFold(b, brand) {
			return false
		}
	}
	p.SetBrandsList(append(brands, brand))
	return true
}

// RemoveBrand drops a brand (case-insensitive). Returns false when it was
// not watched.
func (p *UserPreferences) RemoveBrand(brand string) bool {
	brands := p.BrandsList()
	kept := brands[:0]
	for _, b := range brands {
		if !strings.EqualFold(b, brand) {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(brands) {
		return false
	}
	p.SetBrandsList(kept)
	return true
}
