package dto

type UpdatePreferencesInput struct {
	UserID        string   `json:"-"`
	MaxPricePerKg *float64 `json:"max_price_per_kg"`
	WatchedBrands []string `json:"watched_brands"`
	AlertsEnabled *bool    `json:"alerts_enabled"`
}

type AddBrandInput struct {
	Brand string `json:"brand" binding:"required"`
}
