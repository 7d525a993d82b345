package dto

type ProductFilters struct {
	Site        string
	Brand       string
	SearchQuery string
	SortBy      string
	SortOrder   string
	Page        int
	PageSize    int
}

// UpsertFailure records one product whose persistence failed; the rest of
// the batch is unaffected.
type UpsertFailure struct {
	Site       string `json:"site"`
	ExternalID string `json:"external_id"`
	Error      string `json:"error"`
}

type UpsertReport struct {
	Created      int             `json:"created"`
	PriceChanged int             `json:"price_changed"`
	Unchanged    int             `json:"unchanged"`
	Failed       []UpsertFailure `json:"failed,omitempty"`
}

func (r *UpsertReport) Total() int {
	return r.Created + r.PriceChanged + r.Unchanged + len(r.Failed)
}
