package models

// SortOrder selects the ordering of the transaction list
type SortOrder string

const (
	SortDateDesc  SortOrder = "date_desc"
	SortDateAsc   SortOrder = "date_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortPriceAsc  SortOrder = "price_asc"
	SortAreaDesc  SortOrder = "area_desc"
	SortAreaAsc   SortOrder = "area_asc"
)

// ListFilter narrows the transaction list of one dataset. Empty fields match all.
type ListFilter struct {
	Apartment string    `form:"apartment"`
	Dong      string    `form:"dong"`
	MinPrice  *int64    `form:"min_price"`
	MaxPrice  *int64    `form:"max_price"`
	Sort      SortOrder `form:"sort"`
}

// FilterOptions lists the values a client can filter the list by
type FilterOptions struct {
	Apartments []string `json:"apartments"`
	Dongs      []string `json:"dongs"`
	MinPrice   int64    `json:"min_price"`
	MaxPrice   int64    `json:"max_price"`
}

type Summary struct {
	TotalTransactions int     `json:"total_transactions"`
	AveragePrice      float64 `json:"average_price"`
	MedianPrice       float64 `json:"median_price"`
	AveragePyeong     float64 `json:"average_pyeong"`
}

type DongAverage struct {
	Dong         string  `json:"dong"`
	AveragePrice float64 `json:"average_price"`
	Count        int     `json:"count"`
}

type MonthlyAverage struct {
	Month        string  `json:"month"` // YYYY-MM of the deal date
	AveragePrice float64 `json:"average_price"`
	Count        int     `json:"count"`
}

type AreaBand struct {
	Label        string  `json:"label"`
	AveragePrice float64 `json:"average_price"`
	MedianPrice  float64 `json:"median_price"`
	Count        int     `json:"count"`
}
