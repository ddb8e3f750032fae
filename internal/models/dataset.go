package models

import "time"

// MonthStatus tags the outcome of fetching one calendar month.
type MonthStatus string

const (
	MonthOK     MonthStatus = "ok"
	MonthEmpty  MonthStatus = "empty"
	MonthFailed MonthStatus = "failed"
)

// MonthResult is the tagged result of one upstream fetch.
type MonthResult struct {
	YearMonth    string        `json:"year_month"`
	Status       MonthStatus   `json:"status"`
	Count        int           `json:"count"`
	Dropped      int           `json:"dropped"`
	Error        string        `json:"error,omitempty"`
	Transactions []Transaction `json:"-"`
}

// DatasetStatus summarizes a whole window query.
type DatasetStatus string

const (
	DatasetOK          DatasetStatus = "ok"
	DatasetNoData      DatasetStatus = "no_data"
	DatasetUnavailable DatasetStatus = "unavailable"
)

// Region identifies the district a dataset was queried for
type Region struct {
	Province     string `json:"province"`
	District     string `json:"district"`
	DistrictCode string `json:"district_code"`
}

// Thresholds holds the quartile boundaries of a price column.
type Thresholds struct {
	Q1    float64 `json:"q1"`
	Q2    float64 `json:"q2"`
	Q3    float64 `json:"q3"`
	Empty bool    `json:"empty"`
}

// Dataset is the concatenation of all month results of one window query.
// Transactions keep the window iteration order and are not deduplicated.
type Dataset struct {
	ID           string        `json:"query_id"`
	Region       Region        `json:"region"`
	Months       int           `json:"months"`
	Results      []MonthResult `json:"results"`
	Transactions []Transaction `json:"-"`
	Thresholds   Thresholds    `json:"thresholds"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Status reports whether the dataset has data, legitimately has none, or
// has none because the upstream could not be reached.
func (d *Dataset) Status() DatasetStatus {
	if len(d.Transactions) > 0 {
		return DatasetOK
	}
	for _, r := range d.Results {
		if r.Status == MonthFailed {
			return DatasetUnavailable
		}
	}
	return DatasetNoData
}

// Partial is true when some months failed but others returned records
func (d *Dataset) Partial() bool {
	if len(d.Transactions) == 0 {
		return false
	}
	for _, r := range d.Results {
		if r.Status == MonthFailed {
			return true
		}
	}
	return false
}

// Prices returns the price column in dataset order
func (d *Dataset) Prices() []int64 {
	prices := make([]int64, len(d.Transactions))
	for i, t := range d.Transactions {
		prices[i] = t.Price
	}
	return prices
}
