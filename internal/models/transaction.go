package models

import "time"

// PriceBucket is the quartile tier of a transaction price within one dataset.
type PriceBucket int

const (
	// BucketDefault is used when the dataset has no prices to split.
	BucketDefault PriceBucket = iota
	BucketQ1
	BucketQ2
	BucketQ3
	BucketQ4
)

// Color returns the marker color used by the map view for the bucket
func (b PriceBucket) Color() string {
	switch b {
	case BucketQ1:
		return "#4CAF50"
	case BucketQ2:
		return "#2196F3"
	case BucketQ3:
		return "#FF9800"
	case BucketQ4:
		return "#F44336"
	default:
		return "#258fff"
	}
}

// Label returns the legend label for the bucket
func (b PriceBucket) Label() string {
	switch b {
	case BucketQ1:
		return "하위 25%"
	case BucketQ2:
		return "25~50%"
	case BucketQ3:
		return "50~75%"
	case BucketQ4:
		return "상위 25%"
	default:
		return "전체"
	}
}

// Transaction is one reported apartment sale.
type Transaction struct {
	Apartment string      `json:"apartment"`
	Dong      string      `json:"dong"`
	Jibun     string      `json:"jibun"`
	Price     int64       `json:"price"` // 만원
	Area      float64     `json:"area"`  // m²
	Pyeong    float64     `json:"pyeong"`
	Floor     int         `json:"floor"`
	BuildYear int         `json:"build_year"`
	DealDate  time.Time   `json:"deal_date"`
	YearMonth string      `json:"year_month"` // source month, YYYYMM
	Bucket    PriceBucket `json:"bucket"`
}
