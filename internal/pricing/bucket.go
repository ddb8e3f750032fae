package pricing

import (
	"math"
	"sort"

	"radar/server/internal/models"
)

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between the closest order statistics.
func Quantile(sorted []int64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := float64(len(sorted)-1) * q
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return float64(sorted[lower])
	}
	frac := pos - float64(lower)
	return float64(sorted[lower]) + frac*float64(sorted[upper]-sorted[lower])
}

// Median returns the 50th percentile of unsorted values
func Median(values []int64) float64 {
	sorted := sortedCopy(values)
	return Quantile(sorted, 0.5)
}

// ComputeThresholds derives the 25th, 50th and 75th percentile of a price column
func ComputeThresholds(prices []int64) models.Thresholds {
	if len(prices) == 0 {
		return models.Thresholds{Empty: true}
	}
	sorted := sortedCopy(prices)
	return models.Thresholds{
		Q1: Quantile(sorted, 0.25),
		Q2: Quantile(sorted, 0.50),
		Q3: Quantile(sorted, 0.75),
	}
}

// Bucket assigns a price to its quartile bucket
func Bucket(t models.Thresholds, price int64) models.PriceBucket {
	if t.Empty {
		return models.BucketDefault
	}
	p := float64(price)
	switch {
	case p <= t.Q1:
		return models.BucketQ1
	case p <= t.Q2:
		return models.BucketQ2
	case p <= t.Q3:
		return models.BucketQ3
	default:
		return models.BucketQ4
	}
}

// Apply recomputes the thresholds of the dataset and assigns every transaction
// its bucket. Applying it twice to an unchanged dataset gives the same result.
func Apply(ds *models.Dataset) {
	ds.Thresholds = ComputeThresholds(ds.Prices())
	for i := range ds.Transactions {
		ds.Transactions[i].Bucket = Bucket(ds.Thresholds, ds.Transactions[i].Price)
	}
}

func sortedCopy(values []int64) []int64 {
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}
