package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatasetStatus(t *testing.T) {
	tests := []struct {
		name            string
		results         []MonthResult
		transactions    []Transaction
		expectedStatus  DatasetStatus
		expectedPartial bool
	}{
		{
			name:           "Empty months mean no data",
			results:        []MonthResult{{YearMonth: "202610", Status: MonthEmpty}},
			expectedStatus: DatasetNoData,
		},
		{
			name: "Failed month without records is unavailable",
			results: []MonthResult{
				{YearMonth: "202610", Status: MonthEmpty},
				{YearMonth: "202609", Status: MonthFailed, Error: "timeout"},
			},
			expectedStatus: DatasetUnavailable,
		},
		{
			name: "Records with a failed month are partial",
			results: []MonthResult{
				{YearMonth: "202610", Status: MonthOK, Count: 1},
				{YearMonth: "202609", Status: MonthFailed},
			},
			transactions:    []Transaction{{Price: 1000}},
			expectedStatus:  DatasetOK,
			expectedPartial: true,
		},
		{
			name:           "All months ok",
			results:        []MonthResult{{YearMonth: "202610", Status: MonthOK, Count: 1}},
			transactions:   []Transaction{{Price: 1000}},
			expectedStatus: DatasetOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := &Dataset{Results: tt.results, Transactions: tt.transactions}
			assert.Equal(t, tt.expectedStatus, ds.Status())
			assert.Equal(t, tt.expectedPartial, ds.Partial())
		})
	}
}

func TestPriceBucketColor(t *testing.T) {
	assert.Equal(t, "#4CAF50", BucketQ1.Color())
	assert.Equal(t, "#2196F3", BucketQ2.Color())
	assert.Equal(t, "#FF9800", BucketQ3.Color())
	assert.Equal(t, "#F44336", BucketQ4.Color())
	assert.Equal(t, "#258fff", BucketDefault.Color())
}

func TestNewGeoPoint(t *testing.T) {
	p := NewGeoPoint(37.4979, 127.0276)
	assert.Equal(t, 37.4979, p.Lat())
	assert.Equal(t, 127.0276, p.Lon())
}
