package trades

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"radar/server/config"
	"radar/server/internal/models"
)

// MockFetcher is a mock implementation of the Fetcher interface
type MockFetcher struct {
	mock.Mock
	mu sync.Mutex
}

func (m *MockFetcher) Fetch(ctx context.Context, districtCode, yearMonth string) models.MonthResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(districtCode, yearMonth)
	return args.Get(0).(models.MonthResult)
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
}

func newTestAggregator(fetcher Fetcher, workers int, delay time.Duration) *Aggregator {
	cfg := &config.Config{}
	cfg.Trades.Workers = workers
	cfg.Trades.MonthDelay = delay
	a := NewAggregator(fetcher, cfg, logrus.New())
	a.SetClock(fixedClock)
	return a
}

func okMonth(ym string, prices ...int64) models.MonthResult {
	result := models.MonthResult{YearMonth: ym, Status: models.MonthOK, Count: len(prices)}
	for _, p := range prices {
		result.Transactions = append(result.Transactions, models.Transaction{Price: p, YearMonth: ym})
	}
	return result
}

func TestTrailingMonths(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		n        int
		expected []string
	}{
		{
			name:     "Current month only",
			now:      fixedClock(),
			n:        1,
			expected: []string{"202610"},
		},
		{
			name:     "Three months",
			now:      fixedClock(),
			n:        3,
			expected: []string{"202610", "202609", "202608"},
		},
		{
			name:     "Crosses year boundary",
			now:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			n:        6,
			expected: []string{"202602", "202601", "202512", "202511", "202510", "202509"},
		},
		{
			name:     "Month end does not skip short months",
			now:      time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC),
			n:        3,
			expected: []string{"202603", "202602", "202601"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TrailingMonths(tt.now, tt.n))
		})
	}
}

func TestAggregateIssuesOneFetchPerMonth(t *testing.T) {
	for _, months := range []int{3, 6} {
		fetcher := &MockFetcher{}
		for _, ym := range TrailingMonths(fixedClock(), months) {
			fetcher.On("Fetch", "11680", ym).Return(models.MonthResult{YearMonth: ym, Status: models.MonthEmpty}).Once()
		}

		ds, err := newTestAggregator(fetcher, 1, 0).Aggregate(context.Background(), "11680", months)
		require.NoError(t, err)

		fetcher.AssertNumberOfCalls(t, "Fetch", months)
		fetcher.AssertExpectations(t)
		assert.Len(t, ds.Results, months)
		assert.Empty(t, ds.Transactions)
		assert.Equal(t, models.DatasetNoData, ds.Status())
	}
}

func TestAggregateToleratesFailedMonth(t *testing.T) {
	fetcher := &MockFetcher{}
	fetcher.On("Fetch", "11680", "202610").Return(okMonth("202610", 100000, 120000))
	fetcher.On("Fetch", "11680", "202609").Return(models.MonthResult{YearMonth: "202609", Status: models.MonthFailed, Error: "timeout"})
	fetcher.On("Fetch", "11680", "202608").Return(okMonth("202608", 90000))

	ds, err := newTestAggregator(fetcher, 1, 0).Aggregate(context.Background(), "11680", 3)
	require.NoError(t, err)

	fetcher.AssertNumberOfCalls(t, "Fetch", 3)
	require.Len(t, ds.Transactions, 3)
	assert.Equal(t, "202610", ds.Transactions[0].YearMonth)
	assert.Equal(t, "202608", ds.Transactions[2].YearMonth)
	assert.Equal(t, models.MonthFailed, ds.Results[1].Status)
	assert.Equal(t, models.DatasetOK, ds.Status())
	assert.True(t, ds.Partial())
	assert.Equal(t, "11680", ds.Region.DistrictCode)
}

func TestAggregateDistinguishesNoDataFromFailure(t *testing.T) {
	empty := &MockFetcher{}
	empty.On("Fetch", "11680", "202610").Return(models.MonthResult{YearMonth: "202610", Status: models.MonthEmpty})

	ds, err := newTestAggregator(empty, 1, 0).Aggregate(context.Background(), "11680", 1)
	require.NoError(t, err)
	assert.Equal(t, models.DatasetNoData, ds.Status())

	failing := &MockFetcher{}
	failing.On("Fetch", "11680", "202610").Return(models.MonthResult{YearMonth: "202610", Status: models.MonthFailed, Error: "status 500"})

	ds, err = newTestAggregator(failing, 1, 0).Aggregate(context.Background(), "11680", 1)
	require.NoError(t, err)
	assert.Equal(t, models.DatasetUnavailable, ds.Status())
}

func TestAggregateRejectsInvalidWindow(t *testing.T) {
	fetcher := &MockFetcher{}

	_, err := newTestAggregator(fetcher, 1, 0).Aggregate(context.Background(), "11680", 2)

	assert.ErrorIs(t, err, ErrInvalidWindow)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestAggregateParallelKeepsWindowOrder(t *testing.T) {
	fetcher := &MockFetcher{}
	for i, ym := range TrailingMonths(fixedClock(), 6) {
		fetcher.On("Fetch", "11680", ym).Return(okMonth(ym, int64(10000*(i+1))))
	}

	ds, err := newTestAggregator(fetcher, 3, 0).Aggregate(context.Background(), "11680", 6)
	require.NoError(t, err)

	fetcher.AssertNumberOfCalls(t, "Fetch", 6)
	require.Len(t, ds.Transactions, 6)
	for i, tx := range ds.Transactions {
		assert.Equal(t, int64(10000*(i+1)), tx.Price)
	}
}

func TestAggregateSpacesMonthFetches(t *testing.T) {
	fetcher := &MockFetcher{}
	for _, ym := range TrailingMonths(fixedClock(), 3) {
		fetcher.On("Fetch", "11680", ym).Return(models.MonthResult{YearMonth: ym, Status: models.MonthEmpty})
	}

	start := time.Now()
	_, err := newTestAggregator(fetcher, 3, 40*time.Millisecond).Aggregate(context.Background(), "11680", 3)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 75*time.Millisecond)
}

func TestAggregateCancelledContext(t *testing.T) {
	fetcher := &MockFetcher{}
	fetcher.On("Fetch", "11680", "202610").Return(models.MonthResult{YearMonth: "202610", Status: models.MonthEmpty})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ds, err := newTestAggregator(fetcher, 1, time.Hour).Aggregate(ctx, "11680", 3)
	require.NoError(t, err)

	assert.Len(t, ds.Results, 3)
	for _, r := range ds.Results {
		assert.Equal(t, models.MonthFailed, r.Status)
	}
	fetcher.AssertNotCalled(t, "Fetch", "11680", "202610")
	assert.Equal(t, models.DatasetUnavailable, ds.Status())
}
