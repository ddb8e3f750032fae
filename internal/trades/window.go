package trades

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"radar/server/config"
	"radar/server/internal/models"
)

// ErrInvalidWindow is returned for windows other than 1, 3 or 6 months
var ErrInvalidWindow = errors.New("window must be 1, 3 or 6 months")

// ValidWindow reports whether months is a supported trailing window
func ValidWindow(months int) bool {
	return months == 1 || months == 3 || months == 6
}

// TrailingMonths returns the n calendar months ending at now's month,
// most recent first, formatted as YYYYMM.
func TrailingMonths(now time.Time, n int) []string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	months := make([]string, n)
	for i := 0; i < n; i++ {
		months[i] = first.AddDate(0, -i, 0).Format("200601")
	}
	return months
}

// Aggregator fetches a trailing window of months and concatenates them.
type Aggregator struct {
	fetcher Fetcher
	delay   time.Duration
	workers int
	logger  *logrus.Logger
	now     func() time.Time
}

func NewAggregator(fetcher Fetcher, cfg *config.Config, logger *logrus.Logger) *Aggregator {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	workers := cfg.Trades.Workers
	if workers < 1 {
		workers = 1
	}

	return &Aggregator{
		fetcher: fetcher,
		delay:   cfg.Trades.MonthDelay,
		workers: workers,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the time source used to compute the window
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// Aggregate fetches every month of the window exactly once. A month that fails
// contributes no records and is not retried; its failure is kept in the
// dataset results. Months are spaced by at least the configured delay.
func (a *Aggregator) Aggregate(ctx context.Context, districtCode string, months int) (*models.Dataset, error) {
	if !ValidWindow(months) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, months)
	}

	yearMonths := TrailingMonths(a.now(), months)
	results := make([]models.MonthResult, len(yearMonths))

	limit := rate.Inf
	if a.delay > 0 {
		limit = rate.Every(a.delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	g := new(errgroup.Group)
	g.SetLimit(a.workers)
	for i, ym := range yearMonths {
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				results[i] = models.MonthResult{
					YearMonth: ym,
					Status:    models.MonthFailed,
					Error:     err.Error(),
				}
				return nil
			}
			results[i] = a.fetcher.Fetch(ctx, districtCode, ym)
			return nil
		})
	}
	_ = g.Wait()

	ds := &models.Dataset{
		Region:  models.Region{DistrictCode: districtCode},
		Months:  months,
		Results: results,
	}
	failed := 0
	for i := range results {
		ds.Transactions = append(ds.Transactions, results[i].Transactions...)
		if results[i].Status == models.MonthFailed {
			failed++
		}
	}

	a.logger.WithFields(logrus.Fields{
		"district_code": districtCode,
		"months":        months,
		"transactions":  len(ds.Transactions),
		"failed_months": failed,
	}).Info("Aggregated transaction window")

	return ds, nil
}
