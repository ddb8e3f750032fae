package query

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"radar/server/config"
	"radar/server/internal/metrics"
	"radar/server/internal/models"
	"radar/server/internal/pricing"
)

// Aggregator fetches a window of months for one district
type Aggregator interface {
	Aggregate(ctx context.Context, districtCode string, months int) (*models.Dataset, error)
}

// Store keeps finished datasets for the views
type Store interface {
	SaveDataset(ds *models.Dataset) (string, error)
}

// Request is one dashboard query
type Request struct {
	Province string `json:"province" binding:"required"`
	District string `json:"district" binding:"required"`
	Months   int    `json:"months" binding:"required,oneof=1 3 6"`
}

type Runner struct {
	aggregator Aggregator
	store      Store
	metrics    *metrics.Recorder
	logger     *logrus.Logger
	now        func() time.Time
}

func NewRunner(aggregator Aggregator, store Store, recorder *metrics.Recorder, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Runner{
		aggregator: aggregator,
		store:      store,
		metrics:    recorder,
		logger:     logger,
		now:        time.Now,
	}
}

// Run resolves the region, fetches the window and stores the bucketed
// dataset. Upstream failures never make Run fail; they are reported by the
// dataset status. Errors are returned for unknown regions, invalid windows
// and storage failures.
func (r *Runner) Run(ctx context.Context, req Request) (*models.Dataset, error) {
	start := r.now()

	code, err := config.LookupDistrictCode(req.Province, req.District)
	if err != nil {
		return nil, err
	}

	ds, err := r.aggregator.Aggregate(ctx, code, req.Months)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate window: %w", err)
	}
	ds.Region = models.Region{
		Province:     req.Province,
		District:     req.District,
		DistrictCode: code,
	}
	ds.CreatedAt = start

	for i := range ds.Transactions {
		ds.Transactions[i].Pyeong = pricing.Pyeong(ds.Transactions[i].Area)
	}
	pricing.Apply(ds)

	if _, err := r.store.SaveDataset(ds); err != nil {
		return nil, fmt.Errorf("failed to save dataset: %w", err)
	}

	status := ds.Status()
	r.metrics.RecordQuery(strconv.Itoa(req.Months), string(status), time.Since(start).Seconds())

	r.logger.WithFields(logrus.Fields{
		"query_id":      ds.ID,
		"province":      req.Province,
		"district":      req.District,
		"district_code": code,
		"months":        req.Months,
		"status":        status,
		"partial":       ds.Partial(),
		"transactions":  len(ds.Transactions),
	}).Info("Query completed")

	return ds, nil
}
