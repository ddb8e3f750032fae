package geocoding

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"radar/server/config"
	"radar/server/internal/metrics"
	"radar/server/internal/models"
)

var (
	ErrNotConfigured = errors.New("provider has no api key")
	ErrNoResults     = errors.New("no results found")
)

// Provider converts a free-text address to a coordinate.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, address string) (models.GeoPoint, error)
}

// Geocoder resolves addresses through an ordered list of providers and keeps
// every successful result for its own lifetime.
type Geocoder struct {
	logger    *logrus.Logger
	providers []Provider
	cache     map[string]models.GeoPoint
	cacheLock sync.RWMutex
	group     singleflight.Group
	metrics   *metrics.Recorder
}

// NewGeocoder creates a geocoder using VWorld first and Kakao as fallback
func NewGeocoder(cfg *config.Config, logger *logrus.Logger, recorder *metrics.Recorder) *Geocoder {
	return NewGeocoderWithProviders(logger, recorder,
		NewVWorldProvider(cfg.Geocoding.VWorldURL, cfg.Geocoding.VWorldKey, cfg.Geocoding.Timeout, cfg.Geocoding.MinInterval),
		NewKakaoProvider(cfg.Geocoding.KakaoURL, cfg.Geocoding.KakaoKey, cfg.Geocoding.Timeout, cfg.Geocoding.MinInterval),
	)
}

func NewGeocoderWithProviders(logger *logrus.Logger, recorder *metrics.Recorder, providers ...Provider) *Geocoder {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Geocoder{
		logger:    logger,
		providers: providers,
		cache:     make(map[string]models.GeoPoint),
		metrics:   recorder,
	}
}

// Resolve returns the coordinate of address. The second value is false when
// every provider failed or ctx ended first; callers should treat that as "no
// marker", not as an error. Failures are not cached, so a later call tries the
// providers again.
//
// Concurrent callers for the same address share one lookup. The lookup is
// detached from any single caller's cancellation and bounded by the provider
// timeouts, so one departing caller does not fail the others.
func (g *Geocoder) Resolve(ctx context.Context, address string) (models.GeoPoint, bool) {
	if point, ok := g.cached(address); ok {
		g.metrics.RecordCache(true)
		return point, true
	}

	lookupCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan(address, func() (interface{}, error) {
		// Another caller may have filled the cache while we waited
		if point, ok := g.cached(address); ok {
			g.metrics.RecordCache(true)
			return &point, nil
		}
		g.metrics.RecordCache(false)
		return g.lookup(lookupCtx, address), nil
	})

	select {
	case res := <-ch:
		point, _ := res.Val.(*models.GeoPoint)
		if point == nil {
			return models.GeoPoint{}, false
		}
		return *point, true
	case <-ctx.Done():
		return models.GeoPoint{}, false
	}
}

// lookup tries the providers in order and caches the first success
func (g *Geocoder) lookup(ctx context.Context, address string) *models.GeoPoint {
	for _, provider := range g.providers {
		point, err := provider.Geocode(ctx, address)
		if err != nil {
			if !errors.Is(err, ErrNotConfigured) {
				g.metrics.RecordUpstream(provider.Name(), "failed")
			}
			g.logger.WithError(err).WithFields(logrus.Fields{
				"address":  address,
				"provider": provider.Name(),
			}).Warn("Geocoding failed")
			continue
		}

		g.metrics.RecordUpstream(provider.Name(), "ok")
		g.logger.WithFields(logrus.Fields{
			"address":   address,
			"latitude":  point.Lat(),
			"longitude": point.Lon(),
			"source":    provider.Name(),
		}).Debug("Successfully geocoded address")

		stored := g.store(address, point)
		return &stored
	}
	return nil
}

// ResolveAll resolves addresses with at most workers lookups in flight.
// Results are aligned with the input; ok[i] is false for unresolved addresses.
func (g *Geocoder) ResolveAll(ctx context.Context, addresses []string, workers int) ([]models.GeoPoint, []bool) {
	if workers < 1 {
		workers = 1
	}
	points := make([]models.GeoPoint, len(addresses))
	ok := make([]bool, len(addresses))

	eg := new(errgroup.Group)
	eg.SetLimit(workers)
	for i, address := range addresses {
		eg.Go(func() error {
			points[i], ok[i] = g.Resolve(ctx, address)
			return nil
		})
	}
	_ = eg.Wait()

	return points, ok
}

// CacheSize returns the number of cached addresses
func (g *Geocoder) CacheSize() int {
	g.cacheLock.RLock()
	defer g.cacheLock.RUnlock()
	return len(g.cache)
}

func (g *Geocoder) cached(address string) (models.GeoPoint, bool) {
	g.cacheLock.RLock()
	defer g.cacheLock.RUnlock()
	point, ok := g.cache[address]
	return point, ok
}

// store inserts point unless the address is already cached and returns the
// cached value, so every caller sees the same coordinate
func (g *Geocoder) store(address string, point models.GeoPoint) models.GeoPoint {
	g.cacheLock.Lock()
	defer g.cacheLock.Unlock()
	if existing, ok := g.cache[address]; ok {
		return existing
	}
	g.cache[address] = point
	return point
}
