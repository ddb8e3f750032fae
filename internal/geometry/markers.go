package geometry

import (
	"context"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"radar/server/internal/models"
	"radar/server/internal/pricing"
)

// MessageNoCenter is reported when none of the geocoded markers resolved
const MessageNoCenter = "center not found"

// Resolver resolves many addresses at once, keeping input order
type Resolver interface {
	ResolveAll(ctx context.Context, addresses []string, workers int) ([]models.GeoPoint, []bool)
}

// LatLon is a map coordinate in the order map widgets expect
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LegendEntry describes one marker color of the map
type LegendEntry struct {
	Bucket models.PriceBucket `json:"bucket"`
	Label  string             `json:"label"`
	Color  string             `json:"color"`
	Range  string             `json:"range"`
}

// MarkerMap is the map projection of a dataset
type MarkerMap struct {
	Center    *LatLon                    `json:"center"`
	Markers   *geojson.FeatureCollection `json:"markers"`
	Legend    []LegendEntry              `json:"legend"`
	Requested int                        `json:"requested"`
	Located   int                        `json:"located"`
	Message   string                     `json:"message,omitempty"`
}

type MarkerBuilder struct {
	resolver Resolver
	limit    int
	workers  int
	logger   *logrus.Logger
}

func NewMarkerBuilder(resolver Resolver, limit, workers int, logger *logrus.Logger) *MarkerBuilder {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &MarkerBuilder{
		resolver: resolver,
		limit:    limit,
		workers:  workers,
		logger:   logger,
	}
}

// Address builds the lot address geocoded for a transaction
func Address(region models.Region, tx models.Transaction) string {
	parts := []string{region.Province, region.District, tx.Dong, tx.Jibun}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// Build geocodes the first transactions of ds, up to the marker limit, and
// returns them as a GeoJSON feature collection. Unresolved addresses are
// skipped.
func (b *MarkerBuilder) Build(ctx context.Context, ds *models.Dataset) *MarkerMap {
	transactions := ds.Transactions
	if b.limit > 0 && len(transactions) > b.limit {
		transactions = transactions[:b.limit]
	}

	addresses := make([]string, len(transactions))
	for i, tx := range transactions {
		addresses[i] = Address(ds.Region, tx)
	}
	points, ok := b.resolver.ResolveAll(ctx, addresses, b.workers)

	fc := geojson.NewFeatureCollection()
	bound := orb.Bound{}
	for i, tx := range transactions {
		if !ok[i] {
			continue
		}
		feature := geojson.NewFeature(points[i].Point)
		feature.Properties = geojson.Properties{
			"apartment":     tx.Apartment,
			"address":       addresses[i],
			"price":         tx.Price,
			"price_display": pricing.FormatPrice(tx.Price),
			"color":         tx.Bucket.Color(),
			"bucket":        int(tx.Bucket),
			"area":          tx.Area,
			"pyeong":        tx.Pyeong,
			"floor":         tx.Floor,
			"deal_date":     tx.DealDate.Format("2006-01-02"),
			"build_year":    tx.BuildYear,
		}
		if len(fc.Features) == 0 {
			bound = points[i].Point.Bound()
		} else {
			bound = bound.Extend(points[i].Point)
		}
		fc.Append(feature)
	}

	result := &MarkerMap{
		Markers:   fc,
		Legend:    Legend(ds.Thresholds),
		Requested: len(transactions),
		Located:   len(fc.Features),
	}
	if len(fc.Features) == 0 {
		result.Message = MessageNoCenter
	} else {
		center := bound.Center()
		result.Center = &LatLon{Lat: center.Lat(), Lon: center.Lon()}
	}

	b.logger.WithFields(logrus.Fields{
		"query_id":  ds.ID,
		"requested": result.Requested,
		"located":   result.Located,
	}).Info("Built map markers")

	return result
}

// Legend lists the four price buckets with their price ranges
func Legend(t models.Thresholds) []LegendEntry {
	if t.Empty {
		return []LegendEntry{}
	}
	q1 := pricing.FormatPrice(int64(t.Q1))
	q2 := pricing.FormatPrice(int64(t.Q2))
	q3 := pricing.FormatPrice(int64(t.Q3))

	ranges := map[models.PriceBucket]string{
		models.BucketQ1: "~ " + q1,
		models.BucketQ2: q1 + " ~ " + q2,
		models.BucketQ3: q2 + " ~ " + q3,
		models.BucketQ4: q3 + " ~",
	}

	legend := make([]LegendEntry, 0, 4)
	for _, bucket := range []models.PriceBucket{models.BucketQ1, models.BucketQ2, models.BucketQ3, models.BucketQ4} {
		legend = append(legend, LegendEntry{
			Bucket: bucket,
			Label:  bucket.Label(),
			Color:  bucket.Color(),
			Range:  ranges[bucket],
		})
	}
	return legend
}
