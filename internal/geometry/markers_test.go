package geometry

import (
	"context"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"radar/server/internal/models"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveAll(ctx context.Context, addresses []string, workers int) ([]models.GeoPoint, []bool) {
	args := m.Called(ctx, addresses, workers)
	return args.Get(0).([]models.GeoPoint), args.Get(1).([]bool)
}

func markerDataset() *models.Dataset {
	deal := time.Date(2026, 10, 7, 0, 0, 0, 0, time.UTC)
	return &models.Dataset{
		ID:     "q1",
		Region: models.Region{Province: "서울특별시", District: "강남구", DistrictCode: "11680"},
		Transactions: []models.Transaction{
			{Apartment: "은마", Dong: "대치동", Jibun: "316", Price: 250000, Area: 76.79, Pyeong: 23.2, Floor: 5, BuildYear: 1979, DealDate: deal, Bucket: models.BucketQ3},
			{Apartment: "개포자이", Dong: "개포동", Jibun: "", Price: 190000, DealDate: deal, Bucket: models.BucketQ1},
			{Apartment: "타워팰리스", Dong: "도곡동", Jibun: "467", Price: 520000, DealDate: deal, Bucket: models.BucketQ4},
		},
		Thresholds: models.Thresholds{Q1: 190000, Q2: 250000, Q3: 325000},
	}
}

func TestAddress(t *testing.T) {
	region := models.Region{Province: "서울특별시", District: "강남구"}

	assert.Equal(t, "서울특별시 강남구 대치동 316", Address(region, models.Transaction{Dong: "대치동", Jibun: "316"}))
	assert.Equal(t, "서울특별시 강남구 개포동", Address(region, models.Transaction{Dong: " 개포동 "}))
}

func TestBuildMarkers(t *testing.T) {
	ds := markerDataset()
	resolver := new(MockResolver)
	resolver.On("ResolveAll", mock.Anything, []string{
		"서울특별시 강남구 대치동 316",
		"서울특별시 강남구 개포동",
		"서울특별시 강남구 도곡동 467",
	}, 4).Return(
		[]models.GeoPoint{models.NewGeoPoint(37.50, 127.06), {}, models.NewGeoPoint(37.48, 127.04)},
		[]bool{true, false, true},
	)

	result := NewMarkerBuilder(resolver, 100, 4, nil).Build(context.Background(), ds)

	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, 2, result.Located)
	assert.Empty(t, result.Message)
	require.NotNil(t, result.Center)
	assert.InDelta(t, 37.49, result.Center.Lat, 1e-9)
	assert.InDelta(t, 127.05, result.Center.Lon, 1e-9)

	require.Len(t, result.Markers.Features, 2)
	first := result.Markers.Features[0]
	assert.Equal(t, "은마", first.Properties["apartment"])
	assert.Equal(t, "25억", first.Properties["price_display"])
	assert.Equal(t, "#FF9800", first.Properties["color"])
	assert.Equal(t, "2026-10-07", first.Properties["deal_date"])
	point, ok := first.Geometry.(orb.Point)
	require.True(t, ok)
	assert.Equal(t, 127.06, point.Lon())
	assert.Equal(t, 37.50, point.Lat())

	require.Len(t, result.Legend, 4)
	assert.Equal(t, "~ 19억", result.Legend[0].Range)
	assert.Equal(t, "#F44336", result.Legend[3].Color)
	resolver.AssertExpectations(t)
}

func TestBuildMarkersRespectsLimit(t *testing.T) {
	ds := markerDataset()
	resolver := new(MockResolver)
	resolver.On("ResolveAll", mock.Anything, []string{
		"서울특별시 강남구 대치동 316",
		"서울특별시 강남구 개포동",
	}, 1).Return(
		[]models.GeoPoint{models.NewGeoPoint(37.50, 127.06), models.NewGeoPoint(37.48, 127.07)},
		[]bool{true, true},
	)

	result := NewMarkerBuilder(resolver, 2, 1, nil).Build(context.Background(), ds)

	assert.Equal(t, 2, result.Requested)
	assert.Len(t, result.Markers.Features, 2)
	resolver.AssertExpectations(t)
}

func TestBuildMarkersNoneResolved(t *testing.T) {
	ds := markerDataset()
	resolver := new(MockResolver)
	resolver.On("ResolveAll", mock.Anything, mock.Anything, 4).Return(
		make([]models.GeoPoint, 3),
		[]bool{false, false, false},
	)

	result := NewMarkerBuilder(resolver, 100, 4, nil).Build(context.Background(), ds)

	assert.Nil(t, result.Center)
	assert.Equal(t, MessageNoCenter, result.Message)
	assert.Empty(t, result.Markers.Features)
	assert.Zero(t, result.Located)
}

func TestLegendEmptyDataset(t *testing.T) {
	assert.Empty(t, Legend(models.Thresholds{Empty: true}))
}
