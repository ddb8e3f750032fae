package database

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radar/server/internal/models"
)

func setupTestDB(t *testing.T, retention int) *Database {
	t.Helper()
	db, err := NewDatabase(retention, logrus.New())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func sampleDataset() *models.Dataset {
	return &models.Dataset{
		Region: models.Region{Province: "서울특별시", District: "강남구", DistrictCode: "11680"},
		Months: 3,
		Results: []models.MonthResult{
			{YearMonth: "202610", Status: models.MonthOK, Count: 3},
			{YearMonth: "202609", Status: models.MonthFailed, Error: "status 500"},
			{YearMonth: "202608", Status: models.MonthOK, Count: 2, Dropped: 1},
		},
		Transactions: []models.Transaction{
			{Apartment: "래미안대치팰리스", Dong: "대치동", Jibun: "1027", Price: 325000, Area: 84.97, Pyeong: 25.7, Floor: 12, BuildYear: 2015, DealDate: day(2026, 10, 7), YearMonth: "202610", Bucket: models.BucketQ4},
			{Apartment: "개포자이", Dong: "개포동", Jibun: "12-3", Price: 210000, Area: 59.8, Pyeong: 18.1, Floor: 3, BuildYear: 2019, DealDate: day(2026, 10, 2), YearMonth: "202610", Bucket: models.BucketQ2},
			{Apartment: "은마", Dong: "대치동", Jibun: "316", Price: 250000, Area: 114.0, Pyeong: 34.5, Floor: 8, BuildYear: 1979, DealDate: day(2026, 10, 11), YearMonth: "202610", Bucket: models.BucketQ3},
			{Apartment: "개포자이", Dong: "개포동", Jibun: "12-3", Price: 190000, Area: 59.8, Pyeong: 18.1, Floor: 15, BuildYear: 2019, DealDate: day(2026, 8, 20), YearMonth: "202608", Bucket: models.BucketQ1},
			{Apartment: "타워팰리스", Dong: "도곡동", Jibun: "467", Price: 520000, Area: 400.0, Pyeong: 121.0, Floor: 40, BuildYear: 2002, DealDate: day(2026, 8, 3), YearMonth: "202608", Bucket: models.BucketQ4},
		},
		Thresholds: models.Thresholds{Q1: 210000, Q2: 250000, Q3: 325000},
	}
}

func TestSaveAndGetDataset(t *testing.T) {
	db := setupTestDB(t, 4)
	ds := sampleDataset()

	id, err := db.SaveDataset(ds)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, ds.ID)

	loaded, err := db.GetDataset(id)
	require.NoError(t, err)

	assert.Equal(t, ds.Region, loaded.Region)
	assert.Equal(t, 3, loaded.Months)
	assert.Equal(t, ds.Thresholds, loaded.Thresholds)
	require.Len(t, loaded.Results, 3)
	assert.Equal(t, models.MonthFailed, loaded.Results[1].Status)
	assert.Equal(t, "status 500", loaded.Results[1].Error)
	assert.Equal(t, 1, loaded.Results[2].Dropped)
	assert.Equal(t, models.DatasetOK, loaded.Status())
	assert.True(t, loaded.Partial())

	require.Len(t, loaded.Transactions, 5)
	for i, tx := range loaded.Transactions {
		assert.Equal(t, ds.Transactions[i].Apartment, tx.Apartment)
		assert.Equal(t, ds.Transactions[i].Price, tx.Price)
		assert.Equal(t, ds.Transactions[i].Bucket, tx.Bucket)
		assert.True(t, ds.Transactions[i].DealDate.Equal(tx.DealDate))
	}
}

func TestGetDatasetNotFound(t *testing.T) {
	db := setupTestDB(t, 4)

	_, err := db.GetDataset("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.ListTransactions("missing", models.ListFilter{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveEmptyDataset(t *testing.T) {
	db := setupTestDB(t, 4)
	ds := &models.Dataset{
		Months:     1,
		Results:    []models.MonthResult{{YearMonth: "202610", Status: models.MonthEmpty}},
		Thresholds: models.Thresholds{Empty: true},
	}

	id, err := db.SaveDataset(ds)
	require.NoError(t, err)

	loaded, err := db.GetDataset(id)
	require.NoError(t, err)
	assert.Empty(t, loaded.Transactions)
	assert.Equal(t, models.DatasetNoData, loaded.Status())

	summary, err := db.Summary(id)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalTransactions)
	assert.Zero(t, summary.MedianPrice)

	options, err := db.FilterOptions(id)
	require.NoError(t, err)
	assert.Empty(t, options.Apartments)
	assert.Zero(t, options.MaxPrice)
}

func TestRetentionDiscardsOldestDataset(t *testing.T) {
	db := setupTestDB(t, 2)

	first, err := db.SaveDataset(sampleDataset())
	require.NoError(t, err)
	second, err := db.SaveDataset(sampleDataset())
	require.NoError(t, err)
	third, err := db.SaveDataset(sampleDataset())
	require.NoError(t, err)

	_, err = db.GetDataset(first)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, id := range []string{second, third} {
		ds, err := db.GetDataset(id)
		require.NoError(t, err)
		assert.Len(t, ds.Transactions, 5)
	}

	var count int64
	require.NoError(t, db.db.Model(&transactionRow{}).Count(&count).Error)
	assert.EqualValues(t, 10, count)
}

func TestReadsDuringEvictionSeeWholeDatasets(t *testing.T) {
	db := setupTestDB(t, 1)

	ids := make(chan string, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(ids)
		for i := 0; i < 30; i++ {
			id, err := db.SaveDataset(sampleDataset())
			if !assert.NoError(t, err) {
				return
			}
			ids <- id
		}
	}()

	for id := range ids {
		ds, err := db.GetDataset(id)
		if err != nil {
			assert.ErrorIs(t, err, ErrNotFound)
		} else {
			assert.Len(t, ds.Results, 3)
			assert.Len(t, ds.Transactions, 5)
		}

		summary, err := db.Summary(id)
		if err != nil {
			assert.ErrorIs(t, err, ErrNotFound)
		} else {
			assert.Equal(t, 5, summary.TotalTransactions)
		}
	}
	wg.Wait()
}
