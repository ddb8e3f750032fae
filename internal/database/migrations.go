package database

import (
	"time"

	"radar/server/internal/models"
)

type queryRow struct {
	ID              string `gorm:"primaryKey"`
	Province        string
	District        string
	DistrictCode    string
	Months          int
	Q1              float64
	Q2              float64
	Q3              float64
	EmptyThresholds bool
	CreatedAt       time.Time
}

func (queryRow) TableName() string { return "queries" }

type monthRow struct {
	ID        uint   `gorm:"primaryKey"`
	QueryID   string `gorm:"index"`
	Position  int
	YearMonth string
	Status    string
	Count     int
	Dropped   int
	Error     string
}

func (monthRow) TableName() string { return "query_months" }

type transactionRow struct {
	ID        uint   `gorm:"primaryKey"`
	QueryID   string `gorm:"index:idx_transactions_query"`
	Position  int
	Apartment string `gorm:"index"`
	Dong      string `gorm:"index"`
	Jibun     string
	Price     int64
	Area      float64
	Pyeong    float64
	Floor     int
	BuildYear int
	DealDate  time.Time
	DealMonth string // YYYY-MM
	YearMonth string // source month, YYYYMM
	Bucket    int
}

func (transactionRow) TableName() string { return "transactions" }

func newTransactionRow(queryID string, position int, tx models.Transaction) transactionRow {
	return transactionRow{
		QueryID:   queryID,
		Position:  position,
		Apartment: tx.Apartment,
		Dong:      tx.Dong,
		Jibun:     tx.Jibun,
		Price:     tx.Price,
		Area:      tx.Area,
		Pyeong:    tx.Pyeong,
		Floor:     tx.Floor,
		BuildYear: tx.BuildYear,
		DealDate:  tx.DealDate,
		DealMonth: tx.DealDate.Format("2006-01"),
		YearMonth: tx.YearMonth,
		Bucket:    int(tx.Bucket),
	}
}

func (r transactionRow) toModel() models.Transaction {
	return models.Transaction{
		Apartment: r.Apartment,
		Dong:      r.Dong,
		Jibun:     r.Jibun,
		Price:     r.Price,
		Area:      r.Area,
		Pyeong:    r.Pyeong,
		Floor:     r.Floor,
		BuildYear: r.BuildYear,
		DealDate:  r.DealDate.UTC(),
		YearMonth: r.YearMonth,
		Bucket:    models.PriceBucket(r.Bucket),
	}
}

func (d *Database) RunMigrations() error {
	return d.db.AutoMigrate(&queryRow{}, &monthRow{}, &transactionRow{})
}
