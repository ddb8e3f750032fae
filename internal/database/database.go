package database

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"radar/server/internal/models"
)

// ErrNotFound is returned for unknown or discarded query IDs
var ErrNotFound = errors.New("dataset not found")

// Database keeps the most recent query datasets in an in-memory SQLite
// database. Nothing survives a restart.
type Database struct {
	db        *gorm.DB
	logger    *logrus.Logger
	retention int

	mu    sync.Mutex
	order []string // saved query IDs, oldest first
}

func NewDatabase(retention int, log *logrus.Logger) (*Database, error) {
	if log == nil {
		log = logrus.New()
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetOutput(os.Stdout)
	}
	if retention < 1 {
		retention = 1
	}

	// A named shared-cache memory database, private to this instance
	dsn := fmt.Sprintf("file:radar-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	// The memory database lives as long as one connection stays open
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)

	d := &Database{db: db, logger: log, retention: retention}
	if err := d.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return d, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveDataset stores ds under a new query ID, which is also written to ds.ID.
// The oldest dataset is discarded once the retention limit is exceeded.
func (d *Database) SaveDataset(ds *models.Dataset) (string, error) {
	if ds.ID == "" {
		ds.ID = uuid.NewString()
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now()
	}

	query := queryRow{
		ID:              ds.ID,
		Province:        ds.Region.Province,
		District:        ds.Region.District,
		DistrictCode:    ds.Region.DistrictCode,
		Months:          ds.Months,
		Q1:              ds.Thresholds.Q1,
		Q2:              ds.Thresholds.Q2,
		Q3:              ds.Thresholds.Q3,
		EmptyThresholds: ds.Thresholds.Empty,
		CreatedAt:       ds.CreatedAt,
	}

	months := make([]monthRow, len(ds.Results))
	for i, r := range ds.Results {
		months[i] = monthRow{
			QueryID:   ds.ID,
			Position:  i,
			YearMonth: r.YearMonth,
			Status:    string(r.Status),
			Count:     r.Count,
			Dropped:   r.Dropped,
			Error:     r.Error,
		}
	}

	transactions := make([]transactionRow, len(ds.Transactions))
	for i, tx := range ds.Transactions {
		transactions[i] = newTransactionRow(ds.ID, i, tx)
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&query).Error; err != nil {
			return fmt.Errorf("failed to insert query: %w", err)
		}
		if len(months) > 0 {
			if err := tx.Create(&months).Error; err != nil {
				return fmt.Errorf("failed to insert month results: %w", err)
			}
		}
		if len(transactions) > 0 {
			if err := tx.CreateInBatches(&transactions, 200).Error; err != nil {
				return fmt.Errorf("failed to insert transactions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	d.order = append(d.order, ds.ID)
	var expired []string
	for len(d.order) > d.retention {
		expired = append(expired, d.order[0])
		d.order = d.order[1:]
	}
	d.mu.Unlock()

	for _, id := range expired {
		if err := d.deleteDataset(id); err != nil {
			d.logger.WithError(err).WithField("query_id", id).Error("Failed to discard dataset")
		}
	}

	d.logger.WithFields(logrus.Fields{
		"query_id":     ds.ID,
		"transactions": len(transactions),
		"discarded":    len(expired),
	}).Debug("Saved dataset")

	return ds.ID, nil
}

// GetDataset loads a saved dataset with its month results and transactions
// in their original order
func (d *Database) GetDataset(id string) (*models.Dataset, error) {
	var (
		query  queryRow
		months []monthRow
		rows   []transactionRow
	)
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&query, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to query dataset: %w", err)
		}
		if err := tx.Where("query_id = ?", id).Order("position").Find(&months).Error; err != nil {
			return fmt.Errorf("failed to query month results: %w", err)
		}
		if err := tx.Where("query_id = ?", id).Order("position").Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to query transactions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ds := &models.Dataset{
		ID: query.ID,
		Region: models.Region{
			Province:     query.Province,
			District:     query.District,
			DistrictCode: query.DistrictCode,
		},
		Months: query.Months,
		Thresholds: models.Thresholds{
			Q1:    query.Q1,
			Q2:    query.Q2,
			Q3:    query.Q3,
			Empty: query.EmptyThresholds,
		},
		CreatedAt: query.CreatedAt,
	}
	for _, m := range months {
		ds.Results = append(ds.Results, models.MonthResult{
			YearMonth: m.YearMonth,
			Status:    models.MonthStatus(m.Status),
			Count:     m.Count,
			Dropped:   m.Dropped,
			Error:     m.Error,
		})
	}
	for _, r := range rows {
		ds.Transactions = append(ds.Transactions, r.toModel())
	}
	return ds, nil
}

func exists(tx *gorm.DB, id string) error {
	var count int64
	if err := tx.Model(&queryRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to query dataset: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) deleteDataset(id string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("query_id = ?", id).Delete(&transactionRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("query_id = ?", id).Delete(&monthRow{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&queryRow{}).Error
	})
}
