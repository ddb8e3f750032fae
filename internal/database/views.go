package database

import (
	"fmt"

	"gorm.io/gorm"

	"radar/server/internal/models"
	"radar/server/internal/pricing"
)

var sortClauses = map[models.SortOrder]string{
	models.SortDateDesc:  "deal_date DESC, position",
	models.SortDateAsc:   "deal_date ASC, position",
	models.SortPriceDesc: "price DESC, position",
	models.SortPriceAsc:  "price ASC, position",
	models.SortAreaDesc:  "pyeong DESC, position",
	models.SortAreaAsc:   "pyeong ASC, position",
}

// ValidSort reports whether s is a known sort order. The empty order is valid
// and means newest first.
func ValidSort(s models.SortOrder) bool {
	if s == "" {
		return true
	}
	_, ok := sortClauses[s]
	return ok
}

// ListTransactions returns the filtered and sorted transactions of a dataset
func (d *Database) ListTransactions(id string, filter models.ListFilter) ([]models.Transaction, error) {
	sort := filter.Sort
	if sort == "" {
		sort = models.SortDateDesc
	}
	clause, ok := sortClauses[sort]
	if !ok {
		return nil, fmt.Errorf("unknown sort order: %s", sort)
	}

	var rows []transactionRow
	err := d.read(id, func(tx *gorm.DB) error {
		query := transactionsOf(tx, id)
		if filter.Apartment != "" {
			query = query.Where("apartment = ?", filter.Apartment)
		}
		if filter.Dong != "" {
			query = query.Where("dong = ?", filter.Dong)
		}
		if filter.MinPrice != nil {
			query = query.Where("price >= ?", *filter.MinPrice)
		}
		if filter.MaxPrice != nil {
			query = query.Where("price <= ?", *filter.MaxPrice)
		}
		if err := query.Order(clause).Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to query transactions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	transactions := make([]models.Transaction, len(rows))
	for i, r := range rows {
		transactions[i] = r.toModel()
	}
	return transactions, nil
}

// FilterOptions returns the distinct apartments and dongs and the price range
func (d *Database) FilterOptions(id string) (*models.FilterOptions, error) {
	options := &models.FilterOptions{Apartments: []string{}, Dongs: []string{}}

	err := d.read(id, func(tx *gorm.DB) error {
		if err := transactionsOf(tx, id).Distinct("apartment").Order("apartment").Pluck("apartment", &options.Apartments).Error; err != nil {
			return fmt.Errorf("failed to query apartments: %w", err)
		}
		if err := transactionsOf(tx, id).Distinct("dong").Order("dong").Pluck("dong", &options.Dongs).Error; err != nil {
			return fmt.Errorf("failed to query dongs: %w", err)
		}

		var bounds struct {
			MinPrice int64
			MaxPrice int64
		}
		if err := transactionsOf(tx, id).Select("COALESCE(MIN(price), 0) AS min_price, COALESCE(MAX(price), 0) AS max_price").Scan(&bounds).Error; err != nil {
			return fmt.Errorf("failed to query price range: %w", err)
		}
		options.MinPrice = bounds.MinPrice
		options.MaxPrice = bounds.MaxPrice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return options, nil
}

// Summary returns the headline numbers of a dataset
func (d *Database) Summary(id string) (*models.Summary, error) {
	var agg struct {
		Total         int
		AveragePrice  float64
		AveragePyeong float64
	}
	var prices []int64

	err := d.read(id, func(tx *gorm.DB) error {
		err := transactionsOf(tx, id).
			Select("COUNT(*) AS total, COALESCE(AVG(price), 0) AS average_price, COALESCE(AVG(pyeong), 0) AS average_pyeong").
			Scan(&agg).Error
		if err != nil {
			return fmt.Errorf("failed to query summary: %w", err)
		}
		if err := transactionsOf(tx, id).Pluck("price", &prices).Error; err != nil {
			return fmt.Errorf("failed to query prices: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.Summary{
		TotalTransactions: agg.Total,
		AveragePrice:      agg.AveragePrice,
		MedianPrice:       pricing.Median(prices),
		AveragePyeong:     agg.AveragePyeong,
	}, nil
}

// DongAverages returns the dongs with the highest mean price, at most limit
func (d *Database) DongAverages(id string, limit int) ([]models.DongAverage, error) {
	averages := []models.DongAverage{}
	err := d.read(id, func(tx *gorm.DB) error {
		err := transactionsOf(tx, id).
			Select("dong, AVG(price) AS average_price, COUNT(*) AS count").
			Group("dong").
			Order("average_price DESC, dong").
			Limit(limit).
			Scan(&averages).Error
		if err != nil {
			return fmt.Errorf("failed to query dong averages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return averages, nil
}

// MonthlyAverages returns the mean price per deal month, oldest first
func (d *Database) MonthlyAverages(id string) ([]models.MonthlyAverage, error) {
	averages := []models.MonthlyAverage{}
	err := d.read(id, func(tx *gorm.DB) error {
		err := transactionsOf(tx, id).
			Select("deal_month AS month, AVG(price) AS average_price, COUNT(*) AS count").
			Group("deal_month").
			Order("deal_month").
			Scan(&averages).Error
		if err != nil {
			return fmt.Errorf("failed to query monthly averages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return averages, nil
}

// area bands in pyeong, upper bound inclusive
var areaBands = []struct {
	label    string
	min, max float64
}{
	{"20평 이하", 0, 20},
	{"20-30평", 20, 30},
	{"30-40평", 30, 40},
	{"40-50평", 40, 50},
	{"50평 이상", 50, 100},
}

// AreaBands groups prices by pyeong band. Areas outside (0, 100] pyeong are
// not counted in any band.
func (d *Database) AreaBands(id string) ([]models.AreaBand, error) {
	bands := make([]models.AreaBand, 0, len(areaBands))
	err := d.read(id, func(tx *gorm.DB) error {
		for _, band := range areaBands {
			var prices []int64
			err := transactionsOf(tx, id).
				Where("pyeong > ? AND pyeong <= ?", band.min, band.max).
				Pluck("price", &prices).Error
			if err != nil {
				return fmt.Errorf("failed to query area band %s: %w", band.label, err)
			}

			result := models.AreaBand{Label: band.label, Count: len(prices)}
			if len(prices) > 0 {
				var sum int64
				for _, p := range prices {
					sum += p
				}
				result.AveragePrice = float64(sum) / float64(len(prices))
				result.MedianPrice = pricing.Median(prices)
			}
			bands = append(bands, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bands, nil
}

// read runs fn in one transaction after checking that the dataset exists, so
// an eviction cannot remove rows between the reads
func (d *Database) read(id string, fn func(tx *gorm.DB) error) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, id); err != nil {
			return err
		}
		return fn(tx)
	})
}

func transactionsOf(tx *gorm.DB, id string) *gorm.DB {
	return tx.Model(&transactionRow{}).Where("query_id = ?", id)
}
