package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"radar/server/internal/models"
	"radar/server/internal/pricing"
)

const sheetName = "거래내역"

// Columns is the header row of every export
var Columns = []string{"거래일", "동", "아파트", "평수", "거래가", "층", "건축년도"}

// utf-8 byte order mark, so spreadsheet tools detect the encoding
var bom = []byte{0xEF, 0xBB, 0xBF}

// FileName returns the download name for an export made at t, e.g.
// real_estate_data_20261014.csv
func FileName(t time.Time, ext string) string {
	return fmt.Sprintf("real_estate_data_%s.%s", t.Format("20060102"), ext)
}

// Record renders one transaction as an export row
func Record(tx models.Transaction) []string {
	return []string{
		tx.DealDate.Format("2006-01-02"),
		tx.Dong,
		tx.Apartment,
		strconv.FormatFloat(tx.Pyeong, 'f', 1, 64),
		pricing.FormatPrice(tx.Price),
		strconv.Itoa(tx.Floor),
		strconv.Itoa(tx.BuildYear),
	}
}

// WriteCSV writes the transactions as UTF-8 CSV with a byte order mark
func WriteCSV(w io.Writer, transactions []models.Transaction) error {
	if _, err := w.Write(bom); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, tx := range transactions {
		if err := writer.Write(Record(tx)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes the transactions as a single-sheet workbook. Numeric
// columns are stored as numbers.
func WriteXLSX(w io.Writer, transactions []models.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, header := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header %s: %w", header, err)
		}
	}
	if err := f.SetColWidth(sheetName, "A", "G", 14); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	for i, tx := range transactions {
		row := i + 2
		values := []interface{}{
			tx.DealDate.Format("2006-01-02"),
			tx.Dong,
			tx.Apartment,
			tx.Pyeong,
			pricing.FormatPrice(tx.Price),
			tx.Floor,
			tx.BuildYear,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
