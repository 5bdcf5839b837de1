package corpus

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kailas-cloud/salesrag/internal/domain"
)

// csvHeader is the column order of the offline sales dataset dump.
var csvHeader = []string{"sale_date", "goods_name", "sub_name", "sale_amount"}

// ReadCSV loads sales records from a tabular dataset dump. The first row must
// be the header.
func ReadCSV(path string) ([]domain.SaleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv %s is empty", path)
	}

	records := make([]domain.SaleRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 4 {
			return nil, fmt.Errorf("csv row %d: want 4 columns, got %d", i+2, len(row))
		}
		date, err := time.Parse(domain.DateLayout, row[0])
		if err != nil {
			return nil, fmt.Errorf("csv row %d: parse date %q: %w", i+2, row[0], err)
		}
		amount, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, fmt.Errorf("csv row %d: parse amount %q: %w", i+2, row[3], err)
		}
		records = append(records, domain.SaleRecord{
			Date:        date,
			GoodsName:   row[1],
			SubCategory: row[2],
			Amount:      amount,
		})
	}
	return records, nil
}

// WriteCSV writes records as a tabular dump, overwriting any existing file.
func WriteCSV(path string, records []domain.SaleRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date.Format(domain.DateLayout),
			r.GoodsName,
			r.SubCategory,
			strconv.Itoa(r.Amount),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
