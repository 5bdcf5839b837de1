package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used across the sales dataset.
const DateLayout = "2006-01-02"

// SaleRecord is one row of the joined sales dataset: what was sold, when,
// and how many. Immutable once fetched; lives for a single request.
type SaleRecord struct {
	Date        time.Time
	GoodsName   string
	SubCategory string
	Amount      int
}

// Sentence renders the record as a single natural-language line. This is the
// text unit the bulk index is built from.
func (r SaleRecord) Sentence() string {
	return fmt.Sprintf("%s에 '%s'(%s)이 %d개 판매되었습니다.",
		r.Date.Format(DateLayout), r.GoodsName, r.SubCategory, r.Amount)
}

// Fields renders the record as key-value lines, one field per line. This is
// the text unit for per-request filtered indices.
func (r SaleRecord) Fields() string {
	return fmt.Sprintf("sale_date: %s\ngoods_name: %s\nsub_name: %s\nsale_amount: %d",
		r.Date.Format(DateLayout), r.GoodsName, r.SubCategory, r.Amount)
}
