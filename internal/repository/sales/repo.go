// Package sales reads the sales dataset from Postgres.
package sales

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/salesrag/internal/domain"
)

// All values reach the query through bound parameters; caller-supplied
// keywords can never alter the query text.
const (
	fetchQuery = `
SELECT s.sale_date, g.goods_name, sc.sub_name, s.sale_amount
FROM sale_data s
JOIN goods g ON s.goods_id = g.goods_id
JOIN sub_category sc ON g.sub_category_id = sc.sub_category_id
WHERE s.sale_date BETWEEN $1::date AND $2::date
  AND ($3 = '' OR g.goods_name ILIKE '%' || $3 || '%' OR sc.sub_name ILIKE '%' || $3 || '%')
ORDER BY s.sale_date ASC`

	fetchAllQuery = `
SELECT s.sale_date, g.goods_name, sc.sub_name, s.sale_amount
FROM sale_data s
JOIN goods g ON s.goods_id = g.goods_id
JOIN sub_category sc ON g.sub_category_id = sc.sub_category_id
ORDER BY s.sale_date ASC`
)

// Repository is the read-only Postgres adapter for sales records.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a sales repository over a pgx pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Fetch returns all records whose sale date falls in [start, end] and whose
// goods name or sub-category contains keyword, ascending by date. An empty
// keyword matches everything. Zero matches is an empty slice, not an error.
// Malformed date strings surface as a query error from the date cast.
func (r *Repository) Fetch(ctx context.Context, start, end, keyword string) ([]domain.SaleRecord, error) {
	rows, err := r.pool.Query(ctx, fetchQuery, start, end, keyword)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// FetchAll returns the whole dataset ascending by date, for the bulk index build.
func (r *Repository) FetchAll(ctx context.Context) ([]domain.SaleRecord, error) {
	rows, err := r.pool.Query(ctx, fetchAllQuery)
	if err != nil {
		return nil, fmt.Errorf("query all sales: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Ping verifies database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows pgxRows) ([]domain.SaleRecord, error) {
	var records []domain.SaleRecord
	for rows.Next() {
		var rec domain.SaleRecord
		if err := rows.Scan(&rec.Date, &rec.GoodsName, &rec.SubCategory, &rec.Amount); err != nil {
			return nil, fmt.Errorf("scan sale record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales rows: %w", err)
	}
	return records, nil
}
