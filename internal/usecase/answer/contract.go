package answer

import (
	"context"

	"github.com/kailas-cloud/salesrag/internal/domain"
)

// SalesReader fetches sales records for a date range and keyword filter.
type SalesReader interface {
	Fetch(ctx context.Context, start, end, keyword string) ([]domain.SaleRecord, error)
}

// Searcher is a built nearest-neighbor index: top-k chunks for a query vector.
type Searcher interface {
	Search(vector []float32, k int) []domain.ScoredChunk
}

// IndexBuilder assembles an ephemeral Searcher from documents.
type IndexBuilder interface {
	Build(ctx context.Context, docs []domain.Document) (Searcher, error)
}

// FilterQuery is the input of the filtered answering path. Dates are passed
// through to the store as-is; semantic validity (start before end) is not
// checked here — an inverted range simply matches nothing.
type FilterQuery struct {
	StartDate string
	EndDate   string
	Keyword   string
	Question  string
}
