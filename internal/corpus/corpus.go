// Package corpus turns sales records into retrievable documents and handles
// the offline tabular artifact.
//
// The per-request path is entirely in-memory: records become documents that
// are handed straight to the index builder. Nothing request-scoped touches
// the filesystem, so concurrent requests cannot race on a shared artifact.
package corpus

import (
	"sort"

	"github.com/kailas-cloud/salesrag/internal/domain"
)

// FromRecords builds one document per record, in input order, rendered as
// key-value field lines. Returns domain.ErrNoData for an empty record set so
// the caller can short-circuit to the fallback answer.
func FromRecords(records []domain.SaleRecord) ([]domain.Document, error) {
	if len(records) == 0 {
		return nil, domain.ErrNoData
	}

	docs := make([]domain.Document, len(records))
	for i, r := range records {
		docs[i] = domain.Document{
			ID:   r.Date.Format(domain.DateLayout),
			Text: r.Fields(),
		}
	}
	return docs, nil
}

// GroupByDate builds one document per distinct sale date, with every
// same-date record's sentence joined by a newline. Documents come out in
// ascending date order. This is the bulk-index document shape.
func GroupByDate(records []domain.SaleRecord) []domain.Document {
	byDate := make(map[string][]string)
	for _, r := range records {
		key := r.Date.Format(domain.DateLayout)
		byDate[key] = append(byDate[key], r.Sentence())
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	docs := make([]domain.Document, 0, len(dates))
	for _, d := range dates {
		docs = append(docs, domain.Document{ID: d, Text: join(byDate[d])})
	}
	return docs
}

func join(lines []string) string {
	out := lines[0]
	for _, l := range lines[1:] {
		out += "\n" + l
	}
	return out
}
