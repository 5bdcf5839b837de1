// Package index provides an exact in-memory nearest-neighbor index over
// chunk embeddings, plus building and on-disk persistence.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/salesrag/internal/domain"
)

// Index holds chunks and their embedding vectors in insertion order.
// Lookups are read-only, so a built index is safe to share across requests.
type Index struct {
	model   string
	dim     int
	chunks  []domain.Chunk
	vectors [][]float32
}

// New creates an empty index for the given embedding model and dimension.
func New(model string, dim int) *Index {
	return &Index{model: model, dim: dim}
}

// Add appends a (chunk, vector) pair. The vector dimension must match the
// index; the first inserted vector fixes the dimension when it was unset.
func (x *Index) Add(chunk domain.Chunk, vector []float32) error {
	if x.dim == 0 {
		x.dim = len(vector)
	}
	if len(vector) != x.dim {
		return fmt.Errorf("got %d dimensions, index has %d: %w",
			len(vector), x.dim, domain.ErrDimensionMismatch)
	}
	x.chunks = append(x.chunks, chunk)
	x.vectors = append(x.vectors, vector)
	return nil
}

// Len reports the number of indexed chunks.
func (x *Index) Len() int { return len(x.chunks) }

// Model reports the embedding model the index was built with.
func (x *Index) Model() string { return x.model }

// Dimensions reports the vector dimension.
func (x *Index) Dimensions() int { return x.dim }

// Search returns the k chunks most similar to the query vector by cosine
// similarity, best first. Ties keep insertion order, so identical inputs
// always produce the same ranking. Fewer than k chunks returns them all.
func (x *Index) Search(vector []float32, k int) []domain.ScoredChunk {
	if len(x.chunks) == 0 || k <= 0 {
		return nil
	}

	order := make([]int, len(x.chunks))
	scores := make([]float64, len(x.chunks))
	for i := range x.chunks {
		order[i] = i
		scores[i] = cosine(vector, x.vectors[i])
	}

	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	hits := make([]domain.ScoredChunk, k)
	for i := 0; i < k; i++ {
		hits[i] = domain.ScoredChunk{Chunk: x.chunks[order[i]], Score: scores[order[i]]}
	}
	return hits
}

// cosine computes cosine similarity. A zero vector scores 0 against anything.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
