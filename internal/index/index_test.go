package index

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/salesrag/internal/domain"
	"github.com/kailas-cloud/salesrag/internal/splitter"
)

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	idx := New("bge-m3", 3)
	pairs := []struct {
		text string
		vec  []float32
	}{
		{"doc-a", []float32{1, 0, 0}},
		{"doc-b", []float32{0, 1, 0}},
		{"doc-c", []float32{0.9, 0.1, 0}},
		{"doc-d", []float32{0, 0, 1}},
	}
	for _, p := range pairs {
		if err := idx.Add(domain.Chunk{Text: p.text}, p.vec); err != nil {
			t.Fatal(err)
		}
	}
	return idx
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	idx := buildTestIndex(t)

	hits := idx.Search([]float32{1, 0, 0}, 3)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].Chunk.Text != "doc-a" || hits[1].Chunk.Text != "doc-c" {
		t.Errorf("unexpected ranking: %s, %s", hits[0].Chunk.Text, hits[1].Chunk.Text)
	}
	if hits[0].Score < hits[1].Score || hits[1].Score < hits[2].Score {
		t.Error("hits not ordered by descending score")
	}
}

func TestSearch_Deterministic(t *testing.T) {
	idx := buildTestIndex(t)
	query := []float32{0.5, 0.5, 0}

	first := idx.Search(query, 3)
	for i := 0; i < 10; i++ {
		again := idx.Search(query, 3)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("search not deterministic on iteration %d", i)
		}
	}
}

func TestSearch_TieBreakKeepsInsertionOrder(t *testing.T) {
	idx := New("bge-m3", 2)
	// Identical vectors: scores tie exactly.
	for _, text := range []string{"first", "second", "third"} {
		if err := idx.Add(domain.Chunk{Text: text}, []float32{1, 1}); err != nil {
			t.Fatal(err)
		}
	}

	hits := idx.Search([]float32{1, 1}, 3)
	got := []string{hits[0].Chunk.Text, hits[1].Chunk.Text, hits[2].Chunk.Text}
	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tie-break order: got %v, want %v", got, want)
	}
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	idx := buildTestIndex(t)
	hits := idx.Search([]float32{1, 0, 0}, 10)
	if len(hits) != idx.Len() {
		t.Errorf("expected all %d chunks, got %d", idx.Len(), len(hits))
	}
}

func TestAdd_DimensionMismatch(t *testing.T) {
	idx := New("bge-m3", 3)
	err := idx.Add(domain.Chunk{Text: "bad"}, []float32{1, 0})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	idx := buildTestIndex(t)
	dir := t.TempDir()

	if err := idx.Save(dir); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Len() != idx.Len() {
		t.Fatalf("expected %d chunks, got %d", idx.Len(), loaded.Len())
	}
	if loaded.Model() != "bge-m3" || loaded.Dimensions() != 3 {
		t.Errorf("meta mismatch: model=%s dim=%d", loaded.Model(), loaded.Dimensions())
	}

	query := []float32{1, 0, 0}
	if !reflect.DeepEqual(idx.Search(query, 4), loaded.Search(query, 4)) {
		t.Error("loaded index ranks differently from the original")
	}
}

// --- Builder ---

type stubEmbedder struct {
	dim      int
	calls    int
	batches  int
	failFrom int // fail on the nth Embed call (1-based); 0 = never
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.calls++
	if s.failFrom > 0 && s.calls >= s.failFrom {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
	}
	vec := make([]float32, s.dim)
	for i := range vec {
		vec[i] = float32(len(text)%7) / 7
	}
	vec[0] = 1
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: len(text)}, nil
}

func (s *stubEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	s.batches++
	return domain.BatchFallback(ctx, s, texts)
}

func TestBuilder_Build(t *testing.T) {
	split, err := splitter.New(50, 10)
	if err != nil {
		t.Fatal(err)
	}
	emb := &stubEmbedder{dim: 4}
	b := NewBuilder(split, emb, "bge-m3", 4, zap.NewNop())

	docs := []domain.Document{
		{ID: "2025-03-01", Text: "sale_date: 2025-03-01\ngoods_name: 김밥\nsub_name: 간편식\nsale_amount: 5"},
		{ID: "2025-03-02", Text: "sale_date: 2025-03-02\ngoods_name: 라면\nsub_name: 면류\nsale_amount: 3"},
	}
	idx, err := b.Build(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}

	if idx.Len() == 0 {
		t.Fatal("empty index")
	}
	if emb.batches != 1 {
		t.Errorf("expected one batch embed call, got %d", emb.batches)
	}
	if emb.calls != idx.Len() {
		t.Errorf("embed calls (%d) != indexed chunks (%d)", emb.calls, idx.Len())
	}
}

func TestBuilder_AbortsOnEmbedError(t *testing.T) {
	split, err := splitter.New(50, 10)
	if err != nil {
		t.Fatal(err)
	}
	emb := &stubEmbedder{dim: 4, failFrom: 2}
	b := NewBuilder(split, emb, "bge-m3", 4, zap.NewNop())

	docs := []domain.Document{
		{ID: "a", Text: "first document body"},
		{ID: "b", Text: "second document body"},
	}
	_, err = b.Build(context.Background(), docs)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected embedding provider error, got %v", err)
	}
}
