package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/salesrag/internal/domain"
	"github.com/kailas-cloud/salesrag/internal/splitter"
)

// Builder assembles an index from documents: split each document into
// chunks, embed every chunk, insert pairs in document order.
type Builder struct {
	split    *splitter.Splitter
	embedder domain.Embedder
	model    string
	dim      int
	logger   *zap.Logger
}

// NewBuilder creates an index builder. dim may be 0 when the embedding model
// does not advertise its dimension; the first vector then fixes it.
func NewBuilder(split *splitter.Splitter, embedder domain.Embedder, model string, dim int, logger *zap.Logger) *Builder {
	return &Builder{split: split, embedder: embedder, model: model, dim: dim, logger: logger}
}

// Build creates an index over all documents. Any embedding failure aborts
// the build; a partial index is never returned.
func (b *Builder) Build(ctx context.Context, docs []domain.Document) (*Index, error) {
	var chunks []domain.Chunk
	for _, doc := range docs {
		for _, text := range b.split.Split(doc.Text) {
			chunks = append(chunks, domain.Chunk{DocID: doc.ID, Text: text})
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks produced from %d documents", len(docs))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	result, err := b.embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}

	idx := New(b.model, b.dim)
	for i, c := range chunks {
		if err := idx.Add(c, result.Embeddings[i]); err != nil {
			return nil, fmt.Errorf("add chunk %d: %w", i, err)
		}
	}

	b.logger.Debug("index built",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", idx.Len()),
		zap.Int("dimensions", idx.Dimensions()),
		zap.Int("tokens", result.TotalTokens),
	)
	return idx, nil
}

// embed uses the provider's batch endpoint when available, one call per
// chunk otherwise.
func (b *Builder) embed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := b.embedder.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, b.embedder, texts)
}
