// Package answer implements the retrieval-augmented answering pipeline.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/salesrag/internal/corpus"
	"github.com/kailas-cloud/salesrag/internal/domain"
	"github.com/kailas-cloud/salesrag/internal/logger"
	"github.com/kailas-cloud/salesrag/internal/metrics"
	"github.com/kailas-cloud/salesrag/internal/prompt"
)

// Service answers questions over sales data. The full path retrieves from
// the precomputed whole-dataset index; the filtered path builds a fresh
// request-scoped index over a filtered record slice. Both end in the same
// retrieve → prompt → complete pipeline.
type Service struct {
	sales         SalesReader
	static        Searcher // nil when no precomputed index is available
	builder       IndexBuilder
	queryEmbedder domain.Embedder
	chat          domain.ChatModel
	tpl           *prompt.Template
	topK          int
	logger        *zap.Logger
}

// New creates the answering service. static may be nil; the full path then
// reports domain.ErrIndexNotLoaded.
func New(
	sales SalesReader,
	static Searcher,
	builder IndexBuilder,
	queryEmbedder domain.Embedder,
	chat domain.ChatModel,
	tpl *prompt.Template,
	topK int,
	log *zap.Logger,
) *Service {
	return &Service{
		sales:         sales,
		static:        static,
		builder:       builder,
		queryEmbedder: queryEmbedder,
		chat:          chat,
		tpl:           tpl,
		topK:          topK,
		logger:        log,
	}
}

// Answer runs the pipeline against the precomputed whole-dataset index.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	if s.static == nil {
		return "", domain.ErrIndexNotLoaded
	}
	return s.generate(ctx, s.static, question)
}

// AnswerFiltered fetches records for the filter, builds an ephemeral index
// over them, and runs the pipeline. Zero matching records short-circuits
// with domain.ErrNoData before any splitting, embedding, or model call.
func (s *Service) AnswerFiltered(ctx context.Context, q FilterQuery) (string, error) {
	records, err := s.sales.Fetch(ctx, q.StartDate, q.EndDate, q.Keyword)
	if err != nil {
		return "", fmt.Errorf("fetch sales: %w", err)
	}

	docs, err := corpus.FromRecords(records)
	if err != nil {
		return "", err
	}

	// The index exists only for this request; the id ties its log lines together.
	indexID := uuid.NewString()
	log := logger.FromContext(ctx)
	log.Debug("building ephemeral index",
		zap.String("index_id", indexID),
		zap.Int("records", len(records)),
		zap.String("start_date", q.StartDate),
		zap.String("end_date", q.EndDate),
		zap.String("keyword", q.Keyword),
	)

	idx, err := s.builder.Build(ctx, docs)
	if err != nil {
		return "", fmt.Errorf("build index %s: %w", indexID, err)
	}
	if sized, ok := idx.(interface{ Len() int }); ok {
		metrics.IndexChunksTotal.WithLabelValues("filtered").Add(float64(sized.Len()))
	}

	return s.generate(ctx, idx, q.Question)
}

// generate is the shared tail of both paths: embed the question, retrieve
// top-k chunks, render the prompt, call the model. The model's text is
// returned as-is, with no validation against the retrieved context.
func (s *Service) generate(ctx context.Context, idx Searcher, question string) (string, error) {
	embedded, err := s.queryEmbedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	hits := idx.Search(embedded.Embedding, s.topK)

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Chunk.Text
	}
	contextText := strings.Join(texts, "\n\n")

	rendered := s.tpl.Render(contextText, question)

	answerText, err := s.chat.Complete(ctx, rendered)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return answerText, nil
}
