package answer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/salesrag/internal/domain"
	"github.com/kailas-cloud/salesrag/internal/prompt"
)

// --- Mocks ---

type mockSales struct {
	records     []domain.SaleRecord
	err         error
	lastStart   string
	lastEnd     string
	lastKeyword string
	calls       int
}

func (m *mockSales) Fetch(_ context.Context, start, end, keyword string) ([]domain.SaleRecord, error) {
	m.calls++
	m.lastStart, m.lastEnd, m.lastKeyword = start, end, keyword
	if m.err != nil {
		return nil, m.err
	}
	// Substring filter over the fixture, mirroring the store's contract.
	if keyword == "" {
		return m.records, nil
	}
	var out []domain.SaleRecord
	for _, r := range m.records {
		if strings.Contains(r.GoodsName, keyword) || strings.Contains(r.SubCategory, keyword) {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockSearcher struct {
	hits  []domain.ScoredChunk
	calls int
	lastK int
}

func (m *mockSearcher) Search(_ []float32, k int) []domain.ScoredChunk {
	m.calls++
	m.lastK = k
	if k > len(m.hits) {
		k = len(m.hits)
	}
	return m.hits[:k]
}

type mockBuilder struct {
	searcher *mockSearcher
	err      error
	calls    int
	lastDocs []domain.Document
}

func (m *mockBuilder) Build(_ context.Context, docs []domain.Document) (Searcher, error) {
	m.calls++
	m.lastDocs = docs
	if m.err != nil {
		return nil, m.err
	}
	return m.searcher, nil
}

type mockEmbedder struct {
	calls int
	err   error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

type mockChat struct {
	answer     string
	err        error
	calls      int
	lastPrompt string
}

func (m *mockChat) Complete(_ context.Context, p string) (string, error) {
	m.calls++
	m.lastPrompt = p
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func testTemplate(t *testing.T) *prompt.Template {
	t.Helper()
	tpl, err := prompt.New("#Context:\n{context}\n\n#Question:\n{question}")
	if err != nil {
		t.Fatal(err)
	}
	return tpl
}

func date(s string) time.Time {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func hits(texts ...string) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(texts))
	for i, txt := range texts {
		out[i] = domain.ScoredChunk{Chunk: domain.Chunk{Text: txt}, Score: 1 - float64(i)*0.1}
	}
	return out
}

// --- Tests ---

func TestAnswer_FullPath(t *testing.T) {
	static := &mockSearcher{hits: hits("chunk-1", "chunk-2", "chunk-3")}
	emb := &mockEmbedder{}
	chat := &mockChat{answer: "3월에는 김밥이 총 12개 팔렸습니다."}
	svc := New(&mockSales{}, static, &mockBuilder{}, emb, chat, testTemplate(t), 3, zap.NewNop())

	got, err := svc.Answer(context.Background(), "3월에 김밥 많이 팔렸어?")
	if err != nil {
		t.Fatal(err)
	}
	if got != chat.answer {
		t.Errorf("answer = %q", got)
	}
	if static.lastK != 3 {
		t.Errorf("top-k = %d, want 3", static.lastK)
	}
	if emb.calls != 1 {
		t.Errorf("embed calls = %d, want 1", emb.calls)
	}
}

func TestAnswer_ContextJoinsHitsInRankOrder(t *testing.T) {
	static := &mockSearcher{hits: hits("first", "second", "third")}
	chat := &mockChat{answer: "ok"}
	svc := New(&mockSales{}, static, &mockBuilder{}, &mockEmbedder{}, chat, testTemplate(t), 3, zap.NewNop())

	if _, err := svc.Answer(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(chat.lastPrompt, "first\n\nsecond\n\nthird") {
		t.Errorf("context not joined in rank order with blank lines:\n%s", chat.lastPrompt)
	}
	if !strings.Contains(chat.lastPrompt, "#Question:\nq") {
		t.Errorf("question not substituted:\n%s", chat.lastPrompt)
	}
}

func TestAnswer_IrrelevantQuestionStillGetsTopK(t *testing.T) {
	// No "relevant" documents exist; retrieval must still return the k
	// nearest by distance, never an empty context.
	static := &mockSearcher{hits: hits("a", "b", "c")}
	chat := &mockChat{answer: "non-empty"}
	svc := New(&mockSales{}, static, &mockBuilder{}, &mockEmbedder{}, chat, testTemplate(t), 3, zap.NewNop())

	got, err := svc.Answer(context.Background(), "완전히 무관한 질문")
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("expected non-empty answer")
	}
	if !strings.Contains(chat.lastPrompt, "a\n\nb\n\nc") {
		t.Error("context must contain the 3 nearest chunks")
	}
}

func TestAnswer_NoStaticIndex(t *testing.T) {
	svc := New(&mockSales{}, nil, &mockBuilder{}, &mockEmbedder{}, &mockChat{}, testTemplate(t), 3, zap.NewNop())

	_, err := svc.Answer(context.Background(), "q")
	if !errors.Is(err, domain.ErrIndexNotLoaded) {
		t.Fatalf("expected ErrIndexNotLoaded, got %v", err)
	}
}

func TestAnswerFiltered_RoundTrip(t *testing.T) {
	sales := &mockSales{records: []domain.SaleRecord{
		{Date: date("2025-03-01"), GoodsName: "김밥", SubCategory: "간편식", Amount: 5},
	}}
	builder := &mockBuilder{searcher: &mockSearcher{hits: hits("sale_date: 2025-03-01")}}
	emb := &mockEmbedder{}
	chat := &mockChat{answer: "3월 1일에 김밥이 5개 판매되었습니다."}
	svc := New(sales, nil, builder, emb, chat, testTemplate(t), 3, zap.NewNop())

	got, err := svc.AnswerFiltered(context.Background(), FilterQuery{
		StartDate: "2025-03-01",
		EndDate:   "2025-03-31",
		Keyword:   "김밥",
		Question:  "3월에 김밥 얼마나 팔렸어?",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != chat.answer {
		t.Errorf("answer = %q", got)
	}
	if builder.calls != 1 {
		t.Errorf("builder calls = %d, want 1", builder.calls)
	}
	if len(builder.lastDocs) != 1 {
		t.Errorf("expected 1 document, got %d", len(builder.lastDocs))
	}
	if sales.lastKeyword != "김밥" {
		t.Errorf("keyword passed to store = %q", sales.lastKeyword)
	}
}

func TestAnswerFiltered_NoDataShortCircuits(t *testing.T) {
	sales := &mockSales{records: []domain.SaleRecord{
		{Date: date("2025-03-01"), GoodsName: "김밥", SubCategory: "간편식", Amount: 5},
	}}
	builder := &mockBuilder{searcher: &mockSearcher{}}
	emb := &mockEmbedder{}
	chat := &mockChat{answer: "should never be produced"}
	svc := New(sales, nil, builder, emb, chat, testTemplate(t), 3, zap.NewNop())

	_, err := svc.AnswerFiltered(context.Background(), FilterQuery{
		StartDate: "2025-03-01",
		EndDate:   "2025-03-31",
		Keyword:   "라면",
		Question:  "라면 팔렸어?",
	})
	if !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if builder.calls != 0 {
		t.Error("index builder must not run without data")
	}
	if emb.calls != 0 {
		t.Error("embedder must not run without data")
	}
	if chat.calls != 0 {
		t.Error("chat model must not run without data")
	}
}

func TestAnswerFiltered_StoreErrorPropagates(t *testing.T) {
	wantErr := errors.New("connection refused")
	svc := New(&mockSales{err: wantErr}, nil, &mockBuilder{}, &mockEmbedder{}, &mockChat{}, testTemplate(t), 3, zap.NewNop())

	_, err := svc.AnswerFiltered(context.Background(), FilterQuery{Question: "q"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestAnswerFiltered_BuildErrorPropagates(t *testing.T) {
	sales := &mockSales{records: []domain.SaleRecord{
		{Date: date("2025-03-01"), GoodsName: "김밥", SubCategory: "간편식", Amount: 5},
	}}
	builder := &mockBuilder{err: domain.ErrEmbeddingProviderError}
	chat := &mockChat{}
	svc := New(sales, nil, builder, &mockEmbedder{}, chat, testTemplate(t), 3, zap.NewNop())

	_, err := svc.AnswerFiltered(context.Background(), FilterQuery{Question: "q"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected embedding provider error, got %v", err)
	}
	if chat.calls != 0 {
		t.Error("chat model must not run after a failed build")
	}
}

func TestAnswer_ChatErrorPropagates(t *testing.T) {
	static := &mockSearcher{hits: hits("a")}
	chat := &mockChat{err: domain.ErrChatProviderError}
	svc := New(&mockSales{}, static, &mockBuilder{}, &mockEmbedder{}, chat, testTemplate(t), 3, zap.NewNop())

	_, err := svc.Answer(context.Background(), "q")
	if !errors.Is(err, domain.ErrChatProviderError) {
		t.Fatalf("expected chat provider error, got %v", err)
	}
}
