// Package chi exposes the HTTP API: question answering over the full index,
// answering over a filtered slice, health, and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/salesrag/internal/domain"
	"github.com/kailas-cloud/salesrag/internal/logger"
	answeruc "github.com/kailas-cloud/salesrag/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/salesrag/internal/usecase/health"
)

// AnswerService is the consumer contract for the answering pipeline.
type AnswerService interface {
	Answer(ctx context.Context, question string) (string, error)
	AnswerFiltered(ctx context.Context, q answeruc.FilterQuery) (string, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	answers  AnswerService
	health   HealthService
	fallback string
	logger   *zap.Logger
}

// NewServer creates the HTTP API server. fallback is the fixed answer
// returned when a filter matches no data.
func NewServer(answers AnswerService, health HealthService, fallback string, log *zap.Logger) *Server {
	return &Server{answers: answers, health: health, fallback: fallback, logger: log}
}

// Routes mounts all endpoints on a router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/chat", s.handleChatFull)
	r.Post("/chat/full", s.handleChatFull)
	r.Post("/filter", s.handleFilter)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

type questionRequest struct {
	Question string `json:"question"`
}

type filterRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Keyword   string `json:"keyword"`
	Question  string `json:"question"`
}

type answerResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleChatFull(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "question is required")
		return
	}

	answer, err := s.answers.Answer(r.Context(), req.Question)
	if err != nil {
		s.writeServiceError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Answer: answer})
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "question is required")
		return
	}

	answer, err := s.answers.AnswerFiltered(r.Context(), answeruc.FilterQuery{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Keyword:   req.Keyword,
		Question:  req.Question,
	})
	if errors.Is(err, domain.ErrNoData) {
		// Zero matches is a defined recovery path, not a failure.
		writeJSON(w, http.StatusOK, answerResponse{Answer: s.fallback})
		return
	}
	if err != nil {
		s.writeServiceError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Answer: answer})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// writeServiceError maps domain sentinels to HTTP statuses. Anything
// unrecognized surfaces as a generic 500.
func (s *Server) writeServiceError(r *http.Request, w http.ResponseWriter, err error) {
	log := logger.FromContext(r.Context())

	switch {
	case errors.Is(err, domain.ErrIndexNotLoaded):
		log.Warn("request against unloaded index", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "index_not_loaded", "precomputed index is not available")
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		log.Error("embedding provider failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, "embedding_provider_error", "embedding provider failed")
	case errors.Is(err, domain.ErrChatProviderError):
		log.Error("chat provider failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, "chat_provider_error", "chat provider failed")
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
