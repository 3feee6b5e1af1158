package faq

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"vanrental/internal/analytics"
	"vanrental/pkg/logger"
	"vanrental/pkg/metrics"
	"vanrental/pkg/middleware"
)

// Handler exposes the FAQ service over HTTP.
type Handler struct {
	svc            *Service
	cache          *AnswerCache
	collector      *analytics.Collector
	metrics        *metrics.Metrics
	maxQuestionLen int
	logger         *slog.Logger
}

// NewHandler wires the service with its optional cache, analytics collector,
// and metrics. Any of cache, collector, and m may be nil.
func NewHandler(svc *Service, cache *AnswerCache, collector *analytics.Collector, m *metrics.Metrics, maxQuestionLen int) *Handler {
	if maxQuestionLen <= 0 {
		maxQuestionLen = 500
	}
	return &Handler{
		svc:            svc,
		cache:          cache,
		collector:      collector,
		metrics:        m,
		maxQuestionLen: maxQuestionLen,
		logger:         slog.Default().With("component", "faq-handler"),
	}
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask handles POST /api/faq.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		h.writeError(w, http.StatusBadRequest, "a non-empty question is required")
		return
	}
	if len(question) > h.maxQuestionLen {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("question must be %d characters or fewer", h.maxQuestionLen))
		return
	}

	var answer *Answer
	var err error
	cacheHit := false

	if h.cache != nil {
		answer, cacheHit, err = h.cache.GetOrCompute(ctx, question, func() (*Answer, error) {
			return h.svc.Ask(ctx, question)
		})
	} else {
		answer, err = h.svc.Ask(ctx, question)
	}
	if err != nil {
		log.Error("faq answer failed", "question", question, "error", err)
		h.observeQuestion("error", cacheHit, 0, start)
		h.writeError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}

	latencyMs := time.Since(start).Milliseconds()
	answer.ResponseTimeMs = latencyMs

	outcome := "answered"
	eventType := analytics.EventQuestion
	if len(answer.Sources) == 0 {
		outcome = "no_match"
		eventType = analytics.EventNoMatch
	}
	h.observeQuestion(outcome, cacheHit, answer.Confidence, start)

	log.Info("faq question answered",
		"question", question,
		"confidence", answer.Confidence,
		"sources", len(answer.Sources),
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)

	if h.collector != nil {
		h.collector.Track(analytics.QuestionEvent{
			Type:       eventType,
			Question:   question,
			Confidence: answer.Confidence,
			Sources:    len(answer.Sources),
			LatencyMs:  latencyMs,
			CacheHit:   cacheHit,
			Timestamp:  time.Now().UTC(),
			RequestID:  middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, answer)
}

// Stats handles GET /api/faq/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.logger.Error("faq stats failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load faq corpus")
		return
	}
	h.updateCorpusGauges(stats.ChunkCount, stats.VocabularySize)
	h.writeJSON(w, http.StatusOK, stats)
}

// Health handles GET /api/faq/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error"})
		return
	}
	status := "ready"
	if !stats.Initialized {
		status = "not_initialized"
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"documentCount":  stats.ChunkCount,
		"vocabularySize": stats.VocabularySize,
	})
}

// Reload handles POST /api/faq/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.svc.Reload(ctx)
	if err != nil {
		h.logger.Error("faq reload failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "reload failed")
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.logger.Error("answer cache invalidation failed", "error", err)
		}
	}
	if h.collector != nil {
		h.collector.Track(analytics.QuestionEvent{
			Type:      analytics.EventCorpusReload,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}
	h.updateCorpusGauges(stats.ChunkCount, stats.VocabularySize)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":        "vector store reloaded",
		"initialized":    stats.Initialized,
		"documentCount":  stats.ChunkCount,
		"vocabularySize": stats.VocabularySize,
	})
}

func (h *Handler) observeQuestion(outcome string, cacheHit bool, confidence int, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.FAQQuestionsTotal.WithLabelValues(outcome).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.FAQRetrievalLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	if outcome != "error" {
		h.metrics.FAQConfidence.Observe(float64(confidence))
	}
}

func (h *Handler) updateCorpusGauges(chunks, vocabulary int) {
	if h.metrics == nil {
		return
	}
	h.metrics.FAQChunksLoaded.Set(float64(chunks))
	h.metrics.FAQVocabularySize.Set(float64(vocabulary))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
