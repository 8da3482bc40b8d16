package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/pavelanni/ujian/internal/i18n"
	"github.com/pavelanni/ujian/internal/llm"
	"github.com/pavelanni/ujian/internal/metrics"
	"github.com/pavelanni/ujian/internal/model"
	"github.com/pavelanni/ujian/internal/store"
	"github.com/pavelanni/ujian/internal/submission"
)

const maxBodyBytes = 1 << 20

// EssayReviewer suggests a score for an essay answer.
type EssayReviewer interface {
	ReviewEssay(ctx context.Context, question, answer string) (*llm.Review, error)
	Model() string
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store      *store.Store
	submission *submission.Service
	reviewer   EssayReviewer
	metrics    *metrics.Metrics
	config     model.Config
}

// New creates a new Handler. reviewer and m may be nil.
func New(s *store.Store, svc *submission.Service, reviewer EssayReviewer, m *metrics.Metrics, cfg model.Config) *Handler {
	return &Handler{store: s, submission: svc, reviewer: reviewer, metrics: m, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/hasil", h.handleSubmit)
		r.Post("/peserta/login", h.handleParticipantLogin)
		r.Post("/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/logout", h.handleLogout)
			r.Get("/exams", h.handleListExams)
			r.Get("/hasil/{examID}", h.handleExamSummary)
			r.Get("/hasil/{examID}/peserta/{pesertaID}", h.handleParticipantAnswers)
			r.With(requireRole(model.UserRoleAdmin)).
				Post("/hasil/{examID}/essay/{hasilID}/review", h.handleEssayReview)

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireRole(model.UserRoleAdmin))
				r.Get("/users", h.handleListUsers)
				r.Post("/users", h.handleCreateUser)
				r.Post("/users/{userID}/toggle", h.handleToggleUserActive)
			})
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError sends a localized {message} body.
func writeError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, errorResponse{Message: appI18n.T(r.Context(), msgID)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
