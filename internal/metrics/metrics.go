// Package metrics exposes Prometheus instrumentation for submissions and HTTP
// requests. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pavelanni/ujian/internal/model"
)

// Submission outcomes.
const (
	OutcomeCommitted   = "committed"
	OutcomeInvalid     = "invalid_payload"
	OutcomeLookupError = "option_lookup_failure"
	OutcomeTxError     = "transaction_failure"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	gatherer prometheus.Gatherer

	Submissions        *prometheus.CounterVec
	GradedAnswers      *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram
	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ujian_submissions_total",
				Help: "Answer submissions by outcome",
			},
			[]string{"outcome"},
		),
		GradedAnswers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ujian_graded_answers_total",
				Help: "Committed graded answers by question type and correctness",
			},
			[]string{"tipe_soal", "benar"},
		),
		SubmissionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ujian_submission_duration_seconds",
				Help:    "Duration of answer submissions",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
	}
	reg.MustRegister(m.Submissions, m.GradedAnswers, m.SubmissionDuration, m.RequestCounter, m.RequestDuration)
	return m
}

// ObserveSubmission records one submission attempt.
func (m *Metrics) ObserveSubmission(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
	m.SubmissionDuration.Observe(d.Seconds())
}

// ObserveGradedAnswer records one committed graded answer.
func (m *Metrics) ObserveGradedAnswer(qt model.QuestionType, correct bool) {
	if m == nil {
		return
	}
	m.GradedAnswers.WithLabelValues(string(qt), strconv.FormatBool(correct)).Inc()
}

// Middleware counts requests by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := unmatchedEndpoint
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

// unmatchedEndpoint labels requests no route matched, so unknown paths share
// one series.
const unmatchedEndpoint = "unmatched"

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
