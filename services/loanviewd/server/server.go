package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"lendview/core/loan"
	"lendview/core/pricing"
	"lendview/observability"
	"lendview/services/loanform"
	"lendview/services/loanviewd/storage"
	"lendview/services/notify"
	"lendview/services/staking"
)

const maxBodyBytes = 4 << 10

// Journal persists and lists submit attempts.
type Journal interface {
	loanform.Journal
	BySession(ctx context.Context, session string, limit int) ([]storage.Submission, error)
	ByBorrower(ctx context.Context, borrower string, limit int) ([]storage.Submission, error)
}

// Config holds the collaborators a Server routes loan form traffic to.
type Config struct {
	Params         loan.ParamsSource
	Prices         loan.PriceSource
	Quotes         loanform.QuoteSource
	Submitter      loanform.Submitter
	Notifier       notify.Notifier
	Journal        Journal
	Pools          staking.PoolLister
	Metrics        *observability.LoanFormMetrics
	StakingMetrics *observability.StakingMetrics
	Auth           AuthConfig
	RateLimit      RateLimit
	Registerer     prometheus.Registerer
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
}

// Server exposes loan form sessions over HTTP.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	sessions *registry
	auth     *Authenticator
	limiter  *RateLimiter
	http     *httpMetrics
	router   http.Handler
}

// New constructs a configured HTTP router.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	srv := &Server{
		cfg:      cfg,
		logger:   logger.With("component", "server"),
		sessions: newRegistry(),
		auth:     NewAuthenticator(cfg.Auth, logger),
		limiter:  NewRateLimiter(cfg.RateLimit),
		http:     newHTTPMetrics(cfg.Registerer),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Handler returns the instrumented router serving /v1, /healthz and /metrics.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the number of mounted loan forms.
func (s *Server) Sessions() int {
	return s.sessions.len()
}

// OnQuote re-derives every mounted form after the price feed moved and pushes
// the new snapshot to stream subscribers. It satisfies pricing.Listener.
func (s *Server) OnQuote(_ pricing.Quote, status pricing.PriceStatus) {
	for _, sess := range s.sessions.all() {
		snap := sess.do(func(v *loanform.View) { v.OnPriceUpdate(status) })
		sess.publish(snap)
	}
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.http.middleware(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(api chi.Router) {
		api.Use(s.limiter.Middleware)
		api.Route("/loan/sessions", func(sr chi.Router) {
			sr.Post("/", s.createSession)
			sr.Route("/{id}", func(one chi.Router) {
				one.Get("/", s.getSession)
				one.Delete("/", s.deleteSession)
				one.Post("/collateral", s.setCollateral)
				one.Get("/stream", s.streamSession)
				one.Get("/submissions", s.listSubmissions)
				one.With(s.auth.Middleware).Post("/submit", s.submit)
			})
		})
		api.With(s.auth.Middleware).Get("/loans/submissions", s.listBorrowerSubmissions)
		api.Get("/staking/{tab}", s.stakingPools)
	})
	return otelhttp.NewHandler(r, "loanviewd")
}

type httpMetrics struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lendview",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed by loanviewd.",
		}, []string{"route", "method", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lendview",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.durations)
	}
	return m
}

func (m *httpMetrics) middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(recorder, r)
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := recorder.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			m.requests.WithLabelValues(route, r.Method, http.StatusText(status)).Inc()
			m.durations.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())
			logger.Debug("request served",
				"method", r.Method,
				"route", route,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
