package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Devindin/Issue-Tracker-sub001/internal/obs"
	"github.com/Devindin/Issue-Tracker-sub001/internal/tracker"

	"github.com/Devindin/Issue-Tracker-sub001/internal/auth"
)

// ReadyProbe is a readiness check, typically a DB ping.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the tracker service.
type API struct {
	mux        *http.ServeMux
	svc        *tracker.Service
	tokens     *auth.Tokens
	readyProbe ReadyProbe
	version    string

	maxBodyBytes int64
	rateRPS      float64
	rateBurst    int
	corsOrigins  []string
}

// Option configures the API.
type Option func(*API)

// WithMaxBodyBytes caps request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

// WithRateLimit sets the per-client token bucket. Zero rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(a *API) {
		a.rateRPS = rps
		if burst > 0 {
			a.rateBurst = burst
		}
	}
}

// WithCORSOrigins sets the allowed cross-origin list.
func WithCORSOrigins(origins []string) Option {
	return func(a *API) { a.corsOrigins = origins }
}

func New(svc *tracker.Service, tokens *auth.Tokens, rp ReadyProbe, version string, opts ...Option) *API {
	a := &API{
		mux:          http.NewServeMux(),
		svc:          svc,
		tokens:       tokens,
		readyProbe:   rp,
		version:      version,
		maxBodyBytes: 1 << 20,
		rateRPS:      0,
		rateBurst:    100,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// credential and session endpoints
	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)

	// tenant-scoped resources
	a.mux.HandleFunc("/v1/users", a.handleUsersCollection)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)
	a.mux.HandleFunc("/v1/projects", a.handleProjectsCollection)
	a.mux.HandleFunc("/v1/projects/", a.handleProjectResource)
	a.mux.HandleFunc("/v1/issues", a.handleIssuesCollection)
	a.mux.HandleFunc("/v1/issues/", a.handleIssueResource)

	// reporting and export
	a.mux.HandleFunc("/v1/reports/summary", a.handleReportSummary)
	a.mux.HandleFunc("/v1/export/issues", a.handleExportIssues)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	if a.rateRPS > 0 {
		h = RateLimit(h, a.rateBurst, a.rateRPS)
	}
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(h, a.corsOrigins)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "tracker-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "tracker-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
