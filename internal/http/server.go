// Package http serves the resolved string registry over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"langstrings/internal/core"
	"langstrings/internal/flood"
	"langstrings/internal/i18n"
	"langstrings/internal/store"
	"langstrings/pkg/fuzzy"
)

const (
	shutdownTimeout = 10 * time.Second
	rootCacheKey    = "\x00root"
	maxSuggestions  = 3
)

// Options carries the data the server exposes.
type Options struct {
	Registry  *i18n.Registry
	Index     *store.PathIndex
	Limiter   *flood.Floodgate
	Stats     core.CatalogStats
	CacheSize int
}

type Server struct {
	config    *core.ServerConfig
	logger    *zap.Logger
	server    *http.Server
	metrics   *Metrics
	registry  *i18n.Registry
	index     *store.PathIndex
	limiter   *flood.Floodgate
	cache     *lru.Cache[string, []byte]
	paths     []string
	suggester *fuzzy.Suggester
}

type Metrics struct {
	Registry           *prometheus.Registry
	LookupsTotal       *prometheus.CounterVec
	FormatsTotal       *prometheus.CounterVec
	RateLimitedTotal   prometheus.Counter
	CacheTotal         *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	Leaves             prometheus.Gauge
	OverridesApplied   prometheus.Gauge
	OverridesUnmatched prometheus.Gauge
}

func newMetrics() *Metrics {
	metrics := &Metrics{
		Registry: prometheus.NewRegistry(),
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "langstrings_lookups_total",
				Help: "Total number of string lookups",
			},
			[]string{"status"},
		),
		FormatsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "langstrings_formats_total",
				Help: "Total number of size bucket formats",
			},
			[]string{"status"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "langstrings_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
		),
		CacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "langstrings_render_cache_total",
				Help: "Rendered subtree cache lookups",
			},
			[]string{"result"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "langstrings_request_duration_seconds",
				Help:    "Time spent serving API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		Leaves: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "langstrings_leaves",
				Help: "Number of leaf strings in the registry",
			},
		),
		OverridesApplied: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "langstrings_overrides_applied",
				Help: "Number of override entries matching a string",
			},
		),
		OverridesUnmatched: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "langstrings_overrides_unmatched",
				Help: "Number of override entries matching no string",
			},
		),
	}

	metrics.Registry.MustRegister(
		metrics.LookupsTotal,
		metrics.FormatsTotal,
		metrics.RateLimitedTotal,
		metrics.CacheTotal,
		metrics.RequestDuration,
		metrics.Leaves,
		metrics.OverridesApplied,
		metrics.OverridesUnmatched,
	)

	return metrics
}

func NewServer(config *core.ServerConfig, opts Options, logger *zap.Logger) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("http server needs a resolved registry")
	}
	if opts.Index == nil {
		opts.Index = store.NewPathIndex(uint(len(opts.Registry.Paths())), core.DefaultBloomFalsePositiveRate)
		opts.Index.Load(opts.Registry.Paths())
	}
	if opts.Limiter == nil {
		opts.Limiter = flood.New(0)
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = core.DefaultCacheSize
	}

	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}

	metrics := newMetrics()
	metrics.Leaves.Set(float64(opts.Index.Size()))
	metrics.OverridesApplied.Set(float64(opts.Stats.OverridesApplied))
	metrics.OverridesUnmatched.Set(float64(len(opts.Stats.OverridesUnmatched)))

	s := &Server{
		config:    config,
		logger:    logger,
		metrics:   metrics,
		registry:  opts.Registry,
		index:     opts.Index,
		limiter:   opts.Limiter,
		cache:     cache,
		paths:     opts.Registry.Paths(),
		suggester: fuzzy.NewSuggester(fuzzy.DefaultThreshold),
	}
	s.server = createHTTPServer(config, s.setupRoutes())

	return s, nil
}

func createHTTPServer(config *core.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeRawJSON(w, http.StatusOK, []byte(`{"status":"ok","service":"langstrings"}`))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeRawJSON(w, http.StatusOK, []byte(`{"status":"ready","service":"langstrings"}`))
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("GET /api/strings", s.api("strings", s.handleStrings))
	mux.Handle("GET /api/strings/{path...}", s.api("strings", s.handleStrings))
	mux.Handle("GET /api/format/{path...}", s.api("format", s.handleFormat))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(indexPage)); err != nil {
			s.logger.Debug("Failed to write index page", zap.Error(err))
		}
	})

	return mux
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
    <title>langstrings</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
    </style>
</head>
<body>
    <h1>langstrings</h1>
    <p>Localized string bundle service</p>

    <h2>Endpoints</h2>
    <div class="endpoint"><a href="/api/strings">/api/strings</a> - Resolved string registry</div>
    <div class="endpoint">/api/strings/{path} - String or subtree at a dotted path</div>
    <div class="endpoint">/api/format/{path}?size=N - Size bucket rendered for a count</div>
    <div class="endpoint"><a href="/metrics">/metrics</a> - Prometheus metrics</div>
    <div class="endpoint"><a href="/healthz">/healthz</a> - Health check</div>
    <div class="endpoint"><a href="/readyz">/readyz</a> - Readiness check</div>
</body>
</html>`

// api wraps an API handler with rate limiting and latency tracking.
func (s *Server) api(route string, handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			s.metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}()

		if retryAfter, ok := s.limiter.Reserve(clientID(r)); !ok {
			s.metrics.RateLimitedTotal.Inc()
			w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(retryAfter)))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		handler(w, r)
	})
}

func (s *Server) handleStrings(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	cacheKey := path
	if path == "" {
		cacheKey = rootCacheKey
	}
	if body, ok := s.cache.Get(cacheKey); ok {
		s.metrics.CacheTotal.WithLabelValues("hit").Inc()
		s.metrics.LookupsTotal.WithLabelValues("ok").Inc()
		writeRawJSON(w, http.StatusOK, body)
		return
	}
	s.metrics.CacheTotal.WithLabelValues("miss").Inc()

	node, found := s.lookup(path)
	if !found {
		s.metrics.LookupsTotal.WithLabelValues("not_found").Inc()
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:       fmt.Sprintf("no string at %q", path),
			Suggestions: s.suggester.Suggest(path, s.paths, maxSuggestions),
		})
		return
	}

	body, err := i18n.MarshalNode(node)
	if err != nil {
		s.logger.Error("Failed to encode strings", zap.String("path", path), zap.Error(err))
		s.metrics.LookupsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "failed to encode strings")
		return
	}

	s.cache.Add(cacheKey, body)
	s.metrics.LookupsTotal.WithLabelValues("ok").Inc()
	writeRawJSON(w, http.StatusOK, body)
}

// lookup resolves leaves through the path index first so unknown leaf paths
// only pay for a tree walk when they might name a subtree.
func (s *Server) lookup(path string) (i18n.Node, bool) {
	if path == "" {
		return s.registry.Root(), true
	}
	if s.index.Has(path) {
		return s.registry.Lookup(path)
	}
	node, found := s.registry.Lookup(path)
	if !found {
		return nil, false
	}
	if _, isTree := node.(*i18n.Tree); !isTree {
		return nil, false
	}
	return node, true
}

type formatResponse struct {
	Path string `json:"path"`
	Size int    `json:"size"`
	Text string `json:"text"`
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil {
		s.metrics.FormatsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "size must be an integer")
		return
	}

	node, found := s.registry.Lookup(path)
	if !found {
		s.metrics.FormatsTotal.WithLabelValues("not_found").Inc()
		writeError(w, http.StatusNotFound, fmt.Sprintf("no size bucket at %q", path))
		return
	}

	sizes, err := i18n.SizesFromTree(node)
	if err != nil {
		s.metrics.FormatsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%q is not a size bucket", path))
		return
	}

	s.metrics.FormatsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, formatResponse{
		Path: path,
		Size: size,
		Text: i18n.FormatSize(size, sizes),
	})
}

// retrySeconds rounds d up to whole seconds for the Retry-After header.
func retrySeconds(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error       string   `json:"error"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Handler returns the root handler of the server.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) GetMetrics() *Metrics {
	return s.metrics
}
