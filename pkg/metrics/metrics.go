// Package metrics exposes the supervisor's operational counters over a
// small HTTP sidecar (chi + cors + prometheus/client_golang, the same
// stack the teacher's pkg/api wires for FreyjaDB's REST API). It is
// observability-only: it never reads or mutates stored keys, so it does
// not reopen the external-query-surface Non-goal spec.md excludes.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector tracks the gauges and counters the supervisor reports.
type Collector struct {
	activeSessions prometheus.Gauge
	paused         prometheus.Gauge
	sessionsTotal  prometheus.Counter
	interruptsHit  prometheus.Counter
	treeOps        *prometheus.CounterVec
}

// NewCollector builds a fresh set of collectors. It registers nothing;
// Registry registers them in a registry of their own, so multiple servers
// in the same process (as in tests) never collide on prometheus's default
// registry.
func NewCollector() *Collector {
	c := &Collector{
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "treedb_active_sessions",
			Help: "Number of client sessions currently registered.",
		}),
		paused: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "treedb_paused",
			Help: "1 if the pause latch is engaged, 0 otherwise.",
		}),
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treedb_sessions_total",
			Help: "Total number of sessions ever admitted.",
		}),
		interruptsHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treedb_interrupts_total",
			Help: "Total number of terminate-request signals handled.",
		}),
		treeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "treedb_tree_ops_total",
			Help: "Tree operations by verb and outcome.",
		}, []string{"verb", "outcome"}),
	}
	return c
}

// Registry returns a *prometheus.Registry with this Collector's metrics
// registered, suitable for mounting behind promhttp.Handler.
func (c *Collector) Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c.activeSessions, c.paused, c.sessionsTotal, c.interruptsHit, c.treeOps)
	return reg
}

// SessionOpened records a newly admitted session.
func (c *Collector) SessionOpened() {
	c.activeSessions.Inc()
	c.sessionsTotal.Inc()
}

// SessionClosed records a session's cleanup.
func (c *Collector) SessionClosed() {
	c.activeSessions.Dec()
}

// SetPaused records the pause latch's current state.
func (c *Collector) SetPaused(paused bool) {
	if paused {
		c.paused.Set(1)
	} else {
		c.paused.Set(0)
	}
}

// Interrupted records one handled terminate-request signal.
func (c *Collector) Interrupted() {
	c.interruptsHit.Inc()
}

// TreeOp records the outcome of one dispatched command verb.
func (c *Collector) TreeOp(verb, outcome string) {
	c.treeOps.WithLabelValues(verb, outcome).Inc()
}

// Server is the operator-facing HTTP sidecar: /healthz and /metrics.
type Server struct {
	httpServer *http.Server
}

// NewServer builds (but does not start) the metrics sidecar, routed with
// chi and wrapped in a permissive CORS policy, mirroring the router
// construction in the teacher's pkg/api.StartServer.
func NewServer(addr string, collector *Collector) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))

	return &Server{httpServer: &http.Server{Addr: addr, Handler: r}}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
