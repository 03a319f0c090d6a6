// Package metrics records sync and gateway activity.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK         = "ok"
	OutcomeRolledBack = "rolled_back"
	OutcomeError      = "error"
)

// Recorder receives events from stores, the orchestrator and the RPC layer.
type Recorder interface {
	// Mutation counts one create/update/delete attempt on a collection.
	Mutation(collection, op, outcome string)
	// Load counts one bulk load with the number of documents received.
	Load(collection string, docs int, err error)
	// RPC observes one RPC call.
	RPC(method, code string, elapsed time.Duration)
}

// Noop discards everything.
type Noop struct{}

func (Noop) Mutation(string, string, string)   {}
func (Noop) Load(string, int, error)           {}
func (Noop) RPC(string, string, time.Duration) {}

// Prometheus is a Recorder backed by its own registry.
type Prometheus struct {
	registry  *prometheus.Registry
	mutations *prometheus.CounterVec
	loads     *prometheus.CounterVec
	loadDocs  *prometheus.CounterVec
	rpc       *prometheus.HistogramVec
}

// NewPrometheus registers the tripkeeper collectors under namespace.
func NewPrometheus(namespace string) *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Optimistic mutations by collection, operation and outcome.",
		}, []string{"collection", "op", "outcome"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Bulk cache loads by collection and outcome.",
		}, []string{"collection", "outcome"}),
		loadDocs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loaded_documents_total",
			Help:      "Documents received by bulk loads.",
		}, []string{"collection"}),
		rpc: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by method and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "code"}),
	}
	p.registry.MustRegister(p.mutations, p.loads, p.loadDocs, p.rpc)
	return p
}

func (p *Prometheus) Mutation(collection, op, outcome string) {
	p.mutations.WithLabelValues(collection, op, outcome).Inc()
}

func (p *Prometheus) Load(collection string, docs int, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	p.loads.WithLabelValues(collection, outcome).Inc()
	p.loadDocs.WithLabelValues(collection).Add(float64(docs))
}

func (p *Prometheus) RPC(method, code string, elapsed time.Duration) {
	p.rpc.WithLabelValues(method, code).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry, mostly for tests.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Serve exposes Handler at /metrics on addr until ctx is done.
func (p *Prometheus) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return p.serve(ctx, lis)
}

func (p *Prometheus) serve(ctx context.Context, lis net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
