// Package metrics exposes the router's error-taxonomy counters via
// Prometheus, replacing what the original design left as a bespoke
// in-process counter set with the ecosystem-standard client library.
package metrics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry groups every counter this router exposes. A fresh Registry
// uses its own prometheus.Registry rather than the global default so
// tests can construct one per-case without collector registration
// panics.
type Registry struct {
	reg *prometheus.Registry

	DecodeRejects      *prometheus.CounterVec // labeled by DecodeErrorKind
	StaleLsas          prometheus.Counter
	DuplicateLsas      prometheus.Counter
	KernelRouteFailures prometheus.Counter
	NeighborTransitions *prometheus.CounterVec // labeled by from_state,to_state
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Registry{
		reg: reg,
		DecodeRejects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pospf_decode_rejects_total",
			Help: "Frames rejected by the wire codec, by rejection reason.",
		}, []string{"kind"}),
		StaleLsas: factory.NewCounter(prometheus.CounterOpts{
			Name: "pospf_stale_lsas_total",
			Help: "LSAs rejected by the LSDB as stale (seq < stored seq).",
		}),
		DuplicateLsas: factory.NewCounter(prometheus.CounterOpts{
			Name: "pospf_duplicate_lsas_total",
			Help: "LSAs rejected by the LSDB as duplicates (seq == stored seq).",
		}),
		KernelRouteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pospf_kernel_route_failures_total",
			Help: "Kernel route add/replace/delete operations that returned an error.",
		}),
		NeighborTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pospf_neighbor_transitions_total",
			Help: "Neighbor adjacency state transitions, by (from_state, to_state).",
		}, []string{"from_state", "to_state"}),
	}
}

// Serve starts the debug HTTP listener exposing /metrics until ctx is
// cancelled. It is optional: a router with no MetricsAddr configured
// never calls this.
func Serve(ctx context.Context, addr string, reg *Registry, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg.reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
