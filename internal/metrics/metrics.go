// Package metrics exposes Prometheus counters for the autoextend loop,
// the only long-running tm command.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	regOK atomic.Bool

	extensions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tm",
		Subsystem: "autoextend",
		Name:      "extensions_total",
		Help:      "Number of schedule extensions applied.",
	})
	activations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tm",
		Subsystem: "autoextend",
		Name:      "activations_total",
		Help:      "Number of re-activations performed by the loop.",
	})
	lockFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tm",
		Subsystem: "autoextend",
		Name:      "lock_failures_total",
		Help:      "Number of iterations that could not take the registry lock.",
	})
)

// Register adds the collectors to the default registry. Safe to call
// more than once.
func Register() {
	if regOK.Swap(true) {
		return
	}
	prometheus.MustRegister(extensions, activations, lockFailures)
}

// IncExtensions counts one applied extension.
func IncExtensions() { extensions.Inc() }

// IncActivations counts one loop re-activation.
func IncActivations() { activations.Inc() }

// IncLockFailures counts one failed lock attempt.
func IncLockFailures() { lockFailures.Inc() }

// Serve exposes /metrics on addr in a background goroutine.
func Serve(addr string) {
	Register()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() { _ = http.ListenAndServe(addr, mux) }()
}
