// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. A batch job has no scrape endpoint to expose, so the
// run's counters are pushed once at the end via metrics.Flush.
//
// All Prometheus-specific dependencies are contained here; the rest of the
// project depends only on metrics.Backend.
package prompush

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"songlake/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	pusher *push.Pusher
	reg    *prometheus.Registry

	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
}

// NewBackend constructs a Backend pushing to gatewayURL under jobName.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL required")
	}
	reg := prometheus.NewRegistry()
	return &Backend{
		pusher:   push.New(gatewayURL, jobName).Gatherer(reg),
		reg:      reg,
		counters: make(map[string]*prometheus.CounterVec),
	}, nil
}

// IncCounter implements metrics.Backend. Counter vectors are registered
// lazily on first use; the label set of the first call fixes the vector's
// label names.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	b.mu.Lock()
	cv, ok := b.counters[name]
	if !ok {
		names := make([]string, 0, len(labels))
		for k := range labels {
			names = append(names, k)
		}
		cv = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, names)
		if err := b.reg.Register(cv); err != nil {
			b.mu.Unlock()
			return
		}
		b.counters[name] = cv
	}
	b.mu.Unlock()

	cv.With(prometheus.Labels(labels)).Add(delta)
}

// Flush pushes the collected metrics to the Pushgateway.
func (b *Backend) Flush() error {
	if err := b.pusher.Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}
