// Package metrics exposes the progress of optimizations to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ChristopherRabotin/trajopt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records the progress reports of optimizations, labeled by scenario.
type Collector struct {
	registry    *prometheus.Registry
	generation  *prometheus.GaugeVec
	bestFitness *prometheus.GaugeVec
	minDistance *prometheus.GaugeVec
	deltaV      *prometheus.GaugeVec
	feasible    *prometheus.GaugeVec
	simulations *prometheus.CounterVec
	genDuration *prometheus.HistogramVec

	mu   sync.Mutex
	last map[string]trajopt.Progress
}

// NewCollector returns a collector registered on its own registry.
func NewCollector() *Collector {
	m := &Collector{
		registry: prometheus.NewRegistry(),
		generation: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trajopt_generation",
				Help: "Current generation of the optimization",
			},
			[]string{"scenario"},
		),
		bestFitness: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trajopt_best_fitness",
				Help: "Best-ever fitness, lower is better",
			},
			[]string{"scenario"},
		),
		minDistance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trajopt_best_min_distance_au",
				Help: "Closest approach to the target of the best-ever trajectory",
			},
			[]string{"scenario"},
		),
		deltaV: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trajopt_best_delta_v_mps",
				Help: "Total Δv of the best-ever trajectory",
			},
			[]string{"scenario"},
		),
		feasible: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trajopt_feasible_trajectories",
				Help: "Feasible trajectories in the current generation",
			},
			[]string{"scenario"},
		),
		simulations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trajopt_simulations_total",
				Help: "Total number of trajectory simulations",
			},
			[]string{"scenario"},
		),
		genDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trajopt_generation_duration_seconds",
				Help:    "Time spent per generation",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
			},
			[]string{"scenario"},
		),
		last: make(map[string]trajopt.Progress),
	}
	m.registry.MustRegister(m.generation, m.bestFitness, m.minDistance, m.deltaV, m.feasible, m.simulations, m.genDuration)
	return m
}

// Observe records a progress report.
func (m *Collector) Observe(scenario string, p trajopt.Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, seen := m.last[scenario]
	m.last[scenario] = p
	m.generation.WithLabelValues(scenario).Set(float64(p.Generation))
	m.bestFitness.WithLabelValues(scenario).Set(p.BestFitness)
	m.minDistance.WithLabelValues(scenario).Set(p.MinDistance)
	m.deltaV.WithLabelValues(scenario).Set(p.DeltaV)
	m.feasible.WithLabelValues(scenario).Set(float64(p.Feasible))
	if evals := p.Evaluations - prev.Evaluations; evals > 0 {
		m.simulations.WithLabelValues(scenario).Add(float64(evals))
	}
	if seen && p.Generation > prev.Generation {
		perGen := (p.Elapsed - prev.Elapsed) / time.Duration(p.Generation-prev.Generation)
		m.genDuration.WithLabelValues(scenario).Observe(perGen.Seconds())
	}
}

// Handler returns the HTTP handler serving the metrics of this collector.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve serves the metrics on addr under /metrics until the context is done.
func (m *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
