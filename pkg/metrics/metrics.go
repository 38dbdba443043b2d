// Package metrics expone las métricas Prometheus del servicio con un registro propio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stock_ledger"

// Metrics agrupa los colectores del servicio.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	MovementsRecorded *prometheus.CounterVec
	MovementFailures  *prometheus.CounterVec
	IdempotentReplays prometheus.Counter
}

// New crea las métricas registradas en un registro nuevo (aislado por instancia, útil en tests).
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total de peticiones HTTP",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las peticiones HTTP en segundos",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route"}),
		MovementsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_recorded_total",
			Help:      "Movimientos confirmados en el libro, por tipo",
		}, []string{"type"}),
		MovementFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movement_failures_total",
			Help:      "Movimientos rechazados o fallidos, por motivo",
		}, []string{"reason"}),
		IdempotentReplays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotent_replays_total",
			Help:      "Peticiones repetidas con una clave de idempotencia ya usada",
		}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.MovementsRecorded,
		m.MovementFailures,
		m.IdempotentReplays,
	)
	return m
}

// Handler devuelve el handler HTTP de exposición.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry devuelve el registro subyacente.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest registra una petición HTTP terminada.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordMovement registra un movimiento confirmado.
func (m *Metrics) RecordMovement(movementType string) {
	m.MovementsRecorded.WithLabelValues(movementType).Inc()
}

// RecordMovementFailure registra un movimiento rechazado (validation, not_found, insufficient_stock, ...).
func (m *Metrics) RecordMovementFailure(reason string) {
	m.MovementFailures.WithLabelValues(reason).Inc()
}

// RecordReplay registra una respuesta servida desde una clave de idempotencia existente.
func (m *Metrics) RecordReplay() {
	m.IdempotentReplays.Inc()
}
