// Package metrics adaptador Prometheus del puerto de métricas.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/festival-pos/internal/application/ports"
)

var _ ports.Metrics = (*POSMetrics)(nil)

const namespace = "festival_pos"

// POSMetrics contadores de tokens, accesos denegados y cobros.
type POSMetrics struct {
	tokensIssued     *prometheus.CounterVec
	gateDenials      *prometheus.CounterVec
	checkouts        *prometheus.CounterVec
	checkoutDuration *prometheus.HistogramVec
	registerSessions prometheus.Gauge
}

// NewPOSMetrics crea y registra las métricas en reg.
func NewPOSMetrics(reg prometheus.Registerer) (*POSMetrics, error) {
	m := &POSMetrics{
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "issued_total",
			Help:      "Tokens de acceso emitidos por tipo",
		}, []string{"type"}),
		gateDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "denials_total",
			Help:      "Accesos por token rechazados por motivo",
		}, []string{"reason"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "total",
			Help:      "Cobros terminados por resultado",
		}, []string{"result"}),
		checkoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "duration_seconds",
			Help:      "Duración de los cobros",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		registerSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "register",
			Name:      "open_sessions",
			Help:      "Sesiones de caja abiertas",
		}),
	}
	for _, c := range []prometheus.Collector{m.tokensIssued, m.gateDenials, m.checkouts, m.checkoutDuration, m.registerSessions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *POSMetrics) TokenIssued(tokenType string) {
	m.tokensIssued.WithLabelValues(tokenType).Inc()
}

func (m *POSMetrics) GateDenied(reason string) {
	m.gateDenials.WithLabelValues(reason).Inc()
}

func (m *POSMetrics) CheckoutFinished(result string, elapsed time.Duration) {
	m.checkouts.WithLabelValues(result).Inc()
	m.checkoutDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (m *POSMetrics) RegisterSessions(open int) {
	m.registerSessions.Set(float64(open))
}
