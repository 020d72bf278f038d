package workers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the relayer's prometheus registry.
type Metrics struct {
	registry       *prometheus.Registry
	processedTotal *prometheus.CounterVec
	reserveBalance *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chainbridge_requests_processed_total",
		Help: "Processed bridge requests by direction and result",
	}, []string{"direction", "result"})

	reserves := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chainbridge_reserve_balance",
		Help: "Last observed reserve balance in smallest units",
	}, []string{"chain", "token"})

	r := prometheus.NewRegistry()
	r.MustRegister(processed, reserves)

	return &Metrics{
		registry:       r,
		processedTotal: processed,
		reserveBalance: reserves,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncProcessed(direction, result string) {
	m.processedTotal.WithLabelValues(direction, result).Inc()
}

func (m *Metrics) SetReserveBalance(chain, token string, balance float64) {
	m.reserveBalance.WithLabelValues(chain, token).Set(balance)
}
