package apdu

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const failedStatusLabel = "transport_error"

// Metrics contains Prometheus metrics for device exchanges.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Exchanges        *prometheus.CounterVec
	BytesSent        prometheus.Counter
	ExchangeDuration *prometheus.HistogramVec
}

// NewMetrics initializes and registers metrics with the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry initializes and registers metrics with a custom registry.
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		Exchanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kda_ledger_apdu_exchanges_total",
				Help: "The total number of APDU exchanges by instruction and status word",
			},
			[]string{"ins", "status"},
		),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "kda_ledger_apdu_bytes_sent_total",
			Help: "The total number of command bytes sent to the device",
		}),
		ExchangeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kda_ledger_apdu_exchange_duration_seconds",
				Help:    "Time spent waiting for the device to answer a single APDU",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
			},
			[]string{"ins"},
		),
	}
}

func (m *Metrics) recordExchange(cmd Command, sw StatusWord, sent int, elapsed time.Duration) {
	if m == nil {
		return
	}
	ins := insLabel(cmd.INS)
	m.Exchanges.WithLabelValues(ins, fmt.Sprintf("0x%04x", uint16(sw))).Inc()
	m.BytesSent.Add(float64(sent))
	m.ExchangeDuration.WithLabelValues(ins).Observe(elapsed.Seconds())
}

func (m *Metrics) recordFailure(cmd Command, sent int, elapsed time.Duration) {
	if m == nil {
		return
	}
	ins := insLabel(cmd.INS)
	m.Exchanges.WithLabelValues(ins, failedStatusLabel).Inc()
	m.BytesSent.Add(float64(sent))
	m.ExchangeDuration.WithLabelValues(ins).Observe(elapsed.Seconds())
}

func insLabel(ins byte) string {
	return fmt.Sprintf("0x%02x", ins)
}
