package kda

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/obsidiansystems/hw-app-kda/pkg/apdu"
	"github.com/obsidiansystems/hw-app-kda/pkg/bip32"
)

// Sign request outcomes used as the "outcome" label.
const (
	OutcomeSuccess       = "success"
	OutcomeInvalidInput  = "invalid_input"
	OutcomeUserRefused   = "user_refused"
	OutcomeDeviceError   = "device_error"
	OutcomeTransportFail = "transport_error"
	OutcomeCancelled     = "cancelled"
)

// Metrics contains Prometheus metrics for sign requests.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SignRequests *prometheus.CounterVec
	SignDuration prometheus.Histogram
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
		SignRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kda_ledger_sign_requests_total",
				Help: "The total number of sign hash requests by outcome",
			},
			[]string{"outcome"},
		),
		SignDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kda_ledger_sign_duration_seconds",
			Help:    "Time from request to signature, including user confirmation on the device",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
	}
}

func (m *Metrics) record(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := Outcome(err)
	m.SignRequests.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		m.SignDuration.Observe(elapsed.Seconds())
	}
}

// Outcome classifies the result of SignHash.
func Outcome(err error) string {
	var (
		inputErr  *InvalidInputError
		formatErr *bip32.PathFormatError
		encodeErr *bip32.PayloadEncodingError
		statusErr *apdu.StatusError
	)

	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &inputErr), errors.As(err, &formatErr), errors.As(err, &encodeErr), errors.Is(err, bip32.ErrEmptyPath):
		return OutcomeInvalidInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	case apdu.IsStatus(err, apdu.StatusUserRefused), apdu.IsStatus(err, apdu.StatusConditionsNotSatisfied):
		return OutcomeUserRefused
	case errors.As(err, &statusErr):
		return OutcomeDeviceError
	default:
		return OutcomeTransportFail
	}
}
