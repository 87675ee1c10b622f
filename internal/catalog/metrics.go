package catalog

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeHTTPError = "http_error"
	OutcomeTransport = "transport_error"
	OutcomeDecode    = "decode_error"
	OutcomeTimeout   = "timeout"
	OutcomeCanceled  = "canceled"
)

// Metrics bundles Prometheus collectors for catalog traffic.
type Metrics struct {
	gatherer prometheus.Gatherer

	Requests      *prometheus.CounterVec
	Durations     *prometheus.HistogramVec
	StarsReturned *prometheus.CounterVec
}

// NewMetrics registers catalog metrics against reg, defaulting to the global
// registry when reg is nil. Registering twice returns the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Catalog API requests, labeled by endpoint and outcome.",
	}, []string{"endpoint", "outcome"}), "catalog_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Catalog API request latency in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 12},
	}, []string{"endpoint"}), "catalog_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	stars, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_stars_returned_total",
		Help: "Stars decoded from successful catalog responses.",
	}, []string{"endpoint"}), "catalog_stars_returned_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:      gatherer,
		Requests:      requests,
		Durations:     durations,
		StarsReturned: stars,
	}, nil
}

// observe records one finished request. Safe on a nil receiver.
func (m *Metrics) observe(endpoint, outcome string, took time.Duration, stars int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(endpoint, outcome).Inc()
	m.Durations.WithLabelValues(endpoint).Observe(took.Seconds())
	if outcome == OutcomeOK && endpoint != EndpointInfos {
		m.StarsReturned.WithLabelValues(endpoint).Add(float64(stars))
	}
}

// Handler exposes a /metrics handler for the registry the metrics live in.
func (m *Metrics) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if m != nil && m.gatherer != nil {
		gatherer = m.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
