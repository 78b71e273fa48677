// Package metrics exposes the gateway's prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the gateway updates. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ticks         prometheus.Counter
	accepted      prometheus.Counter
	discarded     prometheus.Counter
	fetchErrors   prometheus.Counter
	sinkErrors    *prometheus.CounterVec
	windowLength  prometheus.Gauge
	running       prometheus.Gauge
	fetchLatency  prometheus.Histogram
	relayRequests *prometheus.CounterVec
	wsClients     prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "intelliinspect_simulation_ticks_total",
			Help: "Scheduler ticks that triggered a sample fetch.",
		}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "intelliinspect_samples_accepted_total",
			Help: "Samples committed to the live window.",
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "intelliinspect_samples_discarded_total",
			Help: "Samples dropped because their session ended before they arrived.",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "intelliinspect_fetch_errors_total",
			Help: "Failed sample fetches from the ML service.",
		}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intelliinspect_sink_errors_total",
			Help: "Failed writes of accepted samples to a secondary sink.",
		}, []string{"sink"}),
		windowLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "intelliinspect_window_length",
			Help: "Current number of samples in the live window.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "intelliinspect_simulation_running",
			Help: "1 while a simulation session is running.",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "intelliinspect_fetch_latency_seconds",
			Help:    "Latency of next-sample calls to the ML service.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		relayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intelliinspect_relay_requests_total",
			Help: "Workflow calls relayed to the ML service by route and status.",
		}, []string{"route", "code"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "intelliinspect_ws_clients",
			Help: "Connected websocket clients.",
		}),
	}

	reg.MustRegister(
		m.ticks, m.accepted, m.discarded, m.fetchErrors, m.sinkErrors,
		m.windowLength, m.running, m.fetchLatency, m.relayRequests, m.wsClients,
	)
	return m
}

func (m *Metrics) Tick() {
	if m != nil {
		m.ticks.Inc()
	}
}

// SampleAccepted counts a committed sample and records the resulting window length.
func (m *Metrics) SampleAccepted(windowLen int) {
	if m == nil {
		return
	}
	m.accepted.Inc()
	m.windowLength.Set(float64(windowLen))
}

func (m *Metrics) SampleDiscarded() {
	if m != nil {
		m.discarded.Inc()
	}
}

func (m *Metrics) FetchError() {
	if m != nil {
		m.fetchErrors.Inc()
	}
}

func (m *Metrics) SinkError(sink string) {
	if m != nil {
		m.sinkErrors.WithLabelValues(sink).Inc()
	}
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m != nil {
		m.fetchLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) SetWindowLength(n int) {
	if m != nil {
		m.windowLength.Set(float64(n))
	}
}

func (m *Metrics) SetRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.running.Set(1)
		return
	}
	m.running.Set(0)
}

// Relayed counts one relayed workflow call. code 0 means the ML service was
// unreachable.
func (m *Metrics) Relayed(route string, code int) {
	if m != nil {
		m.relayRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	}
}

func (m *Metrics) WSConnected() {
	if m != nil {
		m.wsClients.Inc()
	}
}

func (m *Metrics) WSDisconnected() {
	if m != nil {
		m.wsClients.Dec()
	}
}
