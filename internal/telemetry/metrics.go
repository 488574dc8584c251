// Package telemetry adapts the teacher's Prometheus counters and
// health endpoint to ChainCodec's decode/batch/stream surface. Kept
// behind the stream.Hooks interface so internal/stream never imports
// a concrete metrics package (spec.md §1 scopes observability sinks
// out of the core decode/batch/stream contract, but the ambient
// counters themselves are carried regardless).
package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chaincodec/chaincodec/internal/stream"
)

// Metrics holds Prometheus counters/gauges for decode, batch, and
// stream activity.
type Metrics struct {
	eventsDecoded   *prometheus.CounterVec
	decodeErrors    *prometheus.CounterVec
	batchSkipped    prometheus.Counter
	streamLagged    *prometheus.CounterVec
	streamConnected *prometheus.GaugeVec
}

var (
	once    sync.Once
	metrics *Metrics
)

// Init initializes global metrics (idempotent).
func Init() *Metrics {
	once.Do(func() {
		metrics = &Metrics{
			eventsDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "chaincodec_events_decoded_total",
				Help: "Total number of events successfully decoded, by chain",
			}, []string{"chain"}),
			decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "chaincodec_decode_errors_total",
				Help: "Total number of decode failures, by chain",
			}, []string{"chain"}),
			batchSkipped: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "chaincodec_batch_skipped_total",
				Help: "Total number of batch inputs skipped for lack of a matching schema",
			}),
			streamLagged: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "chaincodec_stream_subscriber_lagged_total",
				Help: "Total number of messages dropped for slow stream subscribers, by chain",
			}, []string{"chain"}),
			streamConnected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "chaincodec_stream_connected",
				Help: "1 if the chain's stream source is in the Running state, else 0",
			}, []string{"chain"}),
		}
		prometheus.MustRegister(
			metrics.eventsDecoded,
			metrics.decodeErrors,
			metrics.batchSkipped,
			metrics.streamLagged,
			metrics.streamConnected,
		)
	})
	return metrics
}

// EventDecoded increments the per-chain decode counter.
func (m *Metrics) EventDecoded(chainSlug string) {
	if m != nil {
		m.eventsDecoded.WithLabelValues(chainSlug).Inc()
	}
}

// BatchSkipped increments the batch-skip counter.
func (m *Metrics) BatchSkipped() {
	if m != nil {
		m.batchSkipped.Inc()
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Hooks adapts Metrics to stream.Hooks, the interface internal/stream
// actually depends on.
type Hooks struct {
	m *Metrics
}

// NewHooks wraps m (typically the result of Init) as a stream.Hooks.
func NewHooks(m *Metrics) Hooks { return Hooks{m: m} }

func (h Hooks) OnStateChange(chainSlug string, state stream.ConnState) {
	if h.m == nil {
		return
	}
	v := 0.0
	if state == stream.StateRunning {
		v = 1.0
	}
	h.m.streamConnected.WithLabelValues(chainSlug).Set(v)
}

func (h Hooks) OnDecodeError(chainSlug string, err error) {
	if h.m == nil {
		return
	}
	h.m.decodeErrors.WithLabelValues(chainSlug).Inc()
}

func (h Hooks) OnLag(chainSlug string, n int) {
	if h.m == nil {
		return
	}
	h.m.streamLagged.WithLabelValues(chainSlug).Add(float64(n))
}
