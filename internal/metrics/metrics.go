// Package metrics exports decoder activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one process. It implements
// stream.Observer, so a Runner can feed it directly.
type Metrics struct {
	registry *prometheus.Registry

	// Runner throughput (with 'block' label)
	itemsConsumed   *prometheus.CounterVec // items consumed by Work
	itemsProduced   *prometheus.CounterVec // items produced by Work
	overflowDropped *prometheus.CounterVec // items dropped on a full window

	// Decoder results
	frames       *prometheus.CounterVec // decoded frames by protocol and result
	syncMiss     *prometheus.CounterVec // samples dropped without a sync match
	dstarState   prometheus.Gauge       // 0 idle, 1 voice
	dtmfTones    *prometheus.CounterVec // DTMF key presses by tone
	varicodeText prometheus.Counter     // characters decoded
}

// New creates and registers all collectors on a fresh registry, together
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		itemsConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digimodes_items_consumed_total",
				Help: "Input items consumed by each block",
			},
			[]string{"block"},
		),
		itemsProduced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digimodes_items_produced_total",
				Help: "Output items produced by each block",
			},
			[]string{"block"},
		),
		overflowDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digimodes_overflow_dropped_total",
				Help: "Input items dropped because a block made no progress on a full window",
			},
			[]string{"block"},
		),
		frames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digimodes_frames_total",
				Help: "Decoded frames by protocol and result",
			},
			[]string{"protocol", "result"},
		),
		syncMiss: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digimodes_sync_miss_total",
				Help: "Bit samples discarded while searching for sync",
			},
			[]string{"protocol"},
		),
		dstarState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "digimodes_dstar_state",
				Help: "D-STAR decoder state (0=idle, 1=voice)",
			},
		),
		dtmfTones: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digimodes_dtmf_tones_total",
				Help: "DTMF key presses seen in D-STAR voice frames",
			},
			[]string{"tone"},
		),
		varicodeText: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "digimodes_varicode_characters_total",
				Help: "Characters decoded from Varicode",
			},
		),
	}
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveWork records the counts of one Work call.
func (m *Metrics) ObserveWork(block string, consumed, produced int) {
	if consumed > 0 {
		m.itemsConsumed.WithLabelValues(block).Add(float64(consumed))
	}
	if produced > 0 {
		m.itemsProduced.WithLabelValues(block).Add(float64(produced))
	}
}

// ObserveOverflow records items a Runner dropped from a full window.
func (m *Metrics) ObserveOverflow(block string, dropped int) {
	m.overflowDropped.WithLabelValues(block).Add(float64(dropped))
}

// Frame counts one decoded frame. result is "ok" or an error class.
func (m *Metrics) Frame(protocol, result string) {
	m.frames.WithLabelValues(protocol, result).Inc()
}

// SyncMiss counts samples dropped without finding sync.
func (m *Metrics) SyncMiss(protocol string, dropped int) {
	m.syncMiss.WithLabelValues(protocol).Add(float64(dropped))
}

// DStarVoice sets the D-STAR state gauge.
func (m *Metrics) DStarVoice(active bool) {
	if active {
		m.dstarState.Set(1)
	} else {
		m.dstarState.Set(0)
	}
}

// DTMFTone counts a DTMF key press.
func (m *Metrics) DTMFTone(tone byte) {
	m.dtmfTones.WithLabelValues(string(tone)).Inc()
}

// VaricodeCharacters counts decoded Varicode characters.
func (m *Metrics) VaricodeCharacters(n int) {
	m.varicodeText.Add(float64(n))
}
