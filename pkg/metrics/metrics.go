// Package metrics records Prometheus metrics for packet decoding, the inspect
// service, live taps and capture storage.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/diepwire/pkg/packet"
	"github.com/vango-dev/diepwire/pkg/protocol"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "diepwire").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for decode duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the decode duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "diepwire",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	packetsDecoded *prometheus.CounterVec
	decodeErrors   *prometheus.CounterVec
	packetBytes    *prometheus.HistogramVec
	decodeDuration *prometheus.HistogramVec
	activeTaps     prometheus.Gauge
	capturesStored *prometheus.CounterVec
}

// New registers the collectors with the configured registry.
//
// Metrics collected:
//   - diepwire_packets_decoded_total: packets decoded by direction and kind
//   - diepwire_decode_errors_total: failed decodes by direction and error class
//   - diepwire_packet_bytes: packet sizes by direction
//   - diepwire_decode_duration_seconds: decode latency by direction
//   - diepwire_active_taps: open websocket taps
//   - diepwire_captures_stored_total: captures written by backend
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		packetsDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "packets_decoded_total",
			Help:        "Total number of packets decoded",
			ConstLabels: config.ConstLabels,
		}, []string{"direction", "kind"}),

		decodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "decode_errors_total",
			Help:        "Total number of packets that failed to decode",
			ConstLabels: config.ConstLabels,
		}, []string{"direction", "class"}),

		packetBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "packet_bytes",
			Help:        "Size of decoded packets in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 10), // 1B to 256KB
		}, []string{"direction"}),

		decodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "decode_duration_seconds",
			Help:        "Packet decode duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"direction"}),

		activeTaps: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_taps",
			Help:        "Number of open websocket taps",
			ConstLabels: config.ConstLabels,
		}),

		capturesStored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "captures_stored_total",
			Help:        "Total number of captures written",
			ConstLabels: config.ConstLabels,
		}, []string{"backend"}),
	}
}

// ObserveDecode records the outcome of decoding size bytes. p is ignored
// when err is non-nil.
func (m *Metrics) ObserveDecode(dir packet.Direction, p *packet.Packet, size int, took time.Duration, err error) {
	if m == nil {
		return
	}
	d := dir.String()
	m.decodeDuration.WithLabelValues(d).Observe(took.Seconds())
	m.packetBytes.WithLabelValues(d).Observe(float64(size))
	if err != nil {
		m.decodeErrors.WithLabelValues(d, ErrorClass(err)).Inc()
		return
	}
	m.packetsDecoded.WithLabelValues(d, string(p.Kind)).Inc()
}

// TapOpened records a websocket tap connecting.
func (m *Metrics) TapOpened() {
	if m != nil {
		m.activeTaps.Inc()
	}
}

// TapClosed records a websocket tap disconnecting.
func (m *Metrics) TapClosed() {
	if m != nil {
		m.activeTaps.Dec()
	}
}

// CaptureStored records a capture written to backend.
func (m *Metrics) CaptureStored(backend string) {
	if m != nil {
		m.capturesStored.WithLabelValues(backend).Inc()
	}
}

// ErrorClass maps a decode error to a low-cardinality label.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, protocol.ErrUnterminatedString):
		return "unterminated_string"
	case errors.Is(err, protocol.ErrOutOfBounds):
		return "truncated"
	case errors.Is(err, protocol.ErrVarintOverflow):
		return "varint_overflow"
	case errors.Is(err, protocol.ErrUnknownIndex):
		return "unknown_index"
	case errors.Is(err, protocol.ErrUnknownName):
		return "unknown_name"
	case errors.Is(err, protocol.ErrCollectionTooLarge), errors.Is(err, protocol.ErrAllocationTooLarge):
		return "limit"
	case errors.Is(err, packet.ErrDecompress):
		return "decompress"
	case errors.Is(err, packet.ErrUnsupportedTag):
		return "unsupported_tag"
	default:
		return "internal"
	}
}
