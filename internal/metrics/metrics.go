package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lanlight"

// NewRegistry creates a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// DeviceMetrics implements device.Observer.
type DeviceMetrics struct {
	Exchanges        *prometheus.CounterVec   // labels: command, outcome
	ExchangeDuration *prometheus.HistogramVec // labels: command
	Retries          prometheus.Counter
}

func NewDeviceMetrics(reg prometheus.Registerer) *DeviceMetrics {
	m := &DeviceMetrics{
		Exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_exchanges_total",
			Help:      "Request/response exchanges with the device by outcome.",
		}, []string{"command", "outcome"}),
		ExchangeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "device_exchange_duration_seconds",
			Help:      "Time spent on an exchange, retries included.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 15},
		}, []string{"command"}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_retries_total",
			Help:      "Attempts repeated after a connection reset.",
		}),
	}
	reg.MustRegister(m.Exchanges, m.ExchangeDuration, m.Retries)
	return m
}

func (m *DeviceMetrics) ObserveExchange(command string, outcome string, elapsed time.Duration) {
	m.Exchanges.WithLabelValues(command, outcome).Inc()
	m.ExchangeDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

func (m *DeviceMetrics) ObserveRetry() {
	m.Retries.Inc()
}

// DiscoveryMetrics implements discovery.Observer.
type DiscoveryMetrics struct {
	Announcements *prometheus.CounterVec // labels: port, result=ok|error
}

func NewDiscoveryMetrics(reg prometheus.Registerer) *DiscoveryMetrics {
	m := &DiscoveryMetrics{
		Announcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_packets_total",
			Help:      "UDP packets received while discovering, by decode result.",
		}, []string{"port", "result"}),
	}
	reg.MustRegister(m.Announcements)
	return m
}

func (m *DiscoveryMetrics) ObserveAnnouncement(port int, decoded bool) {
	result := "ok"
	if !decoded {
		result = "error"
	}
	m.Announcements.WithLabelValues(strconv.Itoa(port), result).Inc()
}

// AmbientMetrics tracks the ambient colour loop.
type AmbientMetrics struct {
	Updates       *prometheus.CounterVec // labels: result=sent|unchanged|error
	CurrentColour *prometheus.GaugeVec   // labels: component=h|s|v
}

func NewAmbientMetrics(reg prometheus.Registerer) *AmbientMetrics {
	m := &AmbientMetrics{
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ambient_updates_total",
			Help:      "Ambient loop ticks by result.",
		}, []string{"result"}),
		CurrentColour: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ambient_colour",
			Help:      "Last colour pushed to the light, as hue/saturation/value.",
		}, []string{"component"}),
	}
	reg.MustRegister(m.Updates, m.CurrentColour)
	return m
}

func (m *AmbientMetrics) ObserveUpdate(result string) {
	m.Updates.WithLabelValues(result).Inc()
}

func (m *AmbientMetrics) ObserveColour(h, s, v float64) {
	m.CurrentColour.WithLabelValues("h").Set(h)
	m.CurrentColour.WithLabelValues("s").Set(s)
	m.CurrentColour.WithLabelValues("v").Set(v)
}
