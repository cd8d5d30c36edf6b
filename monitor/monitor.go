// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tankTopTaro/greyzone-game-room-app/logger"
)

type Metrics struct {
	ConnectedClients *prometheus.GaugeVec
	MessagesReceived prometheus.Counter
	SessionsStarted  prometheus.Counter
	SessionsQueued   prometheus.Counter
	LevelsCompleted  prometheus.Counter
	LevelsFailed     prometheus.Counter
	Flushes          prometheus.Counter
	FramesDelayed    prometheus.Counter
	FramesLost       prometheus.Counter
	HardwareErrors   prometheus.Counter
	TickLatency      prometheus.Histogram
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}
	m := &Metrics{
		ConnectedClients: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Registered hub clients per channel",
		}, []string{"channel"}),
		MessagesReceived: counter("messages_received_total", "Total number of hub messages received"),
		SessionsStarted:  counter("sessions_started_total", "Game sessions that finished preparation"),
		SessionsQueued:   counter("sessions_queued_total", "Start requests queued behind a running session"),
		LevelsCompleted:  counter("levels_completed_total", "Levels completed"),
		LevelsFailed:     counter("levels_failed_total", "Levels failed"),
		Flushes:          counter("light_flushes_total", "Light dispatch passes"),
		FramesDelayed:    counter("light_frames_delayed_total", "Flush requests coalesced into a repeat pass"),
		FramesLost:       counter("light_frames_lost_total", "Flush requests absorbed by an already pending pass"),
		HardwareErrors:   counter("light_hardware_errors_total", "Failed hardware writes"),
		TickLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_latency_seconds",
			Help:      "Animation tick processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10),
		}),
	}

	reg.MustRegister(
		m.ConnectedClients,
		m.MessagesReceived,
		m.SessionsStarted,
		m.SessionsQueued,
		m.LevelsCompleted,
		m.LevelsFailed,
		m.Flushes,
		m.FramesDelayed,
		m.FramesLost,
		m.HardwareErrors,
		m.TickLatency,
	)

	return m
}

// Monitor wraps the metrics. A nil *Monitor is valid and records nothing.
type Monitor struct {
	metrics      *Metrics
	gatherer     prometheus.Gatherer
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

// NewMonitor registers the metrics with the default registry.
func NewMonitor(namespace string) *Monitor {
	return NewMonitorWithRegistry(namespace, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func NewMonitorWithRegistry(namespace string, reg prometheus.Registerer, gatherer prometheus.Gatherer) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace, reg),
		gatherer:  gatherer,
		startTime: time.Now(),
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Monitor) StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/debug/vars", expvar.Handler())

	// 添加expvar指标
	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("requests", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.requestCount
	}))

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Log.Errorf("metrics server stopped: %v", err)
		}
	}()
}

func (m *Monitor) SetConnectedClients(channel string, count int) {
	if m == nil {
		return
	}
	m.metrics.ConnectedClients.WithLabelValues(channel).Set(float64(count))
}

func (m *Monitor) IncMessagesReceived() {
	if m == nil {
		return
	}
	m.metrics.MessagesReceived.Inc()
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) IncSessionsStarted() {
	if m != nil {
		m.metrics.SessionsStarted.Inc()
	}
}

func (m *Monitor) IncSessionsQueued() {
	if m != nil {
		m.metrics.SessionsQueued.Inc()
	}
}

func (m *Monitor) IncLevelsCompleted() {
	if m != nil {
		m.metrics.LevelsCompleted.Inc()
	}
}

func (m *Monitor) IncLevelsFailed() {
	if m != nil {
		m.metrics.LevelsFailed.Inc()
	}
}

func (m *Monitor) IncFlushes() {
	if m != nil {
		m.metrics.Flushes.Inc()
	}
}

func (m *Monitor) IncFramesDelayed() {
	if m != nil {
		m.metrics.FramesDelayed.Inc()
	}
}

func (m *Monitor) IncFramesLost() {
	if m != nil {
		m.metrics.FramesLost.Inc()
	}
}

func (m *Monitor) IncHardwareErrors() {
	if m != nil {
		m.metrics.HardwareErrors.Inc()
	}
}

func (m *Monitor) ObserveTickLatency(duration time.Duration) {
	if m == nil {
		return
	}
	m.metrics.TickLatency.Observe(duration.Seconds())
}
