// Package metrics holds the Prometheus instruments of the session engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterSessionsStarted  *prometheus.CounterVec
	CounterSessionsRejected *prometheus.CounterVec
	CounterSessionsEnded    *prometheus.CounterVec
	CounterSessionsReaped   prometheus.Counter
	CounterFrames           *prometheus.CounterVec
	CounterReps             *prometheus.CounterVec
	CounterProcessingFaults prometheus.Counter

	// gauges
	GaugeActiveSessions prometheus.Gauge
	GaugeWSConnections  prometheus.Gauge

	// histograms
	HistFrameDuration   prometheus.Histogram
	HistSessionDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("formcoach", "test", prometheus.NewRegistry())
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterSessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_started_total",
			Help:      "Sessions started, by exercise",
		}, []string{"exercise"}),
		CounterSessionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_rejected_total",
			Help:      "Session starts that were rejected, by reason",
		}, []string{"reason"}),
		CounterSessionsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_ended_total",
			Help:      "Sessions removed from the registry, by cause",
		}, []string{"cause"}),
		CounterSessionsReaped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_reaped_total",
			Help:      "Idle sessions removed by the reaper",
		}),
		CounterFrames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_total",
			Help:      "Pose frames processed, by exercise",
		}, []string{"exercise"}),
		CounterReps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reps_total",
			Help:      "Repetitions counted, by exercise",
		}, []string{"exercise"}),
		CounterProcessingFaults: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "processing_faults_total",
			Help:      "Recovered panics while processing a frame",
		}),
		GaugeActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_sessions",
			Help:      "Sessions currently in the registry",
		}),
		GaugeWSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ws_connections",
			Help:      "Open websocket connections",
		}),
		HistFrameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frame_duration_seconds",
			Help:      "Time spent processing a single pose frame",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
		HistSessionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "session_duration_seconds",
			Help:      "Duration of finalized sessions",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		}, []string{"exercise"}),
	}
}
