package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mtxStrategies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mt5_connect_strategy_total",
			Help: "Connection strategies attempted, by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	mtxProbes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mt5_readiness_probe_total",
			Help: "Readiness probes issued, by probe and outcome",
		},
		[]string{"probe", "outcome"},
	)

	mtxHandshakes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mt5_handshake_total",
			Help: "Handshake cascade candidates attempted, by step and outcome",
		},
		[]string{"step", "outcome"},
	)

	mtxLogins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mt5_login_fallback_total",
			Help: "Login fallback attempts, by outcome",
		},
		[]string{"outcome"},
	)

	mtxSessionState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mt5_session_state",
			Help: "Session state (0 disconnected .. 4 ready, 5 failed)",
		},
	)

	// mt5_session_mode exposes one labeled series per mode flipped between
	// 0/1 to keep dashboards simple.
	mtxSessionMode = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mt5_session_mode",
			Help: "Deployment mode of the current session",
		},
		[]string{"mode"},
	)

	mtxTimeToReady = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mt5_time_to_ready_seconds",
			Help:    "Time from connect start to readiness verdict",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(
		mtxStrategies,
		mtxProbes,
		mtxHandshakes,
		mtxLogins,
		mtxSessionState,
		mtxSessionMode,
		mtxTimeToReady,
	)
}

// ObserveStrategy records one connection strategy attempt.
func ObserveStrategy(strategy, outcome string) {
	mtxStrategies.WithLabelValues(strategy, outcome).Inc()
}

// ObserveProbe records one readiness probe attempt.
func ObserveProbe(probe, outcome string) {
	mtxProbes.WithLabelValues(probe, outcome).Inc()
}

// ObserveHandshake records one handshake cascade candidate.
func ObserveHandshake(step, outcome string) {
	mtxHandshakes.WithLabelValues(step, outcome).Inc()
}

// ObserveLogin records one login fallback attempt.
func ObserveLogin(outcome string) {
	mtxLogins.WithLabelValues(outcome).Inc()
}

// SetSessionState publishes the numeric session state.
func SetSessionState(state int) {
	mtxSessionState.Set(float64(state))
}

// SetSessionMode publishes the session mode.
func SetSessionMode(mode string) {
	for _, m := range []string{"full", "lite"} {
		v := 0.0
		if m == mode {
			v = 1.0
		}
		mtxSessionMode.WithLabelValues(m).Set(v)
	}
}

// ObserveTimeToReady records the duration of a successful connect.
func ObserveTimeToReady(d time.Duration) {
	mtxTimeToReady.Observe(d.Seconds())
}
