package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	EventsDispatched  prometheus.Counter
	EventsDropped     prometheus.Counter
	WSConnections     prometheus.Gauge
	WithdrawSessions  prometheus.Counter
	WithdrawCallbacks *prometheus.CounterVec
	Redemptions       *prometheus.CounterVec
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_events_dispatched_total",
			Help: "Total number of event payloads accepted by listener queues.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_events_dropped_total",
			Help: "Total number of event payloads dropped because a listener queue was full.",
		}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wallet_ws_connections",
			Help: "Currently open wallet websocket connections.",
		}),
		WithdrawSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lnurl_withdraw_sessions_total",
			Help: "Total number of successfully built withdraw sessions.",
		}),
		WithdrawCallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lnurl_withdraw_callbacks_total",
			Help: "Total number of withdraw callbacks by outcome.",
		}, []string{"status"}),
		Redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lnurl_redemptions_total",
			Help: "Total number of background redemption attempts by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.EventsDispatched,
		m.EventsDropped,
		m.WSConnections,
		m.WithdrawSessions,
		m.WithdrawCallbacks,
		m.Redemptions,
	)

	return m
}

// RegistryHooks returns the callbacks expected by events.Registry.SetHooks.
func (m *Metrics) RegistryHooks() (onDispatched, onDropped func()) {
	return m.EventsDispatched.Inc, m.EventsDropped.Inc
}

// WSHooks returns the connection gauge callbacks for the ws adapter.
func (m *Metrics) WSHooks() (onOpen, onClose func()) {
	return m.WSConnections.Inc, m.WSConnections.Dec
}

// WithdrawHooks returns the callbacks expected by the withdraw service.
func (m *Metrics) WithdrawHooks() (onSession func(), onCallback func(ok bool)) {
	onSession = m.WithdrawSessions.Inc
	onCallback = func(ok bool) {
		status := "ok"
		if !ok {
			status = "error"
		}
		m.WithdrawCallbacks.WithLabelValues(status).Inc()
	}
	return
}

// RedeemHook returns the callback expected by the redemption scheduler.
func (m *Metrics) RedeemHook() func(ok bool) {
	return func(ok bool) {
		outcome := "success"
		if !ok {
			outcome = "failure"
		}
		m.Redemptions.WithLabelValues(outcome).Inc()
	}
}
