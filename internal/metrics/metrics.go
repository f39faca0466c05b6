package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"netwatch/internal/models"
)

// Collector bundles the Prometheus metrics of the monitoring loop.
type Collector struct {
	Rounds       prometheus.Counter
	Probes       *prometheus.CounterVec
	ProbeLatency *prometheus.HistogramVec
	State        *prometheus.GaugeVec
	Transitions  *prometheus.CounterVec
}

// NewCollector registers the monitor metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		Rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netwatch_rounds_total",
			Help: "Total number of completed probe rounds.",
		}),
		Probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netwatch_probes_total",
			Help: "Total probes issued, labeled by target, role, and result.",
		}, []string{"target", "role", "result"}),
		ProbeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "netwatch_probe_latency_seconds",
			Help:    "Latency of successful probes in seconds.",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"role"}),
		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netwatch_network_state",
			Help: "Current network state, one-hot by state label.",
		}, []string{"state"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netwatch_state_transitions_total",
			Help: "Total confirmed state transitions, labeled by from and to.",
		}, []string{"from", "to"}),
	}

	for _, metric := range []prometheus.Collector{
		c.Rounds, c.Probes, c.ProbeLatency, c.State, c.Transitions,
	} {
		if err := reg.Register(metric); err != nil {
			return nil, err
		}
	}

	c.SetState(models.StateOK)
	return c, nil
}

var allStates = []models.NetworkState{models.StateOK, models.StateLANDown, models.StateWANDown}

// SetState updates the one-hot state gauge.
func (c *Collector) SetState(current models.NetworkState) {
	for _, s := range allStates {
		value := 0.0
		if s == current {
			value = 1.0
		}
		c.State.WithLabelValues(string(s)).Set(value)
	}
}

// ObserveRound records the metrics of one completed round.
func (c *Collector) ObserveRound(obs models.RoundObservation) {
	c.Rounds.Inc()
	for _, r := range obs.Results {
		result := "fail"
		if r.OK {
			result = "ok"
			c.ProbeLatency.WithLabelValues(string(r.Target.Role)).
				Observe(float64(r.Latency) / float64(time.Second))
		}
		c.Probes.WithLabelValues(r.Target.Address, string(r.Target.Role), result).Inc()
	}
}

// ObserveTransition records a confirmed state transition.
func (c *Collector) ObserveTransition(event models.Transition) {
	c.Transitions.WithLabelValues(string(event.From), string(event.To)).Inc()
	c.SetState(event.To)
}
