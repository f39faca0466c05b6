package monitor

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"netwatch/internal/history"
	"netwatch/internal/metrics"
	"netwatch/internal/models"
	"netwatch/internal/notify"
)

// Monitor drives the sampling loop: one round per tick, fed through the
// state machine, with any resulting transition handed to the notifier.
// Everything within a tick runs sequentially, so the state machine and
// the notifier need no locking.
type Monitor struct {
	interval time.Duration
	sampler  *Sampler
	machine  *StateMachine
	notifier *notify.Notifier
	recorder *history.Recorder
	metrics  *metrics.Collector
	clock    clock.Clock
	log      *zap.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// New assembles the monitoring loop. recorder and collector may be nil
// when history or metrics are not wanted (tests mostly).
func New(interval time.Duration, sampler *Sampler, machine *StateMachine, notifier *notify.Notifier,
	recorder *history.Recorder, collector *metrics.Collector, clk clock.Clock, log *zap.Logger) *Monitor {
	if interval < time.Second {
		interval = time.Second
	}
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{
		interval: interval,
		sampler:  sampler,
		machine:  machine,
		notifier: notifier,
		recorder: recorder,
		metrics:  collector,
		clock:    clk,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// State returns the current debounced network state.
func (m *Monitor) State() models.NetworkState {
	return m.machine.State()
}

// Start launches the monitoring loop in a goroutine.
func (m *Monitor) Start() {
	go m.run()
}

// Stop requests graceful loop termination and waits until the in-flight
// round, if any, has completed.
func (m *Monitor) Stop() {
	select {
	case <-m.doneCh:
		return
	default:
	}
	close(m.stopCh)
	<-m.doneCh
}

// RunOnce executes a single round: sample, record, classify, notify.
func (m *Monitor) RunOnce(ctx context.Context) models.RoundObservation {
	obs := m.sampler.Sample(ctx)

	if m.recorder != nil {
		m.recorder.RecordRound(obs)
	}
	if m.metrics != nil {
		m.metrics.ObserveRound(obs)
	}

	event := m.machine.Observe(obs)
	if event == nil {
		return obs
	}

	m.log.Warn("network state transition",
		zap.String("from", string(event.From)),
		zap.String("to", string(event.To)),
		zap.String("reason", event.Reason),
		zap.String("gateway", event.Round.GatewayAddr),
		zap.Int("public_ok", event.Round.PublicOK),
		zap.Int("public_total", event.Round.PublicTotal))

	if m.recorder != nil {
		m.recorder.RecordTransition(*event)
	}
	if m.metrics != nil {
		m.metrics.ObserveTransition(*event)
	}
	if m.notifier != nil {
		m.notifier.Announce(ctx, *event)
	}
	return obs
}

func (m *Monitor) run() {
	defer close(m.doneCh)

	ctx := context.Background()
	m.RunOnce(ctx)

	ticker := m.clock.Ticker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.RunOnce(ctx)
		case <-m.stopCh:
			return
		}
	}
}
