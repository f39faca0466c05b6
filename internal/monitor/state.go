package monitor

import (
	"fmt"
	"sync"

	"netwatch/internal/models"
)

// counters tracks consecutive rounds in one classification dimension.
// Whenever the signal direction reverses, the opposite counter resets.
type counters struct {
	fail int
	ok   int
}

func (c *counters) observe(bad bool) {
	if bad {
		c.fail++
		c.ok = 0
	} else {
		c.ok++
		c.fail = 0
	}
}

// StateMachine debounces raw round observations into a stable
// NetworkState. It is pure classification: it never fails and keeps no
// state beyond the current NetworkState and the hysteresis counters.
// Observe runs on the monitor loop only, but the current state is read
// by the HTTP handlers, so it is guarded by a mutex.
type StateMachine struct {
	failThreshold int
	okThreshold   int

	mu    sync.RWMutex
	state models.NetworkState
	lan   counters
	wan   counters
}

// NewStateMachine starts in StateOK. Thresholds below 1 are clamped to
// 1, which degenerates to immediate, non-debounced transitions.
func NewStateMachine(failThreshold, okThreshold int) *StateMachine {
	if failThreshold < 1 {
		failThreshold = 1
	}
	if okThreshold < 1 {
		okThreshold = 1
	}
	return &StateMachine{
		failThreshold: failThreshold,
		okThreshold:   okThreshold,
		state:         models.StateOK,
	}
}

// State returns the current debounced network state.
func (m *StateMachine) State() models.NetworkState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Observe consumes one round and returns a transition event when a
// counter crossed its threshold, nil otherwise. At most one transition
// is emitted per round; LAN_DOWN wins when both dimensions fire.
func (m *StateMachine) Observe(obs models.RoundObservation) *models.Transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	lanBad := !obs.GatewayReachable()
	// WAN cannot be assessed without a working gateway, and with zero
	// public targets the dimension is undefined and counts as good.
	wanBad := obs.GatewayReachable() && obs.PublicTotal > 0 && obs.PublicOK == 0

	m.lan.observe(lanBad)
	m.wan.observe(wanBad)

	switch {
	case m.state != models.StateLANDown && m.lan.fail >= m.failThreshold:
		return m.transition(models.StateLANDown, obs,
			fmt.Sprintf("gateway unreachable for %d consecutive rounds", m.lan.fail))
	case m.state == models.StateOK && m.wan.fail >= m.failThreshold:
		return m.transition(models.StateWANDown, obs,
			fmt.Sprintf("gateway up but 0/%d public targets reachable for %d consecutive rounds",
				obs.PublicTotal, m.wan.fail))
	case m.state == models.StateLANDown && m.lan.ok >= m.okThreshold:
		return m.transition(models.StateOK, obs,
			fmt.Sprintf("gateway reachable for %d consecutive rounds", m.lan.ok))
	case m.state == models.StateWANDown && m.wan.ok >= m.okThreshold:
		return m.transition(models.StateOK, obs,
			fmt.Sprintf("public targets reachable for %d consecutive rounds", m.wan.ok))
	}
	return nil
}

func (m *StateMachine) transition(to models.NetworkState, obs models.RoundObservation, reason string) *models.Transition {
	event := &models.Transition{
		From:      m.state,
		To:        to,
		Reason:    reason,
		Round:     obs,
		Timestamp: obs.Timestamp,
	}
	m.state = to
	return event
}
