package history

import (
	"sync"

	"netwatch/internal/models"
)

const (
	// DefaultObservationCap bounds the in-memory round history.
	DefaultObservationCap = 2048
	// DefaultTransitionCap bounds retained transition events.
	DefaultTransitionCap = 256
)

// Recorder keeps a capacity-bounded in-memory history of rounds and
// transitions and fans transitions out to subscribers. Nothing is
// persisted across restarts.
type Recorder struct {
	mu          sync.RWMutex
	maxObs      int
	maxTrans    int
	latest      *models.RoundObservation
	rounds      []models.RoundObservation
	transitions []models.Transition
	subscribers map[int]chan models.Transition
	nextSubID   int
}

// NewRecorder builds a recorder with the given capacities; values <= 0
// fall back to the defaults.
func NewRecorder(observationCap, transitionCap int) *Recorder {
	if observationCap <= 0 {
		observationCap = DefaultObservationCap
	}
	if transitionCap <= 0 {
		transitionCap = DefaultTransitionCap
	}
	return &Recorder{
		maxObs:      observationCap,
		maxTrans:    transitionCap,
		subscribers: make(map[int]chan models.Transition),
	}
}

// RecordRound appends a round observation, evicting the oldest entries
// beyond capacity.
func (r *Recorder) RecordRound(obs models.RoundObservation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.latest = &obs
	r.rounds = append(r.rounds, obs)
	if len(r.rounds) > r.maxObs {
		r.rounds = r.rounds[len(r.rounds)-r.maxObs:]
	}
}

// RecordTransition appends a transition and notifies subscribers.
// Slow subscribers are skipped rather than blocking the monitor loop.
func (r *Recorder) RecordTransition(event models.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transitions = append(r.transitions, event)
	if len(r.transitions) > r.maxTrans {
		r.transitions = r.transitions[len(r.transitions)-r.maxTrans:]
	}
	for _, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Latest returns the most recent round observation.
func (r *Recorder) Latest() (models.RoundObservation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.latest == nil {
		return models.RoundObservation{}, false
	}
	return *r.latest, true
}

// Rounds returns up to limit most recent observations, newest last.
// A limit <= 0 returns the full retained history.
func (r *Recorder) Rounds(limit int) []models.RoundObservation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rounds := r.rounds
	if limit > 0 && len(rounds) > limit {
		rounds = rounds[len(rounds)-limit:]
	}
	out := make([]models.RoundObservation, len(rounds))
	copy(out, rounds)
	return out
}

// Transitions returns a copy of the retained transition events.
func (r *Recorder) Transitions() []models.Transition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Transition, len(r.transitions))
	copy(out, r.transitions)
	return out
}

// Subscribe registers a buffered transition feed. The returned cancel
// function must be called to release the subscription.
func (r *Recorder) Subscribe() (<-chan models.Transition, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSubID
	r.nextSubID++
	ch := make(chan models.Transition, 16)
	r.subscribers[id] = ch

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			close(ch)
		}
	}
	return ch, cancel
}
