package models

import "time"

// NetworkState is the debounced overall reachability classification.
type NetworkState string

const (
	// StateOK means the gateway answers and at least one public host answers.
	StateOK NetworkState = "OK"
	// StateLANDown means the gateway is unreachable (or was never resolved).
	StateLANDown NetworkState = "LAN_DOWN"
	// StateWANDown means the gateway answers but no public host does.
	StateWANDown NetworkState = "WAN_DOWN"
)

// Down reports whether the state describes an outage.
func (s NetworkState) Down() bool {
	return s == StateLANDown || s == StateWANDown
}

// Transition is the sole output of the state machine: a confirmed change
// of NetworkState, with the round that confirmed it.
type Transition struct {
	From      NetworkState     `json:"from"`
	To        NetworkState     `json:"to"`
	Reason    string           `json:"reason"`
	Round     RoundObservation `json:"round"`
	Timestamp time.Time        `json:"timestamp"`
}
