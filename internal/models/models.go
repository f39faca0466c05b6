package models

import "time"

// Role distinguishes what a probe target is used for.
type Role string

const (
	// RoleGateway marks the LAN default-route device.
	RoleGateway Role = "gateway"
	// RolePublic marks an upstream host used to assess internet reachability.
	RolePublic Role = "public"
	// RoleWANHost marks the optional self-check host; diagnostic only, it
	// never drives classification.
	RoleWANHost Role = "wan"
)

// Target defines a probed address or hostname. Immutable after startup.
type Target struct {
	Address string `json:"address"`
	Role    Role   `json:"role"`
}

// ProbeResult captures the outcome of a single probe against one target.
type ProbeResult struct {
	Target    Target        `json:"target"`
	OK        bool          `json:"ok"`
	Latency   time.Duration `json:"latency_ns,omitempty"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// GatewayStatus is the tri-state reachability of the default gateway
// within one round.
type GatewayStatus string

const (
	GatewayUp      GatewayStatus = "up"
	GatewayDown    GatewayStatus = "down"
	GatewayUnknown GatewayStatus = "unknown" // no default route resolved
)

// RoundObservation aggregates the probe results of one sampling round.
type RoundObservation struct {
	Gateway       GatewayStatus `json:"gateway"`
	GatewayAddr   string        `json:"gateway_addr,omitempty"`
	PublicOK      int           `json:"public_ok"`
	PublicTotal   int           `json:"public_total"`
	WANHostOK     *bool         `json:"wan_host_ok,omitempty"`
	FailedTargets []string      `json:"failed_targets,omitempty"`
	Results       []ProbeResult `json:"results,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// GatewayReachable reports whether the gateway answered this round.
// An unresolved gateway counts as unreachable.
func (o RoundObservation) GatewayReachable() bool {
	return o.Gateway == GatewayUp
}
