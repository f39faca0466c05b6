package probe

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"netwatch/internal/models"
)

// Prober performs a single reachability check against one target.
// Implementations never return an error: timeouts and transport failures
// are expected steady-state signal and fold into the result.
type Prober interface {
	Probe(ctx context.Context, target models.Target) models.ProbeResult
}

// Pinger probes targets with a single ICMP echo per call.
type Pinger struct {
	timeout    time.Duration
	privileged bool
}

// NewPinger builds an ICMP prober with a fixed per-probe timeout.
// Privileged mode uses raw sockets (required in most containers);
// unprivileged mode uses UDP ICMP sockets.
func NewPinger(timeout time.Duration, privileged bool) *Pinger {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Pinger{timeout: timeout, privileged: privileged}
}

// Probe sends one echo request and waits up to the configured timeout.
func (p *Pinger) Probe(ctx context.Context, target models.Target) models.ProbeResult {
	result := models.ProbeResult{
		Target:    target,
		CheckedAt: time.Now().UTC(),
	}

	pinger, err := probing.NewPinger(target.Address)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	pinger.Count = 1
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(p.privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		result.Error = err.Error()
		return result
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv > 0 {
		result.OK = true
		result.Latency = stats.AvgRtt
	} else {
		result.Error = "timeout"
	}
	return result
}
