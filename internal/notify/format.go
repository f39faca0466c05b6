package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"netwatch/internal/models"
)

func (n *Notifier) compose(event models.Transition) (subject, body string) {
	if event.To == models.StateOK {
		return n.composeRecovery(event)
	}
	return n.composeOutage(event)
}

func (n *Notifier) composeOutage(event models.Transition) (string, string) {
	subject := fmt.Sprintf("[netwatch] Outage detected: %s", event.To)

	var b strings.Builder
	fmt.Fprintf(&b, "Network outage detected (ICMP)\n\n")
	fmt.Fprintf(&b, "Kind: %s\n", event.To)
	fmt.Fprintf(&b, "Started: %s\n", n.stamp(event.Timestamp))
	fmt.Fprintf(&b, "Reason: %s\n", event.Reason)
	fmt.Fprintf(&b, "Diagnostics: %s\n", diagLine(event.Round))
	if len(event.Round.FailedTargets) > 0 {
		fmt.Fprintf(&b, "Unreachable targets: %s\n", strings.Join(event.Round.FailedTargets, ", "))
	}
	b.WriteString("\n")
	n.writeFooter(&b, event.Round)
	return subject, b.String()
}

func (n *Notifier) composeRecovery(event models.Transition) (string, string) {
	var duration time.Duration
	if !n.outageStart.IsZero() {
		duration = event.Timestamp.Sub(n.outageStart)
	}
	subject := fmt.Sprintf("[netwatch] Outage resolved (%s)", fmtDuration(duration))

	var b strings.Builder
	fmt.Fprintf(&b, "Network outage resolved (ICMP)\n\n")
	if n.outageKind != "" {
		fmt.Fprintf(&b, "Kind: %s\n", n.outageKind)
	}
	if !n.outageStart.IsZero() {
		fmt.Fprintf(&b, "Started: %s\n", n.stamp(n.outageStart))
	}
	fmt.Fprintf(&b, "Resolved: %s\n", n.stamp(event.Timestamp))
	fmt.Fprintf(&b, "Duration: %s\n", fmtDuration(duration))
	fmt.Fprintf(&b, "Final diagnostics: %s\n", diagLine(event.Round))
	b.WriteString("\n")
	n.writeFooter(&b, event.Round)
	return subject, b.String()
}

func (n *Notifier) writeFooter(b *strings.Builder, round models.RoundObservation) {
	gateway := round.GatewayAddr
	if gateway == "" {
		gateway = "unknown"
	}
	fmt.Fprintf(b, "Gateway (router): %s\n", gateway)
	fmt.Fprintf(b, "Public targets: %s\n", strings.Join(n.opts.Context.PublicTargets, ", "))
	if n.opts.Context.WANHost != "" {
		fmt.Fprintf(b, "WAN host: %s\n", n.opts.Context.WANHost)
	}
	fmt.Fprintf(b, "Thresholds: FAIL>=%d, OK>=%d, interval=%s\n",
		n.opts.Context.FailThreshold, n.opts.Context.OKThreshold, n.opts.Context.Interval)
	if info := hostLine(); info != "" {
		fmt.Fprintf(b, "Monitor host: %s\n", info)
	}
}

func (n *Notifier) stamp(t time.Time) string {
	return t.In(n.opts.Location).Format("2006-01-02 15:04:05 MST")
}

// diagLine summarises one round as LAN/WAN/INTERNET, mirroring the
// operator-facing vocabulary of the log lines.
func diagLine(round models.RoundObservation) string {
	lan := "DOWN"
	switch round.Gateway {
	case models.GatewayUp:
		lan = "UP"
	case models.GatewayUnknown:
		lan = "NO_GATEWAY"
	}

	wan := "N/A"
	if round.WANHostOK != nil {
		wan = "DOWN"
		if *round.WANHostOK {
			wan = "UP"
		}
	}

	internet := "DOWN"
	if round.GatewayReachable() && round.PublicOK > 0 {
		internet = "UP"
	}
	return fmt.Sprintf("LAN=%s, WAN=%s, INTERNET=%s", lan, wan, internet)
}

// fmtDuration renders a duration as "2h 3m 4s", dropping leading zero
// units.
func fmtDuration(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	parts := make([]string, 0, 3)
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if h > 0 || m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	parts = append(parts, fmt.Sprintf("%ds", s))
	return strings.Join(parts, " ")
}

func hostLine() string {
	info, err := host.Info()
	if err != nil || info == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s %s, up %s)",
		info.Hostname, info.Platform, info.PlatformVersion,
		fmtDuration(time.Duration(info.Uptime)*time.Second))
}
