package gateway

import (
	"net"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jackpal/gateway"
	"go.uber.org/zap"
)

// DiscoverFunc resolves the IPv4 default route. Injectable for tests;
// production uses jackpal/gateway.
type DiscoverFunc func() (net.IP, error)

// Locator caches the default gateway address and re-resolves it on a
// fixed schedule. While no gateway is known it retries every call, so a
// late-appearing default route is picked up on the next round rather
// than after the full rediscovery period.
type Locator struct {
	discover DiscoverFunc
	every    time.Duration
	clock    clock.Clock
	log      *zap.Logger

	mu        sync.Mutex
	addr      string
	lastCheck time.Time
}

// NewLocator builds a locator that re-resolves every `every`.
func NewLocator(every time.Duration, clk clock.Clock, log *zap.Logger) *Locator {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Locator{
		discover: func() (net.IP, error) { return gateway.DiscoverGateway() },
		every:    every,
		clock:    clk,
		log:      log,
	}
}

// WithDiscoverFunc overrides route discovery; used by tests.
func (l *Locator) WithDiscoverFunc(fn DiscoverFunc) *Locator {
	l.discover = fn
	return l
}

// Resolve returns the current gateway address, re-running discovery when
// the rediscovery period elapsed or no gateway is known yet. The second
// return value is false when no default route could be resolved.
func (l *Locator) Resolve() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if l.addr != "" && now.Sub(l.lastCheck) < l.every {
		return l.addr, true
	}
	l.lastCheck = now

	ip, err := l.discover()
	if err != nil || ip == nil {
		if l.addr != "" {
			// keep the stale address; an unreachable gateway is the
			// state machine's business, not ours
			return l.addr, true
		}
		l.log.Warn("default gateway not resolved", zap.Error(err))
		return "", false
	}

	next := ip.String()
	switch {
	case l.addr == "":
		l.log.Info("default gateway resolved", zap.String("gateway", next))
	case l.addr != next:
		l.log.Info("default gateway changed",
			zap.String("old", l.addr), zap.String("new", next))
	}
	l.addr = next
	return l.addr, true
}
