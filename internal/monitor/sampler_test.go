package monitor

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netwatch/internal/gateway"
	"netwatch/internal/models"
)

// fakeProber answers from a fixed reachability table; unlisted addresses
// are unreachable.
type fakeProber struct {
	mu sync.Mutex
	up map[string]bool
}

func (f *fakeProber) Probe(_ context.Context, target models.Target) models.ProbeResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := models.ProbeResult{Target: target, CheckedAt: time.Now().UTC()}
	if f.up[target.Address] {
		result.OK = true
		result.Latency = 2 * time.Millisecond
	} else {
		result.Error = "timeout"
	}
	return result
}

func (f *fakeProber) set(addr string, up bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.up[addr] = up
}

func staticLocator(t *testing.T, addr string) *gateway.Locator {
	t.Helper()
	loc := gateway.NewLocator(time.Minute, clock.NewMock(), nil)
	if addr == "" {
		return loc.WithDiscoverFunc(func() (net.IP, error) {
			return nil, errors.New("no default route")
		})
	}
	ip := net.ParseIP(addr)
	require.NotNil(t, ip)
	return loc.WithDiscoverFunc(func() (net.IP, error) { return ip, nil })
}

func publics(addrs ...string) []models.Target {
	targets := make([]models.Target, 0, len(addrs))
	for _, a := range addrs {
		targets = append(targets, models.Target{Address: a, Role: models.RolePublic})
	}
	return targets
}

func TestSampleCountsPublicTargets(t *testing.T) {
	prober := &fakeProber{up: map[string]bool{
		"192.168.1.1": true,
		"1.1.1.1":     true,
		"8.8.8.8":     false,
		"9.9.9.9":     true,
	}}
	s := NewSampler(prober, staticLocator(t, "192.168.1.1"), publics("1.1.1.1", "8.8.8.8", "9.9.9.9"), "")

	obs := s.Sample(context.Background())
	assert.Equal(t, models.GatewayUp, obs.Gateway)
	assert.Equal(t, "192.168.1.1", obs.GatewayAddr)
	assert.Equal(t, 2, obs.PublicOK)
	assert.Equal(t, 3, obs.PublicTotal)
	assert.Equal(t, []string{"8.8.8.8"}, obs.FailedTargets)
	assert.Len(t, obs.Results, 4)
	assert.Nil(t, obs.WANHostOK)
	assert.False(t, obs.Timestamp.IsZero())
}

func TestSampleGatewayDown(t *testing.T) {
	prober := &fakeProber{up: map[string]bool{"1.1.1.1": true}}
	s := NewSampler(prober, staticLocator(t, "192.168.1.1"), publics("1.1.1.1"), "")

	obs := s.Sample(context.Background())
	assert.Equal(t, models.GatewayDown, obs.Gateway)
	assert.Contains(t, obs.FailedTargets, "192.168.1.1")
	assert.Equal(t, 1, obs.PublicOK)
}

func TestSampleUnresolvedGatewayIsUnknown(t *testing.T) {
	prober := &fakeProber{up: map[string]bool{"1.1.1.1": true}}
	s := NewSampler(prober, staticLocator(t, ""), publics("1.1.1.1"), "")

	obs := s.Sample(context.Background())
	assert.Equal(t, models.GatewayUnknown, obs.Gateway)
	assert.Empty(t, obs.GatewayAddr)
	assert.False(t, obs.GatewayReachable())
	// only the public probe ran
	assert.Len(t, obs.Results, 1)
}

func TestSampleWANHostIsDiagnosticOnly(t *testing.T) {
	prober := &fakeProber{up: map[string]bool{
		"192.168.1.1":     true,
		"1.1.1.1":         true,
		"wan.example.com": false,
	}}
	s := NewSampler(prober, staticLocator(t, "192.168.1.1"), publics("1.1.1.1"), "wan.example.com")

	obs := s.Sample(context.Background())
	require.NotNil(t, obs.WANHostOK)
	assert.False(t, *obs.WANHostOK)
	assert.Contains(t, obs.FailedTargets, "wan.example.com")
	// the WAN host does not count toward the public tally
	assert.Equal(t, 1, obs.PublicOK)
	assert.Equal(t, 1, obs.PublicTotal)
}

func TestSampleAlwaysReturnsCompleteObservation(t *testing.T) {
	// every target unreachable, gateway unresolved: still a full round
	prober := &fakeProber{up: map[string]bool{}}
	s := NewSampler(prober, staticLocator(t, ""), publics("1.1.1.1", "8.8.8.8"), "")

	obs := s.Sample(context.Background())
	assert.Equal(t, 0, obs.PublicOK)
	assert.Equal(t, 2, obs.PublicTotal)
	assert.Len(t, obs.FailedTargets, 2)
}
