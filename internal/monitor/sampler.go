package monitor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"netwatch/internal/gateway"
	"netwatch/internal/models"
	"netwatch/internal/probe"
)

// Sampler executes one probe round covering the gateway, every public
// target, and the optional WAN self-check host. It always returns a
// complete RoundObservation; probe failures are recorded, never raised.
type Sampler struct {
	prober  probe.Prober
	locator *gateway.Locator
	publics []models.Target
	wanHost string
}

// NewSampler wires a sampler for a fixed target set.
func NewSampler(prober probe.Prober, locator *gateway.Locator, publics []models.Target, wanHost string) *Sampler {
	return &Sampler{
		prober:  prober,
		locator: locator,
		publics: publics,
		wanHost: wanHost,
	}
}

// Sample runs one round. Probes within the round run concurrently but
// the round is only handed over once every result is collected.
func (s *Sampler) Sample(ctx context.Context) models.RoundObservation {
	obs := models.RoundObservation{
		Gateway:     models.GatewayUnknown,
		PublicTotal: len(s.publics),
		Timestamp:   time.Now().UTC(),
	}

	gwAddr, gwKnown := s.locator.Resolve()
	obs.GatewayAddr = gwAddr

	var (
		gwResult  *models.ProbeResult
		wanResult *models.ProbeResult
		pubs      = make([]models.ProbeResult, len(s.publics))
	)

	g, gctx := errgroup.WithContext(ctx)
	if gwKnown {
		g.Go(func() error {
			r := s.prober.Probe(gctx, models.Target{Address: gwAddr, Role: models.RoleGateway})
			gwResult = &r
			return nil
		})
	}
	for i, target := range s.publics {
		i, target := i, target
		g.Go(func() error {
			pubs[i] = s.prober.Probe(gctx, target)
			return nil
		})
	}
	if s.wanHost != "" {
		g.Go(func() error {
			r := s.prober.Probe(gctx, models.Target{Address: s.wanHost, Role: models.RoleWANHost})
			wanResult = &r
			return nil
		})
	}
	_ = g.Wait() // probes never return errors

	if gwResult != nil {
		obs.Results = append(obs.Results, *gwResult)
		if gwResult.OK {
			obs.Gateway = models.GatewayUp
		} else {
			obs.Gateway = models.GatewayDown
			obs.FailedTargets = append(obs.FailedTargets, gwResult.Target.Address)
		}
	}
	for _, r := range pubs {
		obs.Results = append(obs.Results, r)
		if r.OK {
			obs.PublicOK++
		} else {
			obs.FailedTargets = append(obs.FailedTargets, r.Target.Address)
		}
	}
	if wanResult != nil {
		obs.Results = append(obs.Results, *wanResult)
		ok := wanResult.OK
		obs.WANHostOK = &ok
		if !ok {
			obs.FailedTargets = append(obs.FailedTargets, wanResult.Target.Address)
		}
	}
	return obs
}
