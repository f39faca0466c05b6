package metrics

import (
	"math"
	"sort"
	"time"

	"netwatch/internal/models"
)

// TargetUptime summarises reachability of one probed target over the
// retained history.
type TargetUptime struct {
	Target        string  `json:"target"`
	Role          string  `json:"role"`
	UptimePercent float64 `json:"uptime_percent"`
	TotalProbes   int     `json:"total_probes"`
	Passing       int     `json:"passing"`
	Failing       int     `json:"failing"`
	LastOK        bool    `json:"last_ok"`
	LastChecked   string  `json:"last_checked,omitempty"`
}

// ComputeTargetUptime aggregates per-target uptime statistics from the
// round history.
func ComputeTargetUptime(rounds []models.RoundObservation) []TargetUptime {
	type acc struct {
		role     models.Role
		passing  int
		failing  int
		lastOK   bool
		lastTime time.Time
	}
	state := make(map[string]*acc)
	for _, round := range rounds {
		for _, result := range round.Results {
			target := state[result.Target.Address]
			if target == nil {
				target = &acc{role: result.Target.Role}
				state[result.Target.Address] = target
			}
			if result.OK {
				target.passing++
			} else {
				target.failing++
			}
			target.lastOK = result.OK
			target.lastTime = result.CheckedAt
		}
	}
	if len(state) == 0 {
		return nil
	}

	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([]TargetUptime, 0, len(keys))
	for _, addr := range keys {
		data := state[addr]
		total := data.passing + data.failing
		uptime := 0.0
		if total > 0 {
			uptime = float64(data.passing) / float64(total) * 100
		}

		result := TargetUptime{
			Target:        addr,
			Role:          string(data.role),
			UptimePercent: round2(uptime),
			TotalProbes:   total,
			Passing:       data.passing,
			Failing:       data.failing,
			LastOK:        data.lastOK,
		}
		if !data.lastTime.IsZero() {
			result.LastChecked = data.lastTime.UTC().Format(time.RFC3339)
		}
		results = append(results, result)
	}
	return results
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
