package verify

import (
	"fmt"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

// TrafficConfig describes one load check against the workload.
type TrafficConfig struct {
	URL string
	// Rate is requests per second; Duration is how long to sustain it.
	Rate     int
	Duration time.Duration
	// SuccessRatio is the minimum fraction of non-error responses.
	SuccessRatio float64
	// LatencyBudget caps the observed 99th percentile latency.
	LatencyBudget time.Duration
}

const (
	DefaultTrafficRate     = 100
	DefaultTrafficDuration = 4 * time.Second
	DefaultSuccessRatio    = 0.98
	DefaultLatencyBudget   = 500 * time.Millisecond
)

func (cfg *TrafficConfig) setDefaults() {
	if cfg.Rate == 0 {
		cfg.Rate = DefaultTrafficRate
	}
	if cfg.Duration == 0 {
		cfg.Duration = DefaultTrafficDuration
	}
	if cfg.SuccessRatio == 0 {
		cfg.SuccessRatio = DefaultSuccessRatio
	}
	if cfg.LatencyBudget == 0 {
		cfg.LatencyBudget = DefaultLatencyBudget
	}
}

// VerifyTraffic sustains load against the workload and checks that the
// service keeps answering within bounds. A miss is non-fatal: the
// workload is degraded, not broken, and the caller decides whether to
// keep going.
func VerifyTraffic(cfg TrafficConfig) (Verdict, error) {
	cfg.setDefaults()
	if cfg.URL == "" {
		return Verdict{}, fmt.Errorf("traffic URL is required")
	}

	rate := vegeta.Rate{Freq: cfg.Rate, Per: time.Second}
	targeter := vegeta.NewStaticTargeter(vegeta.Target{
		Method: "GET",
		URL:    cfg.URL,
	})
	attacker := vegeta.NewAttacker()

	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, rate, cfg.Duration, "service traffic check") {
		metrics.Add(res)
	}
	metrics.Close()

	detail := fmt.Sprintf("%d requests, %.2f%% ok, p99 %s",
		metrics.Requests, metrics.Success*100, metrics.Latencies.P99)
	if metrics.Success < cfg.SuccessRatio {
		return NonFatalf(ReasonTrafficDegraded, "success ratio below %.2f: %s", cfg.SuccessRatio, detail), nil
	}
	if metrics.Latencies.P99 > cfg.LatencyBudget {
		return NonFatalf(ReasonTrafficDegraded, "p99 above %s: %s", cfg.LatencyBudget, detail), nil
	}
	return Successf("%s", detail), nil
}
