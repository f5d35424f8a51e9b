package verify

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultContentMarker is matched against the workload's response body.
// The sanity workload serves stock nginx, so its welcome page is the
// expected content unless the caller overrides it.
const DefaultContentMarker = "Welcome to nginx!"

const (
	DefaultPingInterval = 1 * time.Second
	DefaultPingBudget   = 120 * time.Second
	DefaultHTTPInterval = 20 * time.Second
	DefaultHTTPBudget   = 200 * time.Second
)

// ServiceConfig bounds one service-health verification.
type ServiceConfig struct {
	// VIP is the load-balancer address the workload is exposed on.
	VIP string
	// URL overrides the fetch target; derived from VIP when empty.
	URL string
	// Expect is the exact substring the response body must contain.
	// No whitespace or case normalization is applied.
	Expect string

	PingInterval time.Duration
	PingBudget   time.Duration
	HTTPInterval time.Duration
	HTTPBudget   time.Duration
}

func (cfg *ServiceConfig) setDefaults() {
	if cfg.URL == "" {
		cfg.URL = fmt.Sprintf("http://%s/index.html", cfg.VIP)
	}
	if cfg.Expect == "" {
		cfg.Expect = DefaultContentMarker
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if cfg.PingBudget == 0 {
		cfg.PingBudget = DefaultPingBudget
	}
	if cfg.HTTPInterval == 0 {
		cfg.HTTPInterval = DefaultHTTPInterval
	}
	if cfg.HTTPBudget == 0 {
		cfg.HTTPBudget = DefaultHTTPBudget
	}
}

func (cfg *ServiceConfig) validate() error {
	if cfg.VIP == "" && cfg.URL == "" {
		return fmt.Errorf("service VIP is required")
	}
	return nil
}

// VerifyServiceHealth confirms the workload's VIP answers pings and
// then that it serves the expected content. Both phases are bounded by
// attempts and cumulative elapsed time together; whichever limit is hit
// first ends the phase. No state survives between invocations.
func (v *Verifier) VerifyServiceHealth(ctx context.Context, cfg ServiceConfig) (Verdict, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return Verdict{}, err
	}

	vipUp := v.pollVipUp(ctx, cfg)
	if !vipUp.Passed() {
		return vipUp, nil
	}

	match := v.pollContentMatch(ctx, cfg)
	match.Attempts = append(vipUp.Attempts, match.Attempts...)
	return match, nil
}

func (v *Verifier) pollVipUp(ctx context.Context, cfg ServiceConfig) Verdict {
	return v.Poller.Poll(ctx, PollConfig{
		Interval:      cfg.PingInterval,
		MaxAttempts:   attemptsFor(cfg.PingBudget, cfg.PingInterval),
		Budget:        cfg.PingBudget,
		ExhaustReason: ReasonVipUnreachable,
	}, func(ctx context.Context, attempt int) StepOutcome {
		res := v.Probe.Ping(ctx, cfg.VIP)
		if res.Reachable {
			return StepOutcome{Done: true, Verdict: Successf("vip %s reachable", cfg.VIP), Note: "ping ok"}
		}
		return StepOutcome{Note: fmt.Sprintf("vip %s not reachable", cfg.VIP)}
	})
}

func (v *Verifier) pollContentMatch(ctx context.Context, cfg ServiceConfig) Verdict {
	return v.Poller.Poll(ctx, PollConfig{
		Interval:      cfg.HTTPInterval,
		MaxAttempts:   attemptsFor(cfg.HTTPBudget, cfg.HTTPInterval),
		Budget:        cfg.HTTPBudget,
		ExhaustReason: ReasonContentMismatch,
	}, func(ctx context.Context, attempt int) StepOutcome {
		res, err := v.Probe.FetchHTTP(ctx, cfg.URL)
		if err != nil {
			return StepOutcome{Err: err}
		}
		if res.OK && strings.Contains(string(res.Body), cfg.Expect) {
			return StepOutcome{Done: true, Verdict: Successf("%s serves expected content", cfg.URL), Note: "content match"}
		}
		return StepOutcome{Note: fmt.Sprintf("response did not contain %q (body %s)", cfg.Expect, snippet(res.Body))}
	})
}

// attemptsFor converts an elapsed budget into an attempt budget; the
// two are enforced together by the poller.
func attemptsFor(budget, interval time.Duration) int {
	if interval <= 0 {
		return 1
	}
	attempts := int(budget / interval)
	if attempts < 1 {
		return 1
	}
	return attempts
}

func snippet(body []byte) string {
	const max = 120
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
