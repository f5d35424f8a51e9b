package verify

import (
	"context"
	"strings"
	"time"
)

// DiagnoseRunner executes one diagnose pass of the platform tooling and
// returns its raw output. A non-nil error covers both unreachable
// clusters and non-zero exits; the output may still carry detail.
type DiagnoseRunner interface {
	Diagnose(ctx context.Context) (string, error)
}

// HealthyMarker is the line the platform diagnose emits for a healthy
// cluster.
const HealthyMarker = "Cluster is healthy"

// DiagnoseConfig bounds one diagnose verification.
type DiagnoseConfig struct {
	Interval    time.Duration
	MaxAttempts int
	// Marker overrides the output substring treated as healthy.
	Marker string
}

const (
	DefaultDiagnoseInterval    = 2 * time.Second
	DefaultDiagnoseMaxAttempts = 15
)

func (cfg *DiagnoseConfig) setDefaults() {
	if cfg.Interval == 0 {
		cfg.Interval = DefaultDiagnoseInterval
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultDiagnoseMaxAttempts
	}
	if cfg.Marker == "" {
		cfg.Marker = HealthyMarker
	}
}

// VerifyDiagnose re-runs the platform diagnose until its output carries
// the healthy marker. Failed runs are retried like any other probe
// error; a cluster that never reports healthy within the budget is
// Fatal(ReasonUnhealthy).
func (v *Verifier) VerifyDiagnose(ctx context.Context, runner DiagnoseRunner, cfg DiagnoseConfig) (Verdict, error) {
	cfg.setDefaults()

	verdict := v.Poller.Poll(ctx, PollConfig{
		Interval:      cfg.Interval,
		MaxAttempts:   cfg.MaxAttempts,
		ExhaustReason: ReasonUnhealthy,
	}, func(ctx context.Context, attempt int) StepOutcome {
		output, err := runner.Diagnose(ctx)
		if strings.Contains(output, cfg.Marker) && err == nil {
			return StepOutcome{Done: true, Verdict: Successf("diagnose reports healthy"), Note: "diagnose healthy"}
		}
		if err != nil {
			return StepOutcome{Err: err, Note: "diagnose run failed"}
		}
		return StepOutcome{Note: "diagnose output missing healthy marker"}
	})
	return verdict, nil
}
