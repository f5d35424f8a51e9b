package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/minzhuogoogle/gke-on-prem/pkg/probe"
)

// ReplicaCounter reports how many replicas of a deployment are ready.
type ReplicaCounter interface {
	ReadyReplicas(ctx context.Context, ref probe.DeploymentRef) (int, error)
}

// ScaleConfig bounds one replica-scale verification.
type ScaleConfig struct {
	Deployment  probe.DeploymentRef
	Want        int
	Interval    time.Duration
	MaxAttempts int
}

const (
	DefaultScaleInterval    = 10 * time.Second
	DefaultScaleMaxAttempts = 3
)

func (cfg *ScaleConfig) setDefaults() {
	if cfg.Interval == 0 {
		cfg.Interval = DefaultScaleInterval
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultScaleMaxAttempts
	}
}

// VerifyScale polls until the deployment's ready replica count settles
// on the wanted value. Counts above the target are reported immediately
// as non-fatal; waiting cannot shrink them back.
func (v *Verifier) VerifyScale(ctx context.Context, counter ReplicaCounter, cfg ScaleConfig) (Verdict, error) {
	cfg.setDefaults()
	if cfg.Want < 0 {
		return Verdict{}, fmt.Errorf("wanted replica count (%d) should be >= 0", cfg.Want)
	}

	verdict := v.Poller.Poll(ctx, PollConfig{
		Interval:      cfg.Interval,
		MaxAttempts:   cfg.MaxAttempts,
		ExhaustReason: ReasonScaleMismatch,
	}, func(ctx context.Context, attempt int) StepOutcome {
		ready, err := counter.ReadyReplicas(ctx, cfg.Deployment)
		if err != nil {
			return StepOutcome{Err: err}
		}
		note := fmt.Sprintf("%d/%d replicas ready", ready, cfg.Want)
		switch {
		case ready == cfg.Want:
			return StepOutcome{Done: true, Verdict: Successf("%s settled at %d replicas", cfg.Deployment, ready), Note: note}
		case ready > cfg.Want:
			return StepOutcome{Done: true, Verdict: NonFatalf(ReasonExcessReady, "%d replicas ready, wanted %d", ready, cfg.Want), Note: note}
		default:
			return StepOutcome{Note: note}
		}
	})
	return verdict, nil
}
