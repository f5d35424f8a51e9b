package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minzhuogoogle/gke-on-prem/pkg/probe"
)

// ImageSetter issues the image-update request that starts a rollout.
// The cluster client provides it; the monitor only ever calls it once
// per verification.
type ImageSetter interface {
	SetImage(ctx context.Context, ref probe.DeploymentRef, image string) error
}

// UpgradeConfig bounds one rolling-upgrade verification.
type UpgradeConfig struct {
	Service    ServiceConfig
	Deployment probe.DeploymentRef
	// Image is the target image the deployment is rolled to.
	Image string

	// Interval spaces the continuity checks; MaxIterations bounds
	// them. StatusPolls is how many times the rollout status is
	// consulted across the whole window.
	Interval      time.Duration
	MaxIterations int
	StatusPolls   int
}

const (
	DefaultUpgradeInterval   = 1 * time.Second
	DefaultUpgradeIterations = 300
	DefaultStatusPolls       = 10
)

func (cfg *UpgradeConfig) setDefaults() {
	cfg.Service.setDefaults()
	if cfg.Interval == 0 {
		cfg.Interval = DefaultUpgradeInterval
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = DefaultUpgradeIterations
	}
	if cfg.StatusPolls == 0 {
		cfg.StatusPolls = DefaultStatusPolls
	}
}

func (cfg *UpgradeConfig) validate() error {
	if err := cfg.Service.validate(); err != nil {
		return err
	}
	if cfg.Image == "" {
		return fmt.Errorf("upgrade image is required")
	}
	if cfg.Deployment.Name == "" {
		return fmt.Errorf("deployment reference is required")
	}
	if cfg.StatusPolls > cfg.MaxIterations {
		return fmt.Errorf("statusPolls (%d) exceeds maxIterations (%d)", cfg.StatusPolls, cfg.MaxIterations)
	}
	return nil
}

// VerifyRollingUpgrade confirms the workload keeps serving while its
// image is rolled. It first re-verifies service health, then issues the
// image update and watches HTTP continuity: one failed fetch triggers a
// single immediate re-check (reachability first, then the fetch again);
// only a failed re-check counts as an interruption. Rollout completion
// is polled on a coarser cadence; the verification succeeds once the
// rollout reports complete while the latest fetch matched, and degrades
// to NonFatal(ReasonUpgradeIncomplete) when the window closes first.
func (v *Verifier) VerifyRollingUpgrade(ctx context.Context, setter ImageSetter, cfg UpgradeConfig) (Verdict, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return Verdict{}, err
	}

	health, err := v.VerifyServiceHealth(ctx, cfg.Service)
	if err != nil {
		return Verdict{}, err
	}
	if !health.Passed() {
		return health, nil
	}

	if err := setter.SetImage(ctx, cfg.Deployment, cfg.Image); err != nil {
		return Fatalf(ReasonUnreachable, "image update for %s failed: %v", cfg.Deployment, err), nil
	}
	v.sink().Record(fmt.Sprintf("rolling %s to image %s", cfg.Deployment, cfg.Image))

	verdict := v.watchContinuity(ctx, cfg)
	verdict.Attempts = append(health.Attempts, verdict.Attempts...)
	return verdict, nil
}

func (v *Verifier) watchContinuity(ctx context.Context, cfg UpgradeConfig) Verdict {
	clock := v.Poller.clock()
	start := clock.Now()
	statusEvery := cfg.MaxIterations / cfg.StatusPolls

	lastMatched := true
	trace := []Attempt{}
	note := func(i int, format string, args ...interface{}) {
		trace = append(trace, Attempt{Number: i, Elapsed: clock.Since(start), Note: fmt.Sprintf(format, args...)})
	}
	finish := func(verdict Verdict) Verdict {
		verdict.Attempts = trace
		return verdict
	}

	for i := 0; i < cfg.MaxIterations; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return finish(Fatalf(ReasonCanceled, "aborted after %d iterations: %v", i, ctx.Err()))
			case <-clock.After(cfg.Interval):
			}
		}
		if err := ctx.Err(); err != nil {
			return finish(Fatalf(ReasonCanceled, "aborted after %d iterations: %v", i, err))
		}

		matched, detail := v.checkContent(ctx, cfg.Service)
		if !matched {
			// One immediate re-check, not a full retry cycle.
			reachable := v.Probe.Ping(ctx, cfg.Service.VIP).Reachable
			matched, detail = v.checkContent(ctx, cfg.Service)
			if !matched {
				note(i, "service check failed twice: %s (vip reachable: %t)", detail, reachable)
				return finish(Fatalf(ReasonServiceInterrupted,
					"service lost during rollout of %s: %s (vip reachable: %t)", cfg.Deployment, detail, reachable))
			}
			note(i, "transient service hiccup, re-check recovered")
		}
		lastMatched = matched

		if (i+1)%statusEvery == 0 {
			status, err := v.Probe.RolloutStatus(ctx, cfg.Deployment)
			switch {
			case err != nil:
				note(i, "rollout status check failed: %v", err)
			case status.Complete && lastMatched:
				note(i, "rollout complete, service healthy")
				return finish(Successf("rollout of %s complete, service uninterrupted", cfg.Deployment))
			default:
				note(i, "rollout in progress")
			}
		}
	}

	return finish(NonFatalf(ReasonUpgradeIncomplete,
		"rollout of %s not complete after %d checks", cfg.Deployment, cfg.MaxIterations))
}

// checkContent performs one fetch and the exact-substring match.
func (v *Verifier) checkContent(ctx context.Context, cfg ServiceConfig) (bool, string) {
	res, err := v.Probe.FetchHTTP(ctx, cfg.URL)
	if err != nil {
		return false, err.Error()
	}
	if !res.OK {
		return false, fmt.Sprintf("non-2xx response (body %s)", snippet(res.Body))
	}
	if !strings.Contains(string(res.Body), cfg.Expect) {
		return false, fmt.Sprintf("body missing %q (body %s)", cfg.Expect, snippet(res.Body))
	}
	return true, ""
}
