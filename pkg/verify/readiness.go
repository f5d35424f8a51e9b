package verify

import (
	"context"
	"fmt"
	"time"
)

// ReadinessConfig bounds one node-readiness verification.
//
// RequiredCount is the floor below which the cluster is broken;
// ExpectedCount is the configured node count. RequiredCount must not
// exceed ExpectedCount; that is a caller contract error.
type ReadinessConfig struct {
	RequiredCount  int
	ExpectedCount  int
	Interval       time.Duration
	MaxAttempts    int
	GraceExtension time.Duration
}

const (
	DefaultReadinessInterval    = 2 * time.Second
	DefaultReadinessMaxAttempts = 60
	DefaultReadinessGrace       = 30 * time.Second
)

func (cfg *ReadinessConfig) setDefaults() {
	if cfg.Interval == 0 {
		cfg.Interval = DefaultReadinessInterval
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultReadinessMaxAttempts
	}
	if cfg.GraceExtension == 0 {
		cfg.GraceExtension = DefaultReadinessGrace
	}
}

func (cfg *ReadinessConfig) validate() error {
	if cfg.ExpectedCount <= 0 {
		return fmt.Errorf("expected node count (%d) should be > 0", cfg.ExpectedCount)
	}
	if cfg.RequiredCount > cfg.ExpectedCount {
		return fmt.Errorf("required node count (%d) exceeds expected (%d)", cfg.RequiredCount, cfg.ExpectedCount)
	}
	if cfg.MaxAttempts <= 0 {
		return fmt.Errorf("maxAttempts (%d) should be > 0", cfg.MaxAttempts)
	}
	return nil
}

// VerifyReadiness polls the node listing until every expected node has
// registered and reports ready, or the attempt budget runs out.
//
// More nodes than expected, whether registered or ready, terminates
// immediately as non-fatal: waiting cannot correct an excess. A count
// at or above RequiredCount but short of ExpectedCount requests the
// one-time grace extension and, if the stragglers never finish, ends as
// NonFatal(ReasonPartialReadiness) rather than Fatal.
func (v *Verifier) VerifyReadiness(ctx context.Context, cfg ReadinessConfig) (Verdict, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return Verdict{}, err
	}

	verdict := v.Poller.Poll(ctx, PollConfig{
		Interval:       cfg.Interval,
		MaxAttempts:    cfg.MaxAttempts,
		GraceExtension: cfg.GraceExtension,
	}, func(ctx context.Context, attempt int) StepOutcome {
		list, err := v.Probe.ListNodes(ctx)
		if err != nil {
			return StepOutcome{Err: err}
		}
		found := len(list.Entries)
		ready := list.ReadyCount()
		note := fmt.Sprintf("%d/%d nodes registered, %d ready", found, cfg.ExpectedCount, ready)

		switch {
		case found == cfg.ExpectedCount && ready == cfg.ExpectedCount:
			return StepOutcome{Done: true, Verdict: Successf("all %d nodes ready", ready), Note: note}
		case found > cfg.ExpectedCount:
			return StepOutcome{Done: true, Verdict: NonFatalf(ReasonExcessNodes, "%d nodes registered, expected %d", found, cfg.ExpectedCount), Note: note}
		case ready > cfg.ExpectedCount:
			return StepOutcome{Done: true, Verdict: NonFatalf(ReasonExcessReady, "%d nodes ready, expected %d", ready, cfg.ExpectedCount), Note: note}
		case ready >= cfg.RequiredCount && ready < cfg.ExpectedCount:
			return StepOutcome{WantGrace: true, Note: note}
		default:
			return StepOutcome{Note: note}
		}
	})

	if verdict.Passed() {
		v.auditNodeListing(ctx)
	}
	return verdict, nil
}

// auditNodeListing re-fetches the node listing after a successful
// readiness check and records it for the audit trail.
func (v *Verifier) auditNodeListing(ctx context.Context) {
	list, err := v.Probe.ListNodes(ctx)
	if err != nil {
		v.sink().Record(fmt.Sprintf("node listing for audit failed: %v", err))
		return
	}
	for _, n := range list.Entries {
		state := "NotReady"
		if n.Ready {
			state = "Ready"
		}
		v.sink().Record(fmt.Sprintf("node %s %s", n.Name, state))
	}
}
