package verify

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// StepOutcome is what one probe-and-evaluate step reports back to Poll.
type StepOutcome struct {
	// Done short-circuits the loop with Verdict.
	Done    bool
	Verdict Verdict
	// Err marks a transport-level probe failure; it is retried, not
	// surfaced, until the budget is spent.
	Err error
	// WantGrace asks for the one-time budget extension. The step sets
	// it while a partial-success threshold holds.
	WantGrace bool
	// Note is carried into the attempt trace.
	Note string
}

// Step performs one observation and classifies it. attempt starts at 0.
type Step func(ctx context.Context, attempt int) StepOutcome

// PollConfig bounds one Poll invocation.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
	// GraceExtension enlarges the attempt budget once, by
	// GraceExtension/Interval attempts, when a step requests it.
	GraceExtension time.Duration
	// Budget optionally caps cumulative elapsed time; zero means the
	// attempt count alone bounds the loop. Whichever limit is reached
	// first ends the poll.
	Budget time.Duration
	// ExhaustReason overrides the reason reported when the budget is
	// spent without a terminal observation. Defaults to ReasonTimeout.
	ExhaustReason Reason
}

// Poller drives a Step until it reports a terminal verdict or the
// attempt budget runs out. One Poll call owns all of its state; nothing
// survives between calls. The clock is injectable for tests and real
// otherwise.
type Poller struct {
	Clock clockwork.Clock
}

func (p *Poller) clock() clockwork.Clock {
	if p != nil && p.Clock != nil {
		return p.Clock
	}
	return clockwork.NewRealClock()
}

// Poll invokes step immediately on attempt 0 and after Interval on
// every later attempt. A Done outcome returns its verdict right away.
// Probe errors count as retries; an error on the final attempt makes
// the result Fatal(ReasonUnreachable). Otherwise exhaustion while the
// most recent step held the partial-success threshold reports
// NonFatal(ReasonPartialReadiness), and plain exhaustion reports
// ExhaustReason.
func (p *Poller) Poll(ctx context.Context, cfg PollConfig, step Step) Verdict {
	clock := p.clock()
	start := clock.Now()

	maxAttempts := cfg.MaxAttempts
	graceGranted := false
	partial := false
	var lastErr error
	var lastNote string
	trace := []Attempt{}

	finish := func(v Verdict) Verdict {
		v.Attempts = append(v.Attempts, trace...)
		return v
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return finish(Fatalf(ReasonCanceled, "aborted after %d attempts: %v", attempt, ctx.Err()))
			case <-clock.After(cfg.Interval):
			}
		}
		if err := ctx.Err(); err != nil {
			return finish(Fatalf(ReasonCanceled, "aborted after %d attempts: %v", attempt, err))
		}

		out := step(ctx, attempt)
		note := out.Note
		if out.Err != nil {
			lastErr = out.Err
			if note == "" {
				note = out.Err.Error()
			}
		} else {
			lastErr = nil
			partial = out.WantGrace
		}
		lastNote = note
		trace = append(trace, Attempt{Number: attempt, Elapsed: clock.Since(start), Note: note})

		if out.Done {
			return finish(out.Verdict)
		}

		if out.WantGrace && !graceGranted && cfg.GraceExtension > 0 && cfg.Interval > 0 {
			graceGranted = true
			maxAttempts += int(cfg.GraceExtension / cfg.Interval)
		}

		exhausted := attempt+1 >= maxAttempts
		if !exhausted && cfg.Budget > 0 && clock.Since(start)+cfg.Interval >= cfg.Budget {
			exhausted = true
		}
		if exhausted {
			if lastErr != nil {
				return finish(Fatalf(ReasonUnreachable, "budget exhausted after %d attempts: %v", attempt+1, lastErr))
			}
			if partial {
				return finish(NonFatalf(ReasonPartialReadiness, "budget exhausted after %d attempts: %s", attempt+1, lastNote))
			}
			reason := cfg.ExhaustReason
			if reason == ReasonNone {
				reason = ReasonTimeout
			}
			return finish(Fatalf(reason, "budget exhausted after %d attempts: %s", attempt+1, lastNote))
		}
	}
}
