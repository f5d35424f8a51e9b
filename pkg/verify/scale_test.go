package verify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/minzhuogoogle/gke-on-prem/pkg/probe"
)

type fakeCounter struct {
	counts []countStep
}

type countStep struct {
	ready int
	err   error
}

func (f *fakeCounter) ReadyReplicas(ctx context.Context, ref probe.DeploymentRef) (int, error) {
	c := countStep{}
	if len(f.counts) > 0 {
		c = f.counts[0]
		if len(f.counts) > 1 {
			f.counts = f.counts[1:]
		}
	}
	return c.ready, c.err
}

func TestVerifyScale(t *testing.T) {
	ref := probe.DeploymentRef{Namespace: "nginx-sanity-ns", Name: "nginx-sanity-test"}

	type test struct {
		name             string
		want             int
		counts           []countStep
		expectedCode     Code
		expectedReason   Reason
		expectedAttempts int
	}

	testTable := []test{
		{
			name:             "settles-on-target",
			want:             6,
			counts:           []countStep{{ready: 3}, {ready: 5}, {ready: 6}},
			expectedCode:     Success,
			expectedAttempts: 3,
		}, {
			name:             "overshoot-is-non-fatal",
			want:             3,
			counts:           []countStep{{ready: 5}},
			expectedCode:     NonFatal,
			expectedReason:   ReasonExcessReady,
			expectedAttempts: 1,
		}, {
			name:             "never-settles",
			want:             6,
			counts:           []countStep{{ready: 3}},
			expectedCode:     Fatal,
			expectedReason:   ReasonScaleMismatch,
			expectedAttempts: 3,
		}, {
			name:             "count-unavailable",
			want:             6,
			counts:           []countStep{{err: fmt.Errorf("connection refused")}},
			expectedCode:     Fatal,
			expectedReason:   ReasonUnreachable,
			expectedAttempts: 3,
		},
	}

	for _, item := range testTable {
		t.Run(item.name, func(t *testing.T) {
			v := New(&fakeProbe{})
			v.Poller = Poller{Clock: startClock(t)}

			verdict, err := v.VerifyScale(context.Background(), &fakeCounter{counts: item.counts}, ScaleConfig{
				Deployment:  ref,
				Want:        item.want,
				Interval:    time.Second,
				MaxAttempts: 3,
			})
			assert.Assert(t, err == nil)
			assert.Equal(t, item.expectedCode, verdict.Code)
			assert.Equal(t, item.expectedReason, verdict.Reason)
			assert.Equal(t, item.expectedAttempts, len(verdict.Attempts))
		})
	}

	t.Run("negative-target", func(t *testing.T) {
		v := New(&fakeProbe{})
		_, err := v.VerifyScale(context.Background(), &fakeCounter{}, ScaleConfig{Deployment: ref, Want: -1})
		assert.Error(t, err, "wanted replica count (-1) should be >= 0")
	})
}
