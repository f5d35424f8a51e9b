package verify

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestVerifyReadiness(t *testing.T) {
	type test struct {
		name             string
		cfg              ReadinessConfig
		nodes            []nodeStep
		expectedCode     Code
		expectedReason   Reason
		expectedAttempts int
	}

	testTable := []test{
		{
			name: "nodes-converge",
			cfg:  ReadinessConfig{RequiredCount: 2, ExpectedCount: 3, Interval: time.Second, MaxAttempts: 10},
			nodes: []nodeStep{
				{list: nodeList(1, 0)},
				{list: nodeList(3, 2)},
				{list: nodeList(3, 3)},
			},
			expectedCode:     Success,
			expectedAttempts: 3,
		}, {
			name: "excess-nodes-terminate-immediately",
			cfg:  ReadinessConfig{RequiredCount: 2, ExpectedCount: 3, Interval: time.Second, MaxAttempts: 10},
			nodes: []nodeStep{
				{list: nodeList(4, 4)},
			},
			expectedCode:     NonFatal,
			expectedReason:   ReasonExcessNodes,
			expectedAttempts: 1,
		}, {
			name: "stragglers-never-finish",
			cfg:  ReadinessConfig{RequiredCount: 2, ExpectedCount: 3, Interval: time.Second, MaxAttempts: 2, GraceExtension: 2 * time.Second},
			nodes: []nodeStep{
				{list: nodeList(3, 2)},
			},
			expectedCode:     NonFatal,
			expectedReason:   ReasonPartialReadiness,
			expectedAttempts: 4,
		}, {
			name: "below-required-floor",
			cfg:  ReadinessConfig{RequiredCount: 2, ExpectedCount: 3, Interval: time.Second, MaxAttempts: 3, GraceExtension: time.Second},
			nodes: []nodeStep{
				{list: nodeList(3, 1)},
			},
			expectedCode:     Fatal,
			expectedReason:   ReasonTimeout,
			expectedAttempts: 3,
		}, {
			name: "listing-never-answers",
			cfg:  ReadinessConfig{RequiredCount: 2, ExpectedCount: 3, Interval: time.Second, MaxAttempts: 3},
			nodes: []nodeStep{
				{err: fmt.Errorf("connection refused")},
			},
			expectedCode:     Fatal,
			expectedReason:   ReasonUnreachable,
			expectedAttempts: 3,
		},
	}

	for _, item := range testTable {
		t.Run(item.name, func(t *testing.T) {
			fp := &fakeProbe{nodes: item.nodes}
			v := New(fp)
			v.Poller = Poller{Clock: startClock(t)}

			verdict, err := v.VerifyReadiness(context.Background(), item.cfg)
			assert.Assert(t, err == nil)
			assert.Equal(t, item.expectedCode, verdict.Code)
			assert.Equal(t, item.expectedReason, verdict.Reason)
			assert.Equal(t, item.expectedAttempts, len(verdict.Attempts))
		})
	}
}

func TestVerifyReadinessAudit(t *testing.T) {
	fp := &fakeProbe{nodes: []nodeStep{{list: nodeList(3, 3)}}}
	sink := &memSink{}
	v := New(fp)
	v.Log = sink

	verdict, err := v.VerifyReadiness(context.Background(), ReadinessConfig{
		RequiredCount: 2,
		ExpectedCount: 3,
		Interval:      time.Second,
		MaxAttempts:   5,
	})
	assert.Assert(t, err == nil)
	assert.Assert(t, verdict.Passed())

	// One verification listing plus the audit re-fetch.
	assert.Equal(t, 2, fp.nodeCalls)
	entries := sink.all()
	assert.Equal(t, 3, len(entries))
	for _, e := range entries {
		assert.Assert(t, strings.HasSuffix(e, " Ready"))
	}
}

func TestVerifyReadinessContract(t *testing.T) {
	v := New(&fakeProbe{})

	_, err := v.VerifyReadiness(context.Background(), ReadinessConfig{
		RequiredCount: 4,
		ExpectedCount: 3,
	})
	assert.Error(t, err, "required node count (4) exceeds expected (3)")

	_, err = v.VerifyReadiness(context.Background(), ReadinessConfig{})
	assert.Error(t, err, "expected node count (0) should be > 0")
}
