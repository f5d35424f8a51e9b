package verify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/minzhuogoogle/gke-on-prem/pkg/probe"
)

// fakeProbe replays scripted observations. Each script is consumed in
// order; once exhausted the last entry repeats, so an open-ended poll
// always has something to observe.
type fakeProbe struct {
	mu       sync.Mutex
	nodes    []nodeStep
	fetches  []fetchStep
	pings    []bool
	rollouts []rolloutStep

	nodeCalls    int
	fetchCalls   int
	pingCalls    int
	rolloutCalls int
}

type nodeStep struct {
	list probe.NodeList
	err  error
}

type fetchStep struct {
	res probe.HTTPResult
	err error
}

type rolloutStep struct {
	res probe.RolloutStatus
	err error
}

func (f *fakeProbe) ListNodes(ctx context.Context) (probe.NodeList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodeCalls++
	s := nodeStep{}
	if len(f.nodes) > 0 {
		s = f.nodes[0]
		if len(f.nodes) > 1 {
			f.nodes = f.nodes[1:]
		}
	}
	return s.list, s.err
}

func (f *fakeProbe) FetchHTTP(ctx context.Context, url string) (probe.HTTPResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	s := fetchStep{}
	if len(f.fetches) > 0 {
		s = f.fetches[0]
		if len(f.fetches) > 1 {
			f.fetches = f.fetches[1:]
		}
	}
	return s.res, s.err
}

func (f *fakeProbe) Ping(ctx context.Context, address string) probe.PingResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingCalls++
	reachable := false
	if len(f.pings) > 0 {
		reachable = f.pings[0]
		if len(f.pings) > 1 {
			f.pings = f.pings[1:]
		}
	}
	return probe.PingResult{Reachable: reachable}
}

func (f *fakeProbe) RolloutStatus(ctx context.Context, ref probe.DeploymentRef) (probe.RolloutStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rolloutCalls++
	s := rolloutStep{}
	if len(f.rollouts) > 0 {
		s = f.rollouts[0]
		if len(f.rollouts) > 1 {
			f.rollouts = f.rollouts[1:]
		}
	}
	return s.res, s.err
}

// nodeList builds a listing of found nodes with the first ready of
// them reporting ready.
func nodeList(found, ready int) probe.NodeList {
	list := probe.NodeList{}
	for i := 0; i < found; i++ {
		list.Entries = append(list.Entries, probe.NodeStatus{
			Name:  nodeName(i),
			Ready: i < ready,
		})
	}
	return list
}

func nodeName(i int) string {
	return "node-" + string(rune('a'+i))
}

func okFetch(body string) fetchStep {
	return fetchStep{res: probe.HTTPResult{Body: []byte(body), OK: true}}
}

func badFetch(body string) fetchStep {
	return fetchStep{res: probe.HTTPResult{Body: []byte(body), OK: false}}
}

func errFetch(err error) fetchStep {
	return fetchStep{err: err}
}

// memSink collects audit entries in memory.
type memSink struct {
	mu      sync.Mutex
	entries []string
}

func (s *memSink) Record(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *memSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.entries...)
}

// startClock returns a fake clock driven forward one second at a time
// whenever a poll is sleeping, so budget-sized waits pass in simulated
// time. The driver goroutine stops with the test.
func startClock(t *testing.T) *clockwork.FakeClock {
	t.Helper()
	clk := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		for {
			if err := clk.BlockUntilContext(ctx, 1); err != nil {
				return
			}
			clk.Advance(time.Second)
		}
	}()
	return clk
}
