// Package verify decides, from repeated noisy observations, whether a
// cluster and the workload it serves are healthy. Every check drives
// the bounded Poller over single-shot probes and returns a typed
// Verdict; raw probe output never crosses this package's boundary.
package verify

import (
	"github.com/minzhuogoogle/gke-on-prem/pkg/probe"
)

// LogSink receives audit entries. It is append-only and never read by
// the verification core.
type LogSink interface {
	Record(entry string)
}

type nopSink struct{}

func (nopSink) Record(string) {}

// Verifier runs verification checks against one cluster through its
// probe. A zero Poller and nil Log are usable defaults.
type Verifier struct {
	Probe  probe.Probe
	Poller Poller
	Log    LogSink
}

func New(p probe.Probe) *Verifier {
	return &Verifier{Probe: p}
}

func (v *Verifier) sink() LogSink {
	if v.Log != nil {
		return v.Log
	}
	return nopSink{}
}
