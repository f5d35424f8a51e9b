// Package report collects per-check verdicts across clusters and
// renders the run summary. It owns every process-level side effect the
// verification core is not allowed to have: log files, summaries, and
// the optional bucket upload.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/minzhuogoogle/gke-on-prem/pkg/verify"
)

// Result is one recorded check outcome.
type Result struct {
	Cluster string
	Name    string
	Verdict verify.Verdict
}

func (r Result) status() string {
	switch r.Verdict.Code {
	case verify.Success:
		return "PASS"
	case verify.NonFatal:
		return "WARN"
	default:
		return "FAIL"
	}
}

// Report accumulates results from concurrently verified clusters.
type Report struct {
	RunID string

	mu      sync.Mutex
	results []Result
	sink    *FileSink
}

func New(sink *FileSink) *Report {
	return &Report{
		RunID: uuid.New().String(),
		sink:  sink,
	}
}

// Add records one verdict and mirrors it to the audit log.
func (r *Report) Add(cluster, name string, verdict verify.Verdict) {
	result := Result{Cluster: cluster, Name: name, Verdict: verdict}
	r.mu.Lock()
	r.results = append(r.results, result)
	r.mu.Unlock()

	if r.sink != nil {
		r.sink.Record(fmt.Sprintf("Test_Case: %s: %s: %s", name, result.status(), verdict))
		for _, attempt := range verdict.Attempts {
			r.sink.Record(fmt.Sprintf("  attempt %d (+%s): %s", attempt.Number, attempt.Elapsed, attempt.Note))
		}
	}
}

// Failed reports whether any recorded verdict was fatal. Non-fatal
// verdicts are warnings; they do not fail the run.
func (r *Report) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, result := range r.results {
		if result.Verdict.Code == verify.Fatal {
			return true
		}
	}
	return false
}

// Counts returns passed, warned and failed totals.
func (r *Report) Counts() (passed, warned, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, result := range r.results {
		switch result.Verdict.Code {
		case verify.Success:
			passed++
		case verify.NonFatal:
			warned++
		default:
			failed++
		}
	}
	return
}

// Summary renders the end-of-run block the operator reads first.
func (r *Report) Summary(w io.Writer) {
	passed, warned, failed := r.Counts()
	padding := strings.Repeat("=", 80)

	fmt.Fprintf(w, "Summary (run %s):\n", r.RunID)
	fmt.Fprintf(w, "    Total: %d, Passed: %d, Warnings: %d, Failed: %d\n", passed+warned+failed, passed, warned, failed)
	fmt.Fprintln(w, padding)
	r.mu.Lock()
	for _, result := range r.results {
		fmt.Fprintf(w, "  %s: %s: %s: %s\n", result.Cluster, result.Name, result.status(), result.Verdict)
	}
	r.mu.Unlock()
	fmt.Fprintln(w, padding)
}
