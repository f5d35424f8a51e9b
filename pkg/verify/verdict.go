package verify

import (
	"fmt"
	"time"
)

// Code is the terminal classification of one verification.
type Code int

const (
	// Success means the condition was fully satisfied.
	Success Code = iota
	// NonFatal means the condition was not perfectly met but the
	// result is operation-tolerable; callers surface it as a warning.
	NonFatal
	// Fatal means the budget was exhausted or the observed state
	// cannot self-correct by waiting.
	Fatal
)

func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case NonFatal:
		return "non-fatal"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("unknown verdict code (%d)", int(c))
}

// Reason is the closed set of tags a terminal verdict may carry.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonTimeout            Reason = "timeout"
	ReasonUnreachable        Reason = "unreachable"
	ReasonCanceled           Reason = "canceled"
	ReasonPartialReadiness   Reason = "partial readiness"
	ReasonExcessNodes        Reason = "excess nodes"
	ReasonExcessReady        Reason = "excess ready nodes"
	ReasonVipUnreachable     Reason = "vip unreachable"
	ReasonContentMismatch    Reason = "content mismatch"
	ReasonServiceInterrupted Reason = "service interrupted"
	ReasonUpgradeIncomplete  Reason = "upgrade incomplete"
	ReasonUnhealthy          Reason = "cluster unhealthy"
	ReasonScaleMismatch      Reason = "scale mismatch"
	ReasonTrafficDegraded    Reason = "traffic degraded"
)

// Attempt is one entry of the structured trace a verification returns
// for reporting. Notes hold the observation summary, not raw output.
type Attempt struct {
	Number  int
	Elapsed time.Duration
	Note    string
}

// Verdict is the result of one verification: a terminal code, a reason
// tag for anything short of success, free-form diagnostic detail, and
// the trace of attempts that led there.
type Verdict struct {
	Code     Code
	Reason   Reason
	Detail   string
	Attempts []Attempt
}

func (v Verdict) Passed() bool {
	return v.Code == Success
}

func (v Verdict) String() string {
	if v.Code == Success {
		if v.Detail == "" {
			return "success"
		}
		return fmt.Sprintf("success: %s", v.Detail)
	}
	if v.Detail == "" {
		return fmt.Sprintf("%s (%s)", v.Code, v.Reason)
	}
	return fmt.Sprintf("%s (%s): %s", v.Code, v.Reason, v.Detail)
}

func Successf(format string, args ...interface{}) Verdict {
	return Verdict{Code: Success, Detail: fmt.Sprintf(format, args...)}
}

func NonFatalf(reason Reason, format string, args ...interface{}) Verdict {
	return Verdict{Code: NonFatal, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func Fatalf(reason Reason, format string, args ...interface{}) Verdict {
	return Verdict{Code: Fatal, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
