// Package detect flags bursts of repeated CALL/EVAL traffic: the same
// function name or Lua expression dispatched far more often than the
// surrounding traffic would suggest, the kind of pattern that usually
// means a caller is looping a single-row fetch instead of batching it.
package detect

import (
	"sync"
	"time"
)

// Alert represents a detected repeated-call burst.
type Alert struct {
	Expr  string
	Count int
}

// Detector tracks CALL/EVAL expression frequency and flags bursts.
type Detector struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	cooldown  time.Duration
	calls     map[string][]time.Time
	lastAlert map[string]time.Time
}

// New creates a Detector.
// threshold: number of occurrences to trigger (e.g., 5).
// window: time window to count within (e.g., 1s).
// cooldown: minimum time between alerts for the same expression (e.g., 10s).
func New(threshold int, window, cooldown time.Duration) *Detector {
	return &Detector{
		threshold: threshold,
		window:    window,
		cooldown:  cooldown,
		calls:     make(map[string][]time.Time),
		lastAlert: make(map[string]time.Time),
	}
}

// Result holds the outcome of a Record call.
type Result struct {
	// Matched is true when the expression's count is at or above the
	// threshold within the time window. Use this to mark every event in
	// the burst.
	Matched bool
	// Alert is non-nil only when the threshold is first crossed
	// (respecting cooldown). Use this to trigger a one-time notification.
	Alert *Alert
}

// Record registers one CALL/EVAL dispatch and returns a Result. expr is
// the function name for CALL or the normalized Lua expression for EVAL
// (see query.Normalize).
func (d *Detector) Record(expr string, t time.Time) Result {
	if expr == "" {
		return Result{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := t.Add(-d.window)

	times := d.calls[expr]
	start := 0
	for start < len(times) && times[start].Before(cutoff) {
		start++
	}
	times = append(times[start:], t)
	d.calls[expr] = times

	if len(times) < d.threshold {
		return Result{}
	}

	res := Result{Matched: true}

	if last, ok := d.lastAlert[expr]; !ok || t.Sub(last) >= d.cooldown {
		d.lastAlert[expr] = t
		res.Alert = &Alert{Expr: expr, Count: len(times)}
	}

	return res
}
