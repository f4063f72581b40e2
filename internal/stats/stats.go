// Package stats renders a solve run's timing and outcome as the
// persisted `<name>.stats.json` artifact (SPEC_FULL.md §6.3). The
// Record struct and its MarshalIndent-then-WriteFile path are grounded
// on the teacher's cmd/orizon-profile ProfileResult/Run pattern: a
// small JSON-tagged struct populated after the work finishes, then
// written next to the other run output.
package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Record is one solve run's statistics, as persisted to disk.
type Record struct {
	ElapsedMS       int64  `json:"elapsed_ms"`
	VerificationMS  int64  `json:"verification_ms"`
	RefinementSteps int    `json:"refinement_steps"`
	CacheHits       int    `json:"cache_hits"`
	Outcome         string `json:"outcome"`
}

// Collector accumulates timing across a single solve run. Verification
// time is tracked separately from total elapsed time since spec.md
// treats verifier calls as the dominant, specifically-budgeted cost
// within a refinement step.
type Collector struct {
	start       time.Time
	verifyTotal time.Duration
	verifyOpen  time.Time
	cacheHits   int
}

// NewCollector starts the run-wide clock.
func NewCollector() *Collector {
	return &Collector{start: now()}
}

// StartVerify marks the beginning of a verifier call; call StopVerify
// when it returns.
func (c *Collector) StartVerify() { c.verifyOpen = now() }

// StopVerify accumulates the just-finished verifier call's duration.
func (c *Collector) StopVerify() {
	if c.verifyOpen.IsZero() {
		return
	}

	c.verifyTotal += now().Sub(c.verifyOpen)
	c.verifyOpen = time.Time{}
}

// HitCache records one memoized lookup that avoided re-deriving an
// equation or a deduction result.
func (c *Collector) HitCache() { c.cacheHits++ }

// Finish produces the Record for a completed run.
func (c *Collector) Finish(steps int, outcome string) Record {
	return Record{
		ElapsedMS:       now().Sub(c.start).Milliseconds(),
		VerificationMS:  c.verifyTotal.Milliseconds(),
		RefinementSteps: steps,
		CacheHits:       c.cacheHits,
		Outcome:         outcome,
	}
}

// now is the single indirection point for the current time, so a
// caller driving deterministic tests can substitute a fixed clock by
// constructing a Record directly instead of through Collector.
var now = time.Now

// Write renders rec as indented JSON and saves it as
// "<name>.stats.json" under dir (or alongside name if dir is empty).
func Write(dir, name string, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	out := name + ".stats.json"
	if dir != "" {
		out = filepath.Join(dir, filepath.Base(name)+".stats.json")
	}

	return os.WriteFile(out, data, 0o644)
}
