package engine

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"updaterepos/internal/outcome"
	"updaterepos/internal/vcs"
)

// Aggregator accumulates outcomes as they arrive. It is safe for concurrent
// use; Snapshot can be called while a run is in progress.
type Aggregator struct {
	mu        sync.Mutex
	runID     string
	roots     []string
	started   time.Time
	outcomes  []outcome.Outcome
	seen      map[int]struct{}
	counts    map[vcs.Status]int
	discovery []outcome.DiscoveryError
	cancelled bool
}

func NewAggregator(runID string, roots []string) *Aggregator {
	return &Aggregator{
		runID:   runID,
		roots:   slices.Clone(roots),
		started: time.Now(),
		seen:    make(map[int]struct{}),
		counts:  make(map[vcs.Status]int),
	}
}

// Add records o. A second outcome for the same discovery index is rejected.
func (a *Aggregator) Add(o outcome.Outcome) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, dup := a.seen[o.Index]; dup {
		return fmt.Errorf("duplicate outcome for repository #%d (%s)", o.Index, o.Repo.Path)
	}
	a.seen[o.Index] = struct{}{}
	a.outcomes = append(a.outcomes, o)
	a.counts[o.Status]++
	return nil
}

func (a *Aggregator) AddDiscoveryError(e outcome.DiscoveryError) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.discovery = append(a.discovery, e)
}

func (a *Aggregator) MarkCancelled() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelled = true
}

// Snapshot returns the summary so far, outcomes in discovery order.
func (a *Aggregator) Snapshot() outcome.Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	outs := slices.Clone(a.outcomes)
	outcome.SortByIndex(outs)
	if outs == nil {
		outs = []outcome.Outcome{}
	}
	return outcome.Summary{
		RunID:           a.runID,
		Roots:           slices.Clone(a.roots),
		Counts:          maps.Clone(a.counts),
		Total:           len(outs),
		Outcomes:        outs,
		DiscoveryErrors: slices.Clone(a.discovery),
		Cancelled:       a.cancelled,
		Duration:        time.Since(a.started),
	}
}

// Collect drains results into a and returns the final summary. onOutcome, if
// set, sees every outcome as it arrives (live reporting).
func Collect(a *Aggregator, results <-chan outcome.Outcome, onOutcome func(outcome.Outcome)) (outcome.Summary, error) {
	var errs []error
	for o := range results {
		if err := a.Add(o); err != nil {
			errs = append(errs, err)
			continue
		}
		if onOutcome != nil {
			onOutcome(o)
		}
	}
	if len(errs) > 0 {
		return a.Snapshot(), fmt.Errorf("inconsistent outcome stream: %v", errs)
	}
	return a.Snapshot(), nil
}
