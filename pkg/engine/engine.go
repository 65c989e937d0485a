// Package engine owns the when-to-resolve policy: it coalesces edit
// bursts, runs at most one solve per step with the latest scene, and
// publishes snapshots atomically to subscribers. The solver's outputs
// never feed back into its inputs; the scene is read-only here and
// observables travel only on the published snapshot.
package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"circuitsim/pkg/schematic"
	"circuitsim/pkg/snapshot"
	"circuitsim/pkg/solve"
)

// DefaultBudget is the soft per-recompute time budget. A solve that blows
// it keeps the prior snapshot and logs a warning.
const DefaultBudget = 8 * time.Millisecond

// Listener receives each newly published snapshot. Listeners read the
// snapshot by reference and must not mutate it.
type Listener func(*snapshot.Snapshot)

// Engine is the recompute controller. The host drives it from a single
// goroutine: Invalidate on every edit, Step once per frame boundary.
type Engine struct {
	mu        sync.Mutex
	opts      solve.Options
	log       *zap.Logger
	budget    time.Duration
	listeners []Listener

	pending *schematic.Scene
	dirty   bool
	last    *snapshot.Snapshot
	seq     uint64
}

func New(opts solve.Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{opts: opts, log: log, budget: DefaultBudget}
}

// SetBudget overrides the soft recompute budget.
func (e *Engine) SetBudget(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.budget = d
}

// Subscribe registers a listener for future publishes.
func (e *Engine) Subscribe(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Invalidate records a new input snapshot. Bursts coalesce: only the
// latest scene is solved at the next Step.
func (e *Engine) Invalidate(scene *schematic.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = scene
	e.dirty = true
}

// Step runs one recompute if an edit is pending. It reports whether a new
// snapshot was published; unchanged results are suppressed by the publish
// tolerances, so solving the same scene twice fires listeners once.
func (e *Engine) Step() bool {
	e.mu.Lock()
	if !e.dirty {
		e.mu.Unlock()
		return false
	}
	scene := e.pending
	e.dirty = false
	opts := e.opts
	budget := e.budget
	e.mu.Unlock()

	start := time.Now()
	snap := solve.Solve(scene, opts)
	elapsed := time.Since(start)

	if elapsed > budget {
		e.log.Warn("recompute exceeded soft budget, keeping prior snapshot",
			zap.Duration("elapsed", elapsed),
			zap.Duration("budget", budget),
			zap.Int("elements", len(scene.Elements)))
		return false
	}

	e.mu.Lock()
	if e.last != nil && e.last.EqualWithin(snap, opts.Publish) {
		e.mu.Unlock()
		e.log.Debug("recompute unchanged, publish suppressed",
			zap.Duration("elapsed", elapsed))
		return false
	}
	e.seq++
	snap.Seq = e.seq
	snap.ID = uuid.NewString()
	e.last = snap
	listeners := make([]Listener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	e.log.Debug("snapshot published",
		zap.Uint64("seq", snap.Seq),
		zap.Duration("elapsed", elapsed),
		zap.Int("diagnostics", len(snap.Diagnostics)))

	for _, l := range listeners {
		l(snap)
	}
	return true
}

// Last returns the most recently published snapshot, or nil.
func (e *Engine) Last() *snapshot.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}
