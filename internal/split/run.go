// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"context"
	"fmt"

	"github.com/apex/log"

	"github.com/staranto/tfsplitgo/internal/state"
)

// Backend is the engine's view of a state backend: pull and push the raw
// document text for one directory. Concrete implementations live in
// internal/backend; tests plug in in-memory fakes.
type Backend interface {
	Pull(ctx context.Context) ([]byte, error)
	Push(ctx context.Context, doc []byte) error
	Dir() string
}

// Factory yields the backend for a directory. Keeping the directory an
// explicit parameter (rather than chdir'ing around like terraform does)
// is what makes runs testable.
type Factory func(dir string) (Backend, error)

// RunState tracks a run through its phases.
type RunState int

const (
	Idle RunState = iota
	Pulled
	Planned
	DryReported
	Applying
	Applied
	Failed
)

func (s RunState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pulled:
		return "pulled"
	case Planned:
		return "planned"
	case DryReported:
		return "dry-reported"
	case Applying:
		return "applying"
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Move is one instance relocation in a plan.
type Move struct {
	From string
	To   string
}

// ConflictRow is a Conflict annotated with the source-side address, for
// reporting which source instance stayed behind (or clobbered what).
type ConflictRow struct {
	From      string
	To        string
	Overwrote bool
}

// MappingPlan is the planned outcome for one mapping.
type MappingPlan struct {
	Mapping   Mapping
	Moves     []Move
	Conflicts []ConflictRow
	// Dangling lists dependency addresses of moved instances that point at
	// resources staying behind in the source. The engine does not repair
	// these; it surfaces them.
	Dangling []string
}

// Plan is the accumulated outcome of the planning phase across all mappings.
type Plan struct {
	Mappings     []MappingPlan
	SourceBefore int
	SourceAfter  int
}

// MoveCount totals planned instance moves.
func (p *Plan) MoveCount() int {
	n := 0
	for _, mp := range p.Mappings {
		n += len(mp.Moves)
	}
	return n
}

// ConflictCount totals recorded conflicts.
func (p *Plan) ConflictCount() int {
	n := 0
	for _, mp := range p.Mappings {
		n += len(mp.Conflicts)
	}
	return n
}

// Runner sequences one split run: pull once, plan in memory, then either
// report (dry-run) or apply. A Runner is single-use.
type Runner struct {
	SourceDir string
	Mappings  []Mapping
	Overwrite bool
	Factory   Factory

	runState RunState

	source    *state.Document
	backends  map[string]Backend
	dests     map[string]*state.Document
	destOrder []string
	pulledRaw map[string][]byte

	sourceChanged bool
	destChanged   map[string]bool
}

// NewRunner validates the mapping set and builds an idle runner.
func NewRunner(sourceDir string, mappings []Mapping, overwrite bool, factory Factory) (*Runner, error) {
	if len(mappings) == 0 {
		return nil, fmt.Errorf("no split mappings provided")
	}
	for _, m := range mappings {
		if m.Dir == sourceDir {
			return nil, fmt.Errorf("mapping %s: destination equals the source directory", m)
		}
	}

	return &Runner{
		SourceDir:   sourceDir,
		Mappings:    mappings,
		Overwrite:   overwrite,
		Factory:     factory,
		runState:    Idle,
		backends:    map[string]Backend{},
		dests:       map[string]*state.Document{},
		pulledRaw:   map[string][]byte{},
		destChanged: map[string]bool{},
	}, nil
}

func (r *Runner) State() RunState { return r.runState }

// Source exposes the in-memory source document (reduced, once planned).
func (r *Runner) Source() *state.Document { return r.source }

// Dest exposes a destination's in-memory document.
func (r *Runner) Dest(dir string) *state.Document { return r.dests[dir] }

// PulledRaw returns the exact text pulled for a directory, for diffing.
func (r *Runner) PulledRaw(dir string) []byte { return r.pulledRaw[dir] }

// DestDirs returns the distinct destination directories in mapping order.
func (r *Runner) DestDirs() []string { return r.destOrder }

// Pull retrieves the source document and each distinct destination document
// exactly once. Two mappings into the same directory share one pulled
// document for the whole run, so later mappings see earlier merges. Any pull
// failure aborts the run before anything is mutated; the one exception is a
// destination that pulls cleanly but empty, which is bootstrapped as a fresh
// document with its own lineage.
func (r *Runner) Pull(ctx context.Context) error {
	if r.runState != Idle {
		return fmt.Errorf("pull: run already %s", r.runState)
	}

	srcBe, err := r.backend(r.SourceDir)
	if err != nil {
		return err
	}
	raw, err := srcBe.Pull(ctx)
	if err != nil {
		return fmt.Errorf("pull source %s: %w", r.SourceDir, err)
	}
	r.pulledRaw[r.SourceDir] = raw
	if r.source, err = state.Read(raw); err != nil {
		return fmt.Errorf("source %s: %w", r.SourceDir, err)
	}
	log.Debugf("pulled source %s: serial=%d resources=%d",
		r.SourceDir, r.source.Serial, len(r.source.Resources))

	for _, m := range r.Mappings {
		if _, ok := r.dests[m.Dir]; ok {
			continue
		}

		be, err := r.backend(m.Dir)
		if err != nil {
			return err
		}
		raw, err := be.Pull(ctx)
		if err != nil {
			return fmt.Errorf("pull destination %s: %w", m.Dir, err)
		}

		var doc *state.Document
		if len(raw) == 0 || isBlank(raw) {
			log.Infof("destination %s has no state yet; starting a fresh document", m.Dir)
			doc = state.New(r.source.TerraformVersion)
		} else if doc, err = state.Read(raw); err != nil {
			return fmt.Errorf("destination %s: %w", m.Dir, err)
		}

		r.pulledRaw[m.Dir] = raw
		r.dests[m.Dir] = doc
		r.destOrder = append(r.destOrder, m.Dir)
	}

	r.runState = Pulled
	return nil
}

// Plan runs matcher, rewriter and merge for every mapping against the
// in-memory documents, reducing the source as it goes. Nothing touches a
// backend. With overwrite off, a conflicted instance is dropped from the
// incoming set and retained in the source, since it did not actually move.
func (r *Runner) Plan() (*Plan, error) {
	if r.runState != Pulled {
		return nil, fmt.Errorf("plan: run is %s, want pulled", r.runState)
	}

	plan := &Plan{SourceBefore: r.source.InstanceCount()}

	for _, m := range r.Mappings {
		mp, err := r.planMapping(m)
		if err != nil {
			r.runState = Failed
			return nil, err
		}
		plan.Mappings = append(plan.Mappings, mp)
	}

	plan.SourceAfter = r.source.InstanceCount()
	r.runState = Planned
	return plan, nil
}

func (r *Runner) planMapping(m Mapping) (MappingPlan, error) {
	mp := MappingPlan{Mapping: m}
	dest := r.dests[m.Dir]

	selected, err := Select(r.source, m.Module)
	if err != nil {
		return mp, err
	}
	log.Debugf("mapping %s: %d entries selected", m, len(selected))

	prefix := m.Prefix()

	rewritten := make([]*state.Resource, 0, len(selected))
	for _, src := range selected {
		mp.Dangling = append(mp.Dangling, DanglingDeps(src, m.Module)...)
		rew, err := Rewrite(src, m.Module, prefix)
		if err != nil {
			return mp, err
		}
		rewritten = append(rewritten, rew)
	}

	conflicts := Merge(dest, rewritten, r.Overwrite)

	// Instances the destination kept (overwrite off) did not move; they
	// stay behind in the source.
	dropped := map[string]bool{}
	for _, c := range conflicts {
		if !c.Overwrote {
			dropped[c.Addr] = true
		}
	}

	remove := map[*state.Resource]bool{}
	for ei, src := range selected {
		rew := rewritten[ei]
		var kept []*state.Instance
		for ii, inst := range src.Instances {
			to := rew.InstanceAddr(rew.Instances[ii])
			from := src.InstanceAddr(inst)
			if dropped[to] {
				mp.Conflicts = append(mp.Conflicts, ConflictRow{From: from, To: to})
				kept = append(kept, inst)
				continue
			}
			mp.Moves = append(mp.Moves, Move{From: from, To: to})
		}

		// Overwritten destination instances are conflicts too, just ones
		// where the move went through.
		src.Instances = kept
		if len(kept) == 0 {
			remove[src] = true
		}
	}
	for _, c := range conflicts {
		if c.Overwrote {
			mp.Conflicts = append(mp.Conflicts, ConflictRow{From: c.Addr, To: c.Addr, Overwrote: true})
		}
	}

	if len(mp.Moves) > 0 {
		r.sourceChanged = true
		r.destChanged[m.Dir] = true
	}

	if len(remove) > 0 {
		filtered := r.source.Resources[:0]
		for _, res := range r.source.Resources {
			if !remove[res] {
				filtered = append(filtered, res)
			}
		}
		r.source.Resources = filtered
	}

	return mp, nil
}

// MarkDryReported finishes a dry run. No document was finalized, so pulled
// serials and lineages are untouched and a re-run reports identically.
func (r *Runner) MarkDryReported() {
	if r.runState == Planned {
		r.runState = DryReported
	}
}

// Apply pushes every changed destination first, in mapping order, and only
// after all of them are confirmed does it push the reduced source. Each
// written document gets serial+1 and its own unchanged lineage. A
// destination failure aborts before the source is touched; a source failure
// after the destinations is the terminal both-places state. Neither is ever
// retried.
func (r *Runner) Apply(ctx context.Context) error {
	if r.runState != Planned {
		return fmt.Errorf("apply: run is %s, want planned", r.runState)
	}
	r.runState = Applying

	var pushed []string
	for i, dir := range r.destOrder {
		if !r.destChanged[dir] {
			log.Debugf("destination %s unchanged; not pushing", dir)
			continue
		}

		doc := r.dests[dir]
		doc.Finalize()
		raw, err := doc.Bytes()
		if err == nil {
			err = r.backends[dir].Push(ctx, raw)
		}
		if err != nil {
			r.runState = Failed
			return &ApplyError{Dir: dir, Pushed: pushed, NotPushed: r.destOrder[i+1:], Err: err}
		}
		log.Infof("pushed %s (serial %d)", dir, doc.Serial)
		pushed = append(pushed, dir)
	}

	if r.sourceChanged {
		doc := r.source
		doc.Finalize()
		raw, err := doc.Bytes()
		if err == nil {
			err = r.backends[r.SourceDir].Push(ctx, raw)
		}
		if err != nil {
			r.runState = Failed
			return &ApplyError{Dir: r.SourceDir, Pushed: pushed, SourceFailed: true, Err: err}
		}
		log.Infof("pushed reduced source %s (serial %d)", r.SourceDir, doc.Serial)
	}

	r.runState = Applied
	return nil
}

func (r *Runner) backend(dir string) (Backend, error) {
	if be, ok := r.backends[dir]; ok {
		return be, nil
	}
	be, err := r.Factory(dir)
	if err != nil {
		return nil, fmt.Errorf("backend for %s: %w", dir, err)
	}
	r.backends[dir] = be
	return be, nil
}

func isBlank(raw []byte) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}
