// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"github.com/staranto/tfsplitgo/internal/split"
)

// Row is one instance-level outcome in the report.
type Row struct {
	Destination string `json:"destination" yaml:"destination"`
	From        string `json:"from" yaml:"from"`
	To          string `json:"to" yaml:"to"`
	// Action is "move", "keep" (conflict, destination kept its instance and
	// the source keeps this one) or "overwrite".
	Action string `json:"action" yaml:"action"`
}

// Report is the flattened, render-ready view of a plan.
type Report struct {
	Source       string   `json:"source" yaml:"source"`
	Mode         string   `json:"mode" yaml:"mode"`
	Moves        int      `json:"moves" yaml:"moves"`
	Conflicts    int      `json:"conflicts" yaml:"conflicts"`
	SourceBefore int      `json:"source_before" yaml:"source_before"`
	SourceAfter  int      `json:"source_after" yaml:"source_after"`
	Rows         []Row    `json:"rows" yaml:"rows"`
	Dangling     []string `json:"dangling,omitempty" yaml:"dangling,omitempty"`
}

// NewReport flattens a plan. Rows keep mapping order so the report reads in
// the same order the mappings were given.
func NewReport(sourceDir string, plan *split.Plan, dryRun bool) Report {
	r := Report{
		Source:       sourceDir,
		Mode:         "applied",
		Moves:        plan.MoveCount(),
		Conflicts:    plan.ConflictCount(),
		SourceBefore: plan.SourceBefore,
		SourceAfter:  plan.SourceAfter,
	}
	if dryRun {
		r.Mode = "dry-run"
	}

	for _, mp := range plan.Mappings {
		dir := mp.Mapping.Dir
		for _, m := range mp.Moves {
			r.Rows = append(r.Rows, Row{
				Destination: dir, From: m.From, To: m.To, Action: "move",
			})
		}
		for _, c := range mp.Conflicts {
			action := "keep"
			if c.Overwrote {
				action = "overwrite"
			}
			r.Rows = append(r.Rows, Row{
				Destination: dir, From: c.From, To: c.To, Action: action,
			})
		}
		r.Dangling = append(r.Dangling, mp.Dangling...)
	}

	return r
}
