// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"github.com/apex/log"

	"github.com/staranto/tfsplitgo/internal/addrs"
	"github.com/staranto/tfsplitgo/internal/state"
)

// Rewrite produces a relocated deep copy of a selected entry: the matched
// target prefix of its module path is replaced with newPrefix and the
// remainder below it preserved.
//
// Dependency addresses that themselves sit under target (meaning they are
// moving in the same operation) are rewritten with the identical
// substitution so intra-module references stay consistent. Dependencies
// pointing outside the selection are left as-is; after the move they may
// dangle across documents, which is reported, not repaired.
func Rewrite(r *state.Resource, target, newPrefix addrs.ModulePath) (*state.Resource, error) {
	p, err := r.Path()
	if err != nil {
		return nil, err
	}

	out := r.Copy()
	out.SetPath(p.Rewrite(target, newPrefix))

	for _, inst := range out.Instances {
		for di, dep := range inst.Dependencies {
			rewritten, moved := addrs.RewriteReference(dep, target, newPrefix)
			if moved {
				inst.Dependencies[di] = rewritten
			} else {
				log.Debugf("dependency %s of %s stays behind; reference may dangle after the move",
					dep, out.Addr())
			}
		}
	}

	return out, nil
}

// DanglingDeps lists the dependency addresses of a selected (not yet
// rewritten) entry that point outside the moved subtree. Used for the
// dry-run report.
func DanglingDeps(r *state.Resource, target addrs.ModulePath) []string {
	var dangling []string
	for _, inst := range r.Instances {
		for _, dep := range inst.Dependencies {
			ref := addrs.ParseReference(dep)
			if !ref.Module.HasPrefix(target) {
				dangling = append(dangling, dep)
			}
		}
	}
	return dangling
}
