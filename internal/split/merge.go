// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"github.com/apex/log"

	"github.com/staranto/tfsplitgo/internal/state"
)

// Conflict records an instance-level key collision during a merge. It is a
// reportable fact, not an error: the run continues and the overwrite policy
// decides which side survives.
type Conflict struct {
	// Addr is the destination-side instance address that collided.
	Addr string
	// Overwrote is true when the incoming instance replaced the
	// destination's; false means the destination kept its instance and the
	// incoming one was dropped (and stays behind in the source).
	Overwrote bool
}

// entryKey is the deduplication key for whole entries.
type entryKey struct {
	module, mode, typ, name string
}

func keyOf(r *state.Resource) entryKey {
	return entryKey{module: r.Module, mode: r.Mode, typ: r.Type, name: r.Name}
}

// Merge combines incoming (already rewritten, already copied) entries into
// dst. Entries with a new (module_path, mode, type, name) key are appended
// whole. For keys that already exist, instances merge by index: new indexes
// append, colliding indexes follow the overwrite policy. With
// overwrite=false the destination's live instance always survives; a merge
// never silently discards destination state.
//
// The merge is deterministic: entries and instances land in their incoming
// order, appended after whatever the destination already held.
func Merge(dst *state.Document, incoming []*state.Resource, overwrite bool) []Conflict {
	existing := make(map[entryKey]*state.Resource, len(dst.Resources))
	for _, r := range dst.Resources {
		existing[keyOf(r)] = r
	}

	var conflicts []Conflict

	for _, in := range incoming {
		have, ok := existing[keyOf(in)]
		if !ok {
			dst.Resources = append(dst.Resources, in)
			existing[keyOf(in)] = in
			continue
		}

		for _, inst := range in.Instances {
			slot := findInstance(have, inst.IndexKeyString())
			if slot < 0 {
				have.Instances = append(have.Instances, inst)
				continue
			}

			conflicts = append(conflicts, Conflict{
				Addr:      in.InstanceAddr(inst),
				Overwrote: overwrite,
			})
			if overwrite {
				have.Instances[slot] = inst
			} else {
				log.Debugf("keeping destination instance %s; incoming dropped", in.InstanceAddr(inst))
			}
		}
	}

	return conflicts
}

func findInstance(r *state.Resource, indexKey string) int {
	for i, inst := range r.Instances {
		if inst.IndexKeyString() == indexKey {
			return i
		}
	}
	return -1
}
