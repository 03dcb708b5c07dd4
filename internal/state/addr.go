// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"sort"

	"github.com/staranto/tfsplitgo/internal/addrs"
)

// Path parses the entry's module address. A malformed module string in a
// document that otherwise decoded is unexpected, so errors surface rather
// than being swallowed.
func (r *Resource) Path() (addrs.ModulePath, error) {
	return addrs.ParseModulePath(r.Module)
}

// SetPath rewrites the entry's module address.
func (r *Resource) SetPath(p addrs.ModulePath) {
	r.Module = p.String()
}

// Addr renders the entry's resource address, e.g.
// module.networking.aws_vpc.main or data.aws_ami.base.
func (r *Resource) Addr() string {
	addr := r.Type + "." + r.Name
	if r.Mode == "data" {
		addr = "data." + addr
	}
	if r.Module != "" {
		addr = r.Module + "." + addr
	}
	return addr
}

// InstanceAddr renders the address of one instance, including its index.
func (r *Resource) InstanceAddr(i *Instance) string {
	return r.Addr() + i.IndexKeyString()
}

// ModulePaths returns the distinct non-root module addresses present in the
// document, sorted. This is what the interactive picker lists.
func (d *Document) ModulePaths() []string {
	seen := map[string]bool{}
	for _, r := range d.Resources {
		if r.Module != "" {
			seen[r.Module] = true
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// InstanceCount totals instances across all entries.
func (d *Document) InstanceCount() int {
	n := 0
	for _, r := range d.Resources {
		n += len(r.Instances)
	}
	return n
}
