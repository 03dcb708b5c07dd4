// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"fmt"

	"github.com/staranto/tfsplitgo/internal/addrs"
	"github.com/staranto/tfsplitgo/internal/state"
)

// ModuleNotFoundError reports a module address that selected nothing. A
// no-op split is almost always an operator mistake, so it is fatal for the
// run rather than a silent skip.
type ModuleNotFoundError struct {
	Module addrs.ModulePath
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module %s matches no resources in the source state", e.Module)
}

// Select returns the source entries whose module path equals target or sits
// anywhere below it. The returned pointers alias the document's own entries;
// callers relocate via Rewrite, which copies.
func Select(doc *state.Document, target addrs.ModulePath) ([]*state.Resource, error) {
	var selected []*state.Resource
	for _, r := range doc.Resources {
		p, err := r.Path()
		if err != nil {
			return nil, fmt.Errorf("bad module address on %s: %w", r.Addr(), err)
		}
		if p.HasPrefix(target) {
			selected = append(selected, r)
		}
	}

	if len(selected) == 0 {
		return nil, &ModuleNotFoundError{Module: target}
	}

	return selected, nil
}
