// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"fmt"
	"strings"

	"github.com/staranto/tfsplitgo/internal/addrs"
)

// Mapping is one requested move: the module subtree to select, the
// destination directory, and the module prefix the subtree is rewritten to.
type Mapping struct {
	Module    addrs.ModulePath
	Dir       string
	NewPrefix addrs.ModulePath

	// prefixSet distinguishes "no prefix given" (keep the matched prefix)
	// from an explicit empty prefix (flatten into the destination root).
	prefixSet bool
}

// ParseMapping parses a --split value of the form
//
//	module.a=DIR           move, keeping the module.a prefix
//	module.a=DIR:          move, flattening into the destination root
//	module.a=DIR:module.b  move, renaming the prefix to module.b
func ParseMapping(spec string) (Mapping, error) {
	eq := strings.Index(spec, "=")
	if eq <= 0 {
		return Mapping{}, fmt.Errorf("invalid split mapping %q (want module=dir[:prefix])", spec)
	}

	module, err := addrs.ParseModulePath(spec[:eq])
	if err != nil {
		return Mapping{}, fmt.Errorf("invalid split mapping %q: %w", spec, err)
	}
	if module.IsRoot() {
		return Mapping{}, fmt.Errorf("invalid split mapping %q: module address is empty", spec)
	}

	rest := spec[eq+1:]
	m := Mapping{Module: module}

	if colon := strings.LastIndex(rest, ":"); colon >= 0 {
		m.Dir = rest[:colon]
		m.prefixSet = true
		m.NewPrefix, err = addrs.ParseModulePath(rest[colon+1:])
		if err != nil {
			return Mapping{}, fmt.Errorf("invalid split mapping %q: %w", spec, err)
		}
	} else {
		m.Dir = rest
	}

	if m.Dir == "" {
		return Mapping{}, fmt.Errorf("invalid split mapping %q: destination directory is empty", spec)
	}

	return m, nil
}

// Prefix resolves the effective new prefix: the explicit one when given,
// otherwise the matched module path itself (address-preserving move).
func (m Mapping) Prefix() addrs.ModulePath {
	if m.prefixSet {
		return m.NewPrefix
	}
	return m.Module
}

func (m Mapping) String() string {
	s := m.Module.String() + "=" + m.Dir
	if m.prefixSet {
		s += ":" + m.NewPrefix.String()
	}
	return s
}
