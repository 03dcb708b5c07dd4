// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package addrs

import (
	"fmt"
	"strings"
)

// ModulePath locates a resource within the module tree. Each element is one
// module-call name, so module.networking.module.vpc becomes
// ["networking", "vpc"]. An empty path is the root module.
type ModulePath []string

// ParseModulePath parses a module address such as "module.a.module.b". The
// bare shorthand "a.b" is accepted as well since that's what operators tend
// to type.
func ParseModulePath(spec string) (ModulePath, error) {
	if spec == "" {
		return nil, nil
	}

	parts := strings.Split(spec, ".")

	// Canonical form: alternating "module"/<name> pairs.
	if parts[0] == "module" {
		if len(parts)%2 != 0 {
			return nil, fmt.Errorf("invalid module address %q", spec)
		}
		path := make(ModulePath, 0, len(parts)/2)
		for i := 0; i < len(parts); i += 2 {
			if parts[i] != "module" || parts[i+1] == "" {
				return nil, fmt.Errorf("invalid module address %q", spec)
			}
			path = append(path, parts[i+1])
		}
		return path, nil
	}

	// Shorthand: every segment is a module name.
	path := make(ModulePath, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid module address %q", spec)
		}
		path = append(path, p)
	}
	return path, nil
}

// String renders the canonical module address, or "" for the root module.
func (p ModulePath) String() string {
	if len(p) == 0 {
		return ""
	}
	parts := make([]string, 0, len(p)*2)
	for _, name := range p {
		parts = append(parts, "module", name)
	}
	return strings.Join(parts, ".")
}

// IsRoot reports whether the path addresses the root module.
func (p ModulePath) IsRoot() bool {
	return len(p) == 0
}

// HasPrefix reports whether target is a component-wise prefix of p. A
// resource in module.networking.module.vpc therefore matches a request for
// module.networking, but module.net never matches module.networking.
func (p ModulePath) HasPrefix(target ModulePath) bool {
	if len(target) > len(p) {
		return false
	}
	for i := range target {
		if p[i] != target[i] {
			return false
		}
	}
	return true
}

// Rewrite replaces the leading target components of p with newPrefix,
// preserving whatever hangs below the matched prefix. The caller must have
// verified HasPrefix(target) first.
func (p ModulePath) Rewrite(target, newPrefix ModulePath) ModulePath {
	suffix := p[len(target):]
	out := make(ModulePath, 0, len(newPrefix)+len(suffix))
	out = append(out, newPrefix...)
	out = append(out, suffix...)
	return out
}

// Equal reports component-wise equality.
func (p ModulePath) Equal(other ModulePath) bool {
	return len(p) == len(other) && p.HasPrefix(other)
}
