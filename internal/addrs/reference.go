// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package addrs

import (
	"strings"
)

// Reference is a resource address as it appears in an instance's
// dependencies list: an optional module path followed by the resource part
// ("aws_vpc.main" or "data.aws_ami.base").
type Reference struct {
	Module   ModulePath
	Resource string
}

// ParseReference splits a dependency address into its module path and
// resource part. Leading module.<name> pairs are consumed greedily; whatever
// is left is the resource part, untouched.
func ParseReference(addr string) Reference {
	rest := addr
	var path ModulePath

	for strings.HasPrefix(rest, "module.") {
		trimmed := strings.TrimPrefix(rest, "module.")
		dot := strings.Index(trimmed, ".")
		if dot < 0 {
			// A bare trailing module.<name> is not a resource reference;
			// treat the whole remainder as the resource part.
			break
		}
		path = append(path, trimmed[:dot])
		rest = trimmed[dot+1:]
	}

	return Reference{Module: path, Resource: rest}
}

// String renders the reference back into a dependencies-style address.
func (r Reference) String() string {
	if r.Module.IsRoot() {
		return r.Resource
	}
	return r.Module.String() + "." + r.Resource
}

// RewriteReference relocates addr if its module path sits under target,
// substituting newPrefix. Addresses outside the target subtree are returned
// unchanged, moved reports whether a rewrite happened.
func RewriteReference(addr string, target, newPrefix ModulePath) (rewritten string, moved bool) {
	ref := ParseReference(addr)
	if !ref.Module.HasPrefix(target) {
		return addr, false
	}
	ref.Module = ref.Module.Rewrite(target, newPrefix)
	return ref.String(), true
}
