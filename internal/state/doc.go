// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package state models the Terraform state document just deeply enough to
// move resources between documents. Anything it doesn't understand (unknown
// top-level keys, resource keys, instance keys, the whole outputs object and
// every attribute bag) is carried through decode/encode verbatim.
package state
