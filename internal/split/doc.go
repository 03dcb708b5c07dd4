// Copyright (c) 2025 Steve Taranto staranto@gmail.com.
// SPDX-License-Identifier: Apache-2.0

// Package split implements the state transfer engine: selecting a module
// subtree out of a source document, relocating its module-path prefix,
// merging the result into destination documents with instance-level
// deduplication, and sequencing the pull/plan/push phases of a run.
package split
