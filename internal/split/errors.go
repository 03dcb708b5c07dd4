// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package split

import (
	"fmt"
	"strings"
)

// ApplyError reports a failed apply phase. It always spells out exactly
// which directories were already written and which were not, because after a
// partial apply the operator has to reconcile by hand and must know where
// every resource currently lives.
type ApplyError struct {
	// Dir is the directory whose push failed.
	Dir string
	// Pushed are destinations confirmed written, in push order.
	Pushed []string
	// NotPushed are destinations never attempted or failed.
	NotPushed []string
	// SourceFailed marks the terminal inconsistency: every destination was
	// written but the reduced source was not.
	SourceFailed bool
	Err          error
}

func (e *ApplyError) Error() string {
	var b strings.Builder

	if e.SourceFailed {
		fmt.Fprintf(&b, "source push to %s failed after all destinations were written: %v. ", e.Dir, e.Err)
		b.WriteString("Moved resources now exist in BOTH the source and destination states; ")
		b.WriteString("remove them from the source by hand (terraform state rm) before planning anything. ")
		b.WriteString("This will not be retried automatically.")
		return b.String()
	}

	fmt.Fprintf(&b, "push to destination %s failed: %v. ", e.Dir, e.Err)
	if len(e.Pushed) > 0 {
		fmt.Fprintf(&b, "Already written: %s. ", strings.Join(e.Pushed, ", "))
		b.WriteString("The source was left untouched, so resources moved into those destinations are ")
		b.WriteString("currently duplicated (present in both states) pending manual reconciliation. ")
	} else {
		b.WriteString("Nothing was written; the source was left untouched. ")
	}
	if len(e.NotPushed) > 0 {
		fmt.Fprintf(&b, "Not written: %s.", strings.Join(e.NotPushed, ", "))
	}
	return strings.TrimSpace(b.String())
}

func (e *ApplyError) Unwrap() error { return e.Err }
