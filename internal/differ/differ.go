// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package differ renders the difference between a pulled state document and
// the document a dry run would write.
package differ

import (
	"encoding/json"
	"fmt"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// Diff compares two state documents and renders an ascii diff anchored on
// before. An empty before (a destination being bootstrapped) diffs against
// an empty object. Returns "" when the documents are equivalent.
func Diff(before, after []byte, coloring bool) (string, error) {
	if len(before) == 0 {
		before = []byte("{}")
	}

	d, err := gojsondiff.New().Compare(before, after)
	if err != nil {
		return "", fmt.Errorf("compare documents: %w", err)
	}
	if !d.Modified() {
		return "", nil
	}

	var left map[string]interface{}
	if err := json.Unmarshal(before, &left); err != nil {
		return "", fmt.Errorf("decode document: %w", err)
	}

	f := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       coloring,
	})
	return f.Format(d)
}
