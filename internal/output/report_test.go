// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/staranto/tfsplitgo/internal/split"
)

func samplePlan(t *testing.T) *split.Plan {
	t.Helper()
	m, err := split.ParseMapping("module.networking=net:")
	require.NoError(t, err)

	return &split.Plan{
		Mappings: []split.MappingPlan{{
			Mapping: m,
			Moves: []split.Move{
				{From: "module.networking.aws_subnet.a[0]", To: "aws_subnet.a[0]"},
			},
			Conflicts: []split.ConflictRow{
				{From: "module.networking.aws_vpc.main", To: "aws_vpc.main"},
			},
			Dangling: []string{"module.database.aws_db_instance.main"},
		}},
		SourceBefore: 3,
		SourceAfter:  2,
	}
}

func TestNewReport(t *testing.T) {
	r := NewReport("live", samplePlan(t), true)

	assert.Equal(t, "dry-run", r.Mode)
	assert.Equal(t, "live", r.Source)
	assert.Equal(t, 1, r.Moves)
	assert.Equal(t, 1, r.Conflicts)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, Row{
		Destination: "net",
		From:        "module.networking.aws_subnet.a[0]",
		To:          "aws_subnet.a[0]",
		Action:      "move",
	}, r.Rows[0])
	assert.Equal(t, "keep", r.Rows[1].Action)
	assert.Equal(t, []string{"module.database.aws_db_instance.main"}, r.Dangling)
}

func spitWith(t *testing.T, report Report, args ...string) string {
	t.Helper()
	var buf bytes.Buffer

	cmd := &cli.Command{
		Name: "report",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Value: "text"},
			&cli.BoolFlag{Name: "color"},
			&cli.BoolFlag{Name: "titles"},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			return Spit(report, c, &buf)
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"report"}, args...)))
	return buf.String()
}

func TestSpitJSON(t *testing.T) {
	report := NewReport("live", samplePlan(t), true)
	out := spitWith(t, report, "--output", "json")

	var parsed Report
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, report, parsed)
}

func TestSpitYAML(t *testing.T) {
	report := NewReport("live", samplePlan(t), false)
	out := spitWith(t, report, "--output", "yaml")

	assert.Contains(t, out, "mode: applied")
	assert.Contains(t, out, "destination: net")
}

func TestSpitText(t *testing.T) {
	report := NewReport("live", samplePlan(t), true)
	out := spitWith(t, report, "--titles")

	assert.Contains(t, out, "dry-run live")
	assert.Contains(t, out, "aws_subnet.a[0]")
	assert.Contains(t, out, "dangling references")
}
