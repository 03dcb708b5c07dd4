// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/staranto/tfsplitgo/internal/config"
)

// Spit renders the report per the command's --output, --color and --titles
// flags.
func Spit(report Report, cmd *cli.Command, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	switch cmd.String("output") {
	case "json":
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}

	return textWriter(report, cmd, w)
}

func textWriter(report Report, cmd *cli.Command, w io.Writer) error {
	fmt.Fprintf(w, "%s %s: %s instance(s) to move, %s conflict(s)\n",
		report.Mode, report.Source,
		humanize.Comma(int64(report.Moves)), humanize.Comma(int64(report.Conflicts)))
	fmt.Fprintf(w, "source holds %s instance(s) before, %s after\n",
		humanize.Comma(int64(report.SourceBefore)), humanize.Comma(int64(report.SourceAfter)))

	if len(report.Rows) > 0 {
		fmt.Fprintln(w, rowTable(report.Rows, cmd))
	}

	if len(report.Dangling) > 0 {
		fmt.Fprintln(w, "dangling references left behind in the source:")
		for _, d := range report.Dangling {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}

	return nil
}

func rowTable(rows []Row, cmd *cli.Command) *table.Table {
	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if cmd.Bool("color") {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	var cells [][]string
	for _, row := range rows {
		cells = append(cells, []string{row.Action, row.Destination, row.From, row.To})
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			pad, _ := config.GetInt("padding", 2)
			log.Debugf("padding: %v", pad)

			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Rows(cells...)

	if cmd.Bool("titles") {
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers("action", "destination", "from", "to").BorderHeader(false)
	}

	return t
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}
