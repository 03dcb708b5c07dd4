// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/tfsplitgo/internal/config"
	"github.com/staranto/tfsplitgo/internal/differ"
	mylog "github.com/staranto/tfsplitgo/internal/log"
	"github.com/staranto/tfsplitgo/internal/meta"
	"github.com/staranto/tfsplitgo/internal/output"
	"github.com/staranto/tfsplitgo/internal/split"
)

// SplitCommandAction is the action handler for the "split" subcommand: pull
// the source and destination documents, plan every mapping in memory, then
// report (--dry-run) or confirm and push.
func SplitCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "split") {
		return nil
	}
	if cmd.Bool("verbose") {
		mylog.Verbose()
	}

	config.Config.Namespace = "split"

	mappings, err := parseMappings(cmd.StringSlice("split"))
	if err != nil {
		return err
	}

	runner, err := split.NewRunner(m.RootDir, mappings, cmd.Bool("overwrite"),
		NewFactory(ctx, cmd, m))
	if err != nil {
		return err
	}

	if err := runner.Pull(ctx); err != nil {
		return err
	}
	log.Infof("pulled %s (%s)", m.RootDir,
		humanize.Bytes(uint64(len(runner.PulledRaw(m.RootDir)))))

	plan, err := runner.Plan()
	if err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run")

	// raw dumps the planned source document and skips the report.
	if cmd.String("output") == "raw" {
		raw, err := runner.Source().Bytes()
		if err != nil {
			return err
		}
		os.Stdout.Write(raw)
		if dryRun {
			runner.MarkDryReported()
			return nil
		}
	} else {
		report := output.NewReport(m.RootDir, plan, dryRun)
		if err := output.Spit(report, cmd, os.Stdout); err != nil {
			return err
		}
	}

	if cmd.Bool("diff") {
		if err := spitDiffs(runner, cmd); err != nil {
			return err
		}
	}

	if dryRun {
		runner.MarkDryReported()
		return nil
	}

	if plan.MoveCount() == 0 {
		log.Info("nothing to move; no documents will be written")
		return nil
	}

	if !cmd.Bool("yes") {
		prompt := fmt.Sprintf("Push %d document(s) and reduce %s?",
			len(runner.DestDirs())+1, m.RootDir)
		if !Confirm(prompt) {
			return fmt.Errorf("apply not confirmed; rerun with --yes to skip the prompt")
		}
	}

	if err := runner.Apply(ctx); err != nil {
		return err
	}

	fmt.Printf("applied: %d instance(s) moved, %d conflict(s), source %d -> %d instance(s)\n",
		plan.MoveCount(), plan.ConflictCount(), plan.SourceBefore, plan.SourceAfter)
	return nil
}

func parseMappings(specs []string) ([]split.Mapping, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one --split mapping is required")
	}

	mappings := make([]split.Mapping, 0, len(specs))
	for _, spec := range specs {
		m, err := split.ParseMapping(spec)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// spitDiffs renders pulled-vs-planned diffs for every document the plan
// touched. Serial bumps happen at push time, so the diff shows resource
// movement only.
func spitDiffs(runner *split.Runner, cmd *cli.Command) error {
	dirs := append([]string{}, runner.DestDirs()...)

	for _, dir := range dirs {
		planned, err := runner.Dest(dir).Bytes()
		if err != nil {
			return err
		}
		if err := spitDiff(dir, runner.PulledRaw(dir), planned, cmd); err != nil {
			return err
		}
	}

	planned, err := runner.Source().Bytes()
	if err != nil {
		return err
	}
	return spitDiff(runner.SourceDir, runner.PulledRaw(runner.SourceDir), planned, cmd)
}

func spitDiff(dir string, before, after []byte, cmd *cli.Command) error {
	diff, err := differ.Diff(before, after, cmd.Bool("color"))
	if err != nil {
		return fmt.Errorf("diff %s: %w", dir, err)
	}
	if diff == "" {
		return nil
	}
	fmt.Printf("--- %s\n%s\n", dir, diff)
	return nil
}

// SplitCommandBuilder constructs the cli.Command for "split", wiring
// metadata, flags, and action/validator handlers.
func SplitCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "split",
		Usage:     "move module subtrees into other state documents",
		UsageText: `tfsplit split [RootDir[@env]] --split module.a=dir[:new.prefix] [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:    "split",
				Aliases: []string{"s"},
				Usage:   "mapping module.path=dir[:new.prefix]; repeatable",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "report the plan without writing anything",
				Value:   false,
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "on instance conflicts, replace the destination's copy",
				Value: false,
			},
			&cli.BoolFlag{
				Name:  "diff",
				Usage: "show pulled-vs-planned diffs per document",
				Value: false,
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "skip the apply confirmation prompt",
				Value:   false,
			},
			NewDirectFlag("split", meta.Config.Source),
			NewToolFlag("split", meta.Config.Source),
			tldrFlag,
		}, NewGlobalFlags("split")...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: SplitCommandAction,
	}
}
