// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/tfsplitgo/internal/config"
	mylog "github.com/staranto/tfsplitgo/internal/log"
	"github.com/staranto/tfsplitgo/internal/meta"
	"github.com/staranto/tfsplitgo/internal/output"
	"github.com/staranto/tfsplitgo/internal/picker"
	"github.com/staranto/tfsplitgo/internal/split"
	"github.com/staranto/tfsplitgo/internal/state"
)

// PickCommandAction pulls the source document, lets the user pick module
// subtrees and destinations interactively, and then runs the same plan
// pipeline as split. Dry-run by default; --apply pushes.
func PickCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "pick") {
		return nil
	}
	if cmd.Bool("verbose") {
		mylog.Verbose()
	}

	config.Config.Namespace = "pick"

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("pick needs a terminal; use split --split for scripted runs")
	}

	factory := NewFactory(ctx, cmd, m)

	// One throwaway pull to drive the picker. The runner re-pulls through
	// the same backend so both see the same serial unless someone else is
	// writing concurrently, which apply's serial check would surface anyway.
	be, err := factory(m.RootDir)
	if err != nil {
		return err
	}
	raw, err := be.Pull(ctx)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("source %s has no state to split", m.RootDir)
	}
	doc, err := state.Read(raw)
	if err != nil {
		return fmt.Errorf("source %s: %w", m.RootDir, err)
	}

	mappings, err := picker.Run(doc)
	if err != nil {
		return err
	}

	runner, err := split.NewRunner(m.RootDir, mappings, cmd.Bool("overwrite"), factory)
	if err != nil {
		return err
	}
	if err := runner.Pull(ctx); err != nil {
		return err
	}

	plan, err := runner.Plan()
	if err != nil {
		return err
	}

	apply := cmd.Bool("apply")
	report := output.NewReport(m.RootDir, plan, !apply)
	if err := output.Spit(report, cmd, os.Stdout); err != nil {
		return err
	}

	if !apply {
		runner.MarkDryReported()
		log.Info("dry-run; rerun with --apply to push")
		return nil
	}

	if !cmd.Bool("yes") {
		prompt := fmt.Sprintf("Push %d document(s) and reduce %s?",
			len(runner.DestDirs())+1, m.RootDir)
		if !Confirm(prompt) {
			return fmt.Errorf("apply not confirmed")
		}
	}

	return runner.Apply(ctx)
}

// PickCommandBuilder constructs the cli.Command for "pick".
func PickCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "pick",
		Usage:     "interactively pick module subtrees to split out",
		UsageText: `tfsplit pick [RootDir[@env]] [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:  "apply",
				Usage: "push the result instead of reporting it",
				Value: false,
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "on instance conflicts, replace the destination's copy",
				Value: false,
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "skip the apply confirmation prompt",
				Value:   false,
			},
			NewDirectFlag("pick", meta.Config.Source),
			NewToolFlag("pick", meta.Config.Source),
			tldrFlag,
		}, NewGlobalFlags("pick")...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: PickCommandAction,
	}
}
