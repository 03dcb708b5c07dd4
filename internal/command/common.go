// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/tfsplitgo/internal/backend"
	"github.com/staranto/tfsplitgo/internal/backend/shell"
	"github.com/staranto/tfsplitgo/internal/meta"
	"github.com/staranto/tfsplitgo/internal/split"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr tfsplit <subcmd>` and returns true so the caller can exit
// early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "tfsplit", subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// NewFactory builds the backend factory the runner uses, honoring --direct
// and --tool. The dir@env workspace override applies to the source
// directory only; destinations use whatever their own directory selects.
func NewFactory(ctx context.Context, cmd *cli.Command, m meta.Meta) split.Factory {
	return func(dir string) (split.Backend, error) {
		env := ""
		if dir == m.RootDir {
			env = m.Env
		}

		if mode := cmd.String("direct"); mode != "" {
			return backend.New(ctx, dir, env, mode)
		}
		if tool := cmd.String("tool"); tool != "" {
			return shell.New(dir, shell.WithEnv(env), shell.WithTool(tool))
		}
		return backend.New(ctx, dir, env, "auto")
	}
}

// Confirm prompts on the terminal before a destructive step. Without a TTY
// there is nobody to ask, so the answer is no; --yes is the non-interactive
// path.
func Confirm(prompt string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		log.Debug("stdin is not a terminal; refusing to apply without --yes")
		return false
	}

	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
