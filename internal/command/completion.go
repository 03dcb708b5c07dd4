// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/tfsplitgo/internal/meta"
)

const bashCompletionScript = `# bash completion for tfsplit
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_tfsplit()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "split pick completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
  local common="--color -c --output -o --titles -t --tldr --verbose"

    # Determine if an optional RootDir (first non-flag after subcommand) has already been provided
    local have_rootdir=0
    local idx=2
    while [[ $idx -lt ${#COMP_WORDS[@]} ]]; do
        local w=${COMP_WORDS[$idx]}
        if [[ $w != -* ]]; then
            have_rootdir=1
            break
        fi
        ((idx++))
    done

    case "$cmd" in
    split)
      local opts="$common --split -s --dry-run -n --overwrite --diff --yes -y --direct --tool"
            ;;
        pick)
      local opts="$common --apply --overwrite --yes -y --direct --tool"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

    if [[ "$prev" == "--direct" ]]; then
        COMPREPLY=( $(compgen -W "s3 remote" -- "$cur") )
        return 0
    fi

    if [[ "$prev" == "--tool" ]]; then
        COMPREPLY=( $(compgen -W "terraform tofu terragrunt" -- "$cur") )
        return 0
    fi

  # If current token starts with '-', or we've already consumed RootDir, offer flags
  if [[ "$cur" == -* || $have_rootdir -eq 1 ]]; then
    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
  fi

  # Otherwise, we're on the (optional) RootDir positional. Complete directories.
  COMPREPLY=( $(compgen -o dirnames -- "$cur") )
  return 0
}

complete -F _tfsplit tfsplit
`

const zshCompletionScript = `#compdef tfsplit

_tfsplit() {
  local -a cmds
  cmds=(
    'split:move module subtrees into other state documents'
    'pick:interactively pick module subtrees to split out'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--tldr[show tldr page]'
  '--verbose[debug-level logging]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'tfsplit commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    split)
      _arguments -C \
        $common \
        '*'{-s,--split}'[mapping module.path=dir\[:new.prefix\]]:mapping' \
        '(-n --dry-run)'{-n,--dry-run}'[report without writing]' \
        '--overwrite[replace conflicting destination instances]' \
        '--diff[show per-document diffs]' \
        '(-y --yes)'{-y,--yes}'[skip confirmation]' \
        '--direct[drive the backend directly]:backend:(s3 remote)' \
        '--tool[driving executable]:tool:(terraform tofu terragrunt)' \
        '::RootDir:_directories'
      ;;
    pick)
      _arguments -C \
        $common \
        '--apply[push the result]' \
        '--overwrite[replace conflicting destination instances]' \
        '(-y --yes)'{-y,--yes}'[skip confirmation]' \
        '--direct[drive the backend directly]:backend:(s3 remote)' \
        '--tool[driving executable]:tool:(terraform tofu terragrunt)' \
        '::RootDir:_directories'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common '*:directory:_directories'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _tfsplit tfsplit tfsplitgo
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(os.Stdout, bashCompletionScript)
	case "zsh":
		fmt.Fprint(os.Stdout, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(os.Stdout, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(os.Stdout, bashCompletionScript)
		} else {
			fmt.Fprintln(os.Stderr, "usage: tfsplit completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "tfsplit completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
