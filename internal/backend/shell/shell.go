// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package shell drives state pull/push through the terraform or terragrunt
// CLI. Running the real tool means backend auth, locking and workspace
// selection behave exactly as they do for a plan.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/apex/log"
)

// ExitError wraps a tool invocation that exited non-zero, keeping its
// stderr. Terraform writes the actual reason (lock held, auth failure,
// serial mismatch) there, so it belongs in the message.
type ExitError struct {
	Dir    string
	Op     string
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s in %s: %v", e.Op, e.Dir, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\n" + s
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// Shell is the CLI-driven backend for one directory.
type Shell struct {
	dir  string
	env  string
	tool string
}

type Option func(*Shell)

// WithEnv selects a workspace via TF_WORKSPACE for every invocation.
func WithEnv(env string) Option {
	return func(s *Shell) { s.env = env }
}

// WithTool overrides tool detection ("terraform", "tofu", "terragrunt").
func WithTool(tool string) Option {
	return func(s *Shell) { s.tool = tool }
}

func New(dir string, opts ...Option) (*Shell, error) {
	s := &Shell{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	if s.tool == "" {
		s.tool = DetectTool(dir)
	}
	if _, err := exec.LookPath(s.tool); err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return s, nil
}

// DetectTool picks the driver for a directory: terragrunt when its config
// file is present, terraform otherwise.
func DetectTool(dir string) string {
	for _, name := range []string{"terragrunt.hcl", "terragrunt.hcl.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return "terragrunt"
		}
	}
	return "terraform"
}

func (s *Shell) Dir() string { return s.dir }

func (s *Shell) String() string {
	return fmt.Sprintf("%s:%s", s.tool, s.dir)
}

// Pull runs `<tool> state pull`. An empty document on a clean exit is a
// backend with no state yet, which callers treat as such.
func (s *Shell) Pull(ctx context.Context) ([]byte, error) {
	out, err := s.run(ctx, nil, "state", "pull")
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Push runs `<tool> state push -` with the document on stdin. The tool's
// own lineage and serial checks still apply on top of ours.
func (s *Shell) Push(ctx context.Context, doc []byte) error {
	_, err := s.run(ctx, doc, "state", "push", "-")
	return err
}

func (s *Shell) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.tool, args...)
	cmd.Dir = s.dir
	cmd.Env = os.Environ()
	if s.env != "" {
		cmd.Env = append(cmd.Env, "TF_WORKSPACE="+s.env)
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugf("exec %s %s (dir=%s env=%s)", s.tool, strings.Join(args, " "), s.dir, s.env)
	if err := cmd.Run(); err != nil {
		return nil, &ExitError{
			Dir:    s.dir,
			Op:     s.tool + " " + strings.Join(args, " "),
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return stdout.Bytes(), nil
}
