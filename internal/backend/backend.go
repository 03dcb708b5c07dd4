// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"fmt"

	"github.com/apex/log"

	"github.com/staranto/tfsplitgo/internal/backend/remote"
	"github.com/staranto/tfsplitgo/internal/backend/s3"
	"github.com/staranto/tfsplitgo/internal/backend/shell"
)

// Backend pulls and pushes the raw state document of one directory.
type Backend interface {
	Pull(ctx context.Context) ([]byte, error)
	Push(ctx context.Context, doc []byte) error
	Dir() string
	String() string
}

// New builds the backend for a directory. mode is one of
//
//	auto    shell out to terraform/terragrunt (the safe default; the CLI
//	        does its own locking and auth)
//	shell   same, explicitly
//	s3      read and write the state object in S3 directly
//	remote  pull from Terraform Cloud/Enterprise directly (read-only)
//
// env is a workspace override carried from a dir@env spec.
func New(ctx context.Context, dir, env, mode string) (Backend, error) {
	switch mode {
	case "", "auto", "shell":
		return shell.New(dir, shell.WithEnv(env))

	case "s3":
		s, err := Discover(dir)
		if err != nil {
			return nil, err
		}
		if s.Type != "s3" {
			return nil, fmt.Errorf("%s: backend is %q, not s3", dir, s.Type)
		}
		return s3.New(ctx, dir, env, s.Config)

	case "remote":
		s, err := Discover(dir)
		if err != nil {
			return nil, err
		}
		if s.Type != "remote" && s.Type != "cloud" {
			return nil, fmt.Errorf("%s: backend is %q, not remote or cloud", dir, s.Type)
		}
		log.Debugf("%s: driving %s backend through the TFE API", dir, s.Type)
		return remote.New(dir, env, s.Config)
	}

	return nil, fmt.Errorf("unknown backend mode %q", mode)
}
