// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package util holds small helpers shared by main and the command layer.
package util

import (
	"fmt"
	"os"
	"strings"
)

// ParseRootDir parses a RootDir argument of the form dir or dir@env and
// verifies the directory exists. The env suffix selects a Terraform
// workspace/environment override.
func ParseRootDir(spec string) (string, string, error) {
	dir := spec
	env := ""

	if at := strings.LastIndex(spec, "@"); at > 0 {
		dir = spec[:at]
		env = spec[at+1:]
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return "", "", fmt.Errorf("not a directory: %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return "", "", fmt.Errorf("not a directory: %s", dir)
	}

	return dir, env, nil
}
