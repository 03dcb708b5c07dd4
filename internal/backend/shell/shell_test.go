// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package shell

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectTool(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "terraform", DetectTool(dir))

	err := os.WriteFile(filepath.Join(dir, "terragrunt.hcl"), []byte("{}"), 0o644)
	assert.NoError(t, err)
	assert.Equal(t, "terragrunt", DetectTool(dir))
}

func TestNewRejectsMissingTool(t *testing.T) {
	_, err := New(t.TempDir(), WithTool("definitely-not-a-real-binary"))
	assert.Error(t, err)
}

func TestExitError(t *testing.T) {
	inner := errors.New("exit status 1")
	err := &ExitError{
		Dir:    "live",
		Op:     "terraform state push -",
		Stderr: "Error: state snapshot was created by Terraform v1.9.0\n",
		Err:    inner,
	}

	assert.Contains(t, err.Error(), "live")
	assert.Contains(t, err.Error(), "state snapshot")
	assert.ErrorIs(t, err, inner)
}
