// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverPeeksInitializedDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".terraform/terraform.tfstate", `{
	  "version": 3,
	  "backend": {
	    "type": "s3",
	    "config": {
	      "bucket": "states",
	      "key": "live/terraform.tfstate",
	      "region": "us-east-1",
	      "encrypt": true
	    }
	  }
	}`)

	s, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, "s3", s.Type)
	assert.Equal(t, "states", s.Config["bucket"])
	assert.Equal(t, "live/terraform.tfstate", s.Config["key"])
	assert.Equal(t, "us-east-1", s.Config["region"])
	_, ok := s.Config["encrypt"]
	assert.False(t, ok, "non-string config values are skipped")
}

func TestDiscoverParsesBackendBlock(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.tf", `
terraform {
  required_version = ">= 1.5"

  backend "s3" {
    bucket               = "states"
    key                  = "live/terraform.tfstate"
    region               = "us-east-1"
    workspace_key_prefix = "workspaces"
  }
}

resource "aws_vpc" "main" {
  cidr_block = "10.0.0.0/16"
}
`)

	s, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, "s3", s.Type)
	assert.Equal(t, "states", s.Config["bucket"])
	assert.Equal(t, "workspaces", s.Config["workspace_key_prefix"])
}

func TestDiscoverParsesRemoteWorkspaces(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "backend.tf", `
terraform {
  backend "remote" {
    hostname     = "app.terraform.io"
    organization = "acme"

    workspaces {
      prefix = "platform-"
    }
  }
}
`)

	s, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, "remote", s.Type)
	assert.Equal(t, "acme", s.Config["organization"])
	assert.Equal(t, "platform-", s.Config["workspaces.prefix"])
}

func TestDiscoverParsesCloudBlock(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.tf", `
terraform {
  cloud {
    organization = "acme"

    workspaces {
      name = "networking"
    }
  }
}
`)

	s, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, "cloud", s.Type)
	assert.Equal(t, "networking", s.Config["workspaces.name"])
}

func TestDiscoverSkipsNonLiteralValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.tf", `
terraform {
  backend "s3" {
    bucket = var.state_bucket
    key    = "live/terraform.tfstate"
  }
}
`)

	s, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, "live/terraform.tfstate", s.Config["key"])
	_, ok := s.Config["bucket"]
	assert.False(t, ok)
}

func TestDiscoverNothingConfigured(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.tf", `resource "null_resource" "x" {}`)

	_, err := Discover(dir)
	assert.Error(t, err)
}
