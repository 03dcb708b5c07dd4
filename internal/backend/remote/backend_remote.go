// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package remote pulls state from Terraform Cloud/Enterprise through the TFE
// API. It is deliberately read-only: uploading a state version through the
// API bypasses run and lock semantics, so writes go through the CLI instead.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/hashicorp/go-tfe"
)

// ErrReadOnly is returned by Push. The remote backend can only be a split
// source or a dry-run destination.
var ErrReadOnly = errors.New("the remote backend is read-only; push through the terraform CLI instead")

type BackendRemote struct {
	rootDir      string
	envOverride  string
	hostname     string
	organization string
	wsName       string
	wsPrefix     string
	token        string
}

// New builds a read-only TFE backend from discovered settings.
func New(dir, env string, config map[string]string) (*BackendRemote, error) {
	be := &BackendRemote{
		rootDir:      dir,
		envOverride:  env,
		hostname:     config["hostname"],
		organization: config["organization"],
		wsName:       config["workspaces.name"],
		wsPrefix:     config["workspaces.prefix"],
		token:        config["token"],
	}
	if be.hostname == "" {
		be.hostname = "app.terraform.io"
	}
	if be.organization == "" {
		return nil, fmt.Errorf("%s: remote backend config has no organization", dir)
	}
	return be, nil
}

func (be *BackendRemote) Dir() string { return be.rootDir }

func (be *BackendRemote) String() string {
	name, _ := be.workspaceName()
	return fmt.Sprintf("%s/%s/%s", be.hostname, be.organization, name)
}

// Pull downloads the workspace's current state version. A workspace with no
// state yet pulls empty.
func (be *BackendRemote) Pull(ctx context.Context) ([]byte, error) {
	client, err := be.client()
	if err != nil {
		return nil, err
	}

	wsName, err := be.workspaceName()
	if err != nil {
		return nil, err
	}

	ws, err := client.Workspaces.Read(ctx, be.organization, wsName)
	if err != nil {
		return nil, fmt.Errorf("read workspace %s/%s: %w", be.organization, wsName, err)
	}

	sv, err := client.StateVersions.ReadCurrent(ctx, ws.ID)
	if errors.Is(err, tfe.ErrResourceNotFound) {
		log.Debugf("workspace %s has no state version yet", wsName)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read current state version of %s: %w", wsName, err)
	}

	return client.StateVersions.Download(ctx, sv.DownloadURL)
}

func (be *BackendRemote) Push(_ context.Context, _ []byte) error {
	return fmt.Errorf("%s: %w", be.rootDir, ErrReadOnly)
}

func (be *BackendRemote) client() (*tfe.Client, error) {
	token, err := be.resolveToken()
	if err != nil {
		return nil, err
	}

	client, err := tfe.NewClient(&tfe.Config{
		Address: "https://" + be.hostname,
		Token:   token,
	})
	if err != nil {
		return nil, fmt.Errorf("create TFE client for %s: %w", be.hostname, err)
	}
	return client, nil
}

// resolveToken follows terraform's own precedence: TF_TOKEN_<hostname>,
// TF_TOKEN, the backend config, then the CLI credentials file.
func (be *BackendRemote) resolveToken() (string, error) {
	hostname := strings.ReplaceAll(be.hostname, ".", "_")
	if token := os.Getenv("TF_TOKEN_" + hostname); token != "" {
		return token, nil
	}
	if token := os.Getenv("TF_TOKEN"); token != "" {
		return token, nil
	}
	if be.token != "" {
		return be.token, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(home, ".terraform.d", "credentials.tfrc.json"))
	if err != nil {
		return "", fmt.Errorf("no TFE token found for %s: %w", be.hostname, err)
	}

	var creds struct {
		Credentials map[string]struct {
			Token string `json:"token"`
		} `json:"credentials"`
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("parse credentials file: %w", err)
	}

	if cred, ok := creds.Credentials[be.hostname]; ok && cred.Token != "" {
		return cred.Token, nil
	}
	return "", fmt.Errorf("no TFE token found for %s", be.hostname)
}

// workspaceName resolves a plain name, or prefix + environment for a
// multi-workspace setup. The environment comes from the dir@env override
// first, then .terraform/environment.
func (be *BackendRemote) workspaceName() (string, error) {
	if be.wsName != "" && be.wsPrefix != "" {
		return "", fmt.Errorf("%s: both workspace name and prefix are set", be.rootDir)
	}
	if be.wsName != "" {
		return be.wsName, nil
	}

	env := be.envOverride
	if env == "" {
		if data, err := os.ReadFile(filepath.Join(be.rootDir, ".terraform", "environment")); err == nil {
			env = string(bytes.TrimSpace(data))
		}
	}
	return be.wsPrefix + env, nil
}
