// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// setupTestConfig sets TFSPLIT_CFG to point to a test config file.
// Returns cleanup function that should be deferred.
func setupTestConfig(t *testing.T, testdataFile string) (cleanup func()) {
	t.Helper()

	configPath := filepath.Join("testdata", testdataFile)
	absPath, err := filepath.Abs(configPath)
	assert.NoError(t, err, "failed to get absolute path for test config")

	t.Setenv("TFSPLIT_CFG", absPath)

	// Reset the global Config to force reload
	Config = Type{}

	return func() {
		Config = Type{}
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		wantErr   bool
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			wantErr:  false,
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Contains(t, cfg.Data, "output")
				assert.Equal(t, "text", cfg.Data["output"])
				assert.Equal(t, "terraform", cfg.Data["tool"])
			},
		},
		{
			name:     "nested structure",
			testFile: "nested.yaml",
			wantErr:  false,
			checkFunc: func(t *testing.T, cfg Type) {
				split, ok := cfg.Data["split"].(map[string]interface{})
				assert.True(t, ok, "split should be a map")
				assert.Equal(t, true, split["dry-run"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestGetString(t *testing.T) {
	cleanup := setupTestConfig(t, "simple.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	got, err := GetString("output")
	assert.NoError(t, err)
	assert.Equal(t, "text", got)

	// Missing key with a default falls back.
	got, err = GetString("nope", "fallback")
	assert.NoError(t, err)
	assert.Equal(t, "fallback", got)

	// Missing key without a default errors.
	_, err = GetString("nope")
	assert.Error(t, err)
}

func TestGetStringNamespaced(t *testing.T) {
	cleanup := setupTestConfig(t, "nested.yaml")
	defer cleanup()

	_, err := Load("split")
	assert.NoError(t, err)

	// Namespaced key wins over the bare key.
	got, err := GetString("output")
	assert.NoError(t, err)
	assert.Equal(t, "json", got)
}

func TestGetBool(t *testing.T) {
	cleanup := setupTestConfig(t, "nested.yaml")
	defer cleanup()

	_, err := Load("split")
	assert.NoError(t, err)

	got, err := GetBool("dry-run")
	assert.NoError(t, err)
	assert.True(t, got)

	got, err = GetBool("nope", false)
	assert.NoError(t, err)
	assert.False(t, got)
}

func TestGetStringSlice(t *testing.T) {
	cleanup := setupTestConfig(t, "nested.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	got, err := GetStringSlice("split.defaults")
	assert.NoError(t, err)
	assert.Equal(t, []string{"--output text", "--dry-run"}, got)

	_, err = GetStringSlice("output")
	assert.Error(t, err, "scalar is not a list")
}
