// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/tfsplitgo/internal/addrs"
)

func TestParseMapping(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
		check   func(*testing.T, Mapping)
	}{
		{
			name: "plain move keeps prefix",
			spec: "module.networking=../networking",
			check: func(t *testing.T, m Mapping) {
				assert.Equal(t, addrs.ModulePath{"networking"}, m.Module)
				assert.Equal(t, "../networking", m.Dir)
				assert.Equal(t, addrs.ModulePath{"networking"}, m.Prefix())
			},
		},
		{
			name: "explicit empty prefix flattens",
			spec: "module.networking=../networking:",
			check: func(t *testing.T, m Mapping) {
				assert.Equal(t, "../networking", m.Dir)
				assert.True(t, m.Prefix().IsRoot())
			},
		},
		{
			name: "rename prefix",
			spec: "module.networking=../net:module.core.module.net",
			check: func(t *testing.T, m Mapping) {
				assert.Equal(t, addrs.ModulePath{"core", "net"}, m.Prefix())
			},
		},
		{name: "no equals", spec: "module.networking", wantErr: true},
		{name: "empty module", spec: "=../networking", wantErr: true},
		{name: "empty dir", spec: "module.networking=", wantErr: true},
		{name: "bad module address", spec: "module.=../networking", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMapping(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, m)
		})
	}
}

func TestMappingString(t *testing.T) {
	m, err := ParseMapping("module.networking=../net:module.core")
	require.NoError(t, err)
	assert.Equal(t, "module.networking=../net:module.core", m.String())

	m, err = ParseMapping("module.networking=../net")
	require.NoError(t, err)
	assert.Equal(t, "module.networking=../net", m.String())
}
