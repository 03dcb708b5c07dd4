// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/tfsplitgo/internal/addrs"
	"github.com/staranto/tfsplitgo/internal/state"
)

const selectFixture = `{
  "version": 4,
  "terraform_version": "1.7.5",
  "serial": 5,
  "lineage": "src-lineage",
  "resources": [
    {
      "module": "module.networking",
      "mode": "managed", "type": "aws_vpc", "name": "main",
      "instances": [{
        "attributes": {"id": "vpc-1", "cidr_block": "10.0.0.0/16"},
        "dependencies": ["module.networking.module.vpc.aws_subnet.a", "module.database.aws_db_instance.main"]
      }]
    },
    {
      "module": "module.networking.module.vpc",
      "mode": "managed", "type": "aws_subnet", "name": "a", "each": "list",
      "instances": [{"index_key": 0, "attributes": {"id": "subnet-0"}}]
    },
    {
      "module": "module.database",
      "mode": "managed", "type": "aws_db_instance", "name": "main",
      "instances": [{"attributes": {"id": "db-1"}}]
    },
    {
      "mode": "managed", "type": "aws_iam_role", "name": "root_role",
      "instances": [{"attributes": {"id": "role-1"}}]
    }
  ]
}`

func mustDoc(t *testing.T, src string) *state.Document {
	t.Helper()
	doc, err := state.Read([]byte(src))
	require.NoError(t, err)
	return doc
}

func TestSelectSubtree(t *testing.T) {
	doc := mustDoc(t, selectFixture)

	selected, err := Select(doc, addrs.ModulePath{"networking"})
	require.NoError(t, err)
	require.Len(t, selected, 2, "selects the module and its descendants")
	assert.Equal(t, "aws_vpc", selected[0].Type)
	assert.Equal(t, "aws_subnet", selected[1].Type)
}

func TestSelectExactOnly(t *testing.T) {
	doc := mustDoc(t, selectFixture)

	selected, err := Select(doc, addrs.ModulePath{"networking", "vpc"})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "aws_subnet", selected[0].Type)
}

func TestSelectRootNeverMatchesNamedModule(t *testing.T) {
	doc := mustDoc(t, selectFixture)

	selected, err := Select(doc, addrs.ModulePath{"networking"})
	require.NoError(t, err)
	for _, r := range selected {
		assert.NotEqual(t, "aws_iam_role", r.Type, "root resources must not be selected")
	}
}

func TestSelectNothingIsAnError(t *testing.T) {
	doc := mustDoc(t, selectFixture)

	_, err := Select(doc, addrs.ModulePath{"nonexistent"})
	require.Error(t, err)
	var nf *ModuleNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, addrs.ModulePath{"nonexistent"}, nf.Module)
}

func TestRewriteEntry(t *testing.T) {
	doc := mustDoc(t, selectFixture)
	target := addrs.ModulePath{"networking"}

	vpc := doc.Resources[0]
	rew, err := Rewrite(vpc, target, nil)
	require.NoError(t, err)

	// Flattened into the destination root.
	assert.Equal(t, "", rew.Module)
	assert.Equal(t, "aws_vpc.main", rew.Addr())

	// The co-moving dependency is rewritten, the external one is not.
	deps := rew.Instances[0].Dependencies
	assert.Equal(t, "module.vpc.aws_subnet.a", deps[0])
	assert.Equal(t, "module.database.aws_db_instance.main", deps[1])

	// The original entry is untouched.
	assert.Equal(t, "module.networking", vpc.Module)
	assert.Equal(t, "module.networking.module.vpc.aws_subnet.a", vpc.Instances[0].Dependencies[0])
}

func TestRewriteEntryRename(t *testing.T) {
	doc := mustDoc(t, selectFixture)
	target := addrs.ModulePath{"networking"}

	sub := doc.Resources[1]
	rew, err := Rewrite(sub, target, addrs.ModulePath{"core", "net"})
	require.NoError(t, err)
	assert.Equal(t, "module.core.module.net.module.vpc", rew.Module)
}

func TestDanglingDeps(t *testing.T) {
	doc := mustDoc(t, selectFixture)

	dangling := DanglingDeps(doc.Resources[0], addrs.ModulePath{"networking"})
	assert.Equal(t, []string{"module.database.aws_db_instance.main"}, dangling)
}
