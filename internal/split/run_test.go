// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package split

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/tfsplitgo/internal/state"
)

// fakeStore is the shared world behind the per-directory fake backends.
type fakeStore struct {
	docs     map[string][]byte
	pushes   []string
	pulls    map[string]int
	failPull map[string]error
	failPush map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:     map[string][]byte{},
		pulls:    map[string]int{},
		failPull: map[string]error{},
		failPush: map[string]error{},
	}
}

func (s *fakeStore) factory(dir string) (Backend, error) {
	return &fakeBackend{dir: dir, store: s}, nil
}

func (s *fakeStore) doc(t *testing.T, dir string) *state.Document {
	t.Helper()
	raw, ok := s.docs[dir]
	require.True(t, ok, "no document stored for %s", dir)
	doc, err := state.Read(raw)
	require.NoError(t, err)
	return doc
}

type fakeBackend struct {
	dir   string
	store *fakeStore
}

func (b *fakeBackend) Dir() string { return b.dir }

func (b *fakeBackend) Pull(_ context.Context) ([]byte, error) {
	b.store.pulls[b.dir]++
	if err := b.store.failPull[b.dir]; err != nil {
		return nil, err
	}
	return b.store.docs[b.dir], nil
}

func (b *fakeBackend) Push(_ context.Context, doc []byte) error {
	if err := b.store.failPush[b.dir]; err != nil {
		return err
	}
	b.store.docs[b.dir] = doc
	b.store.pushes = append(b.store.pushes, b.dir)
	return nil
}

const runSourceFixture = `{
  "version": 4,
  "terraform_version": "1.7.5",
  "serial": 7,
  "lineage": "src-lineage",
  "resources": [
    {
      "module": "module.networking",
      "mode": "managed", "type": "aws_vpc", "name": "main",
      "instances": [{
        "attributes": {"id": "vpc-1", "cidr_block": "10.0.0.0/16"},
        "dependencies": ["module.networking.aws_subnet.a"]
      }]
    },
    {
      "module": "module.networking",
      "mode": "managed", "type": "aws_subnet", "name": "a", "each": "list",
      "instances": [{"index_key": 0, "attributes": {"id": "subnet-0"}}]
    },
    {
      "module": "module.database",
      "mode": "managed", "type": "aws_db_instance", "name": "main",
      "instances": [{"attributes": {"id": "db-1"}}]
    }
  ]
}`

func mustMapping(t *testing.T, spec string) Mapping {
	t.Helper()
	m, err := ParseMapping(spec)
	require.NoError(t, err)
	return m
}

func newTestRunner(t *testing.T, store *fakeStore, specs ...string) *Runner {
	t.Helper()
	mappings := make([]Mapping, 0, len(specs))
	for _, s := range specs {
		mappings = append(mappings, mustMapping(t, s))
	}
	r, err := NewRunner("live", mappings, false, store.factory)
	require.NoError(t, err)
	return r
}

func TestRunnerValidation(t *testing.T) {
	store := newFakeStore()

	_, err := NewRunner("live", nil, false, store.factory)
	assert.Error(t, err)

	_, err = NewRunner("live", []Mapping{mustMapping(t, "module.networking=live")}, false, store.factory)
	assert.Error(t, err, "destination must differ from the source directory")
}

func TestRunFlattenIntoEmptyDestination(t *testing.T) {
	store := newFakeStore()
	store.docs["live"] = []byte(runSourceFixture)

	r := newTestRunner(t, store, "module.networking=net:")
	ctx := context.Background()

	require.NoError(t, r.Pull(ctx))
	plan, err := r.Plan()
	require.NoError(t, err)

	assert.Equal(t, 2, plan.MoveCount())
	assert.Equal(t, 0, plan.ConflictCount())
	assert.Equal(t, 3, plan.SourceBefore)
	assert.Equal(t, 1, plan.SourceAfter)
	assert.Equal(t, plan.SourceBefore, plan.SourceAfter+plan.MoveCount(),
		"every instance is accounted for")

	require.NoError(t, r.Apply(ctx))
	assert.Equal(t, Applied, r.State())

	// Destinations are written before the source.
	assert.Equal(t, []string{"net", "live"}, store.pushes)

	dest := store.doc(t, "net")
	require.Len(t, dest.Resources, 2)
	assert.Equal(t, "aws_vpc.main", dest.Resources[0].Addr())
	assert.Equal(t, "aws_subnet.a", dest.Resources[1].Addr())
	assert.Equal(t, []string{"aws_subnet.a"}, dest.Resources[0].Instances[0].Dependencies,
		"co-moving dependency rewritten along with the move")

	// Bootstrapped destination got serial 1 and a lineage of its own.
	assert.Equal(t, uint64(1), dest.Serial)
	assert.NotEmpty(t, dest.Lineage)
	assert.NotEqual(t, "src-lineage", dest.Lineage)

	src := store.doc(t, "live")
	require.Len(t, src.Resources, 1)
	assert.Equal(t, "module.database.aws_db_instance.main", src.Resources[0].Addr())
	assert.Equal(t, uint64(8), src.Serial)
	assert.Equal(t, "src-lineage", src.Lineage)
}

func TestRunDryMakesNoPushes(t *testing.T) {
	store := newFakeStore()
	store.docs["live"] = []byte(runSourceFixture)

	r := newTestRunner(t, store, "module.networking=net:")
	ctx := context.Background()

	require.NoError(t, r.Pull(ctx))
	_, err := r.Plan()
	require.NoError(t, err)
	r.MarkDryReported()

	assert.Equal(t, DryReported, r.State())
	assert.Empty(t, store.pushes)
	assert.Equal(t, []byte(runSourceFixture), store.docs["live"],
		"a dry run leaves the stored source byte-identical")
}

func TestRunPullsEachDirectoryOnce(t *testing.T) {
	store := newFakeStore()
	store.docs["live"] = []byte(runSourceFixture)

	r := newTestRunner(t, store,
		"module.networking=shared",
		"module.database=shared")
	require.NoError(t, r.Pull(context.Background()))

	assert.Equal(t, 1, store.pulls["live"])
	assert.Equal(t, 1, store.pulls["shared"])
}

func TestRunSharedDestination(t *testing.T) {
	store := newFakeStore()
	store.docs["live"] = []byte(runSourceFixture)

	r := newTestRunner(t, store,
		"module.networking=shared",
		"module.database=shared")
	ctx := context.Background()

	require.NoError(t, r.Pull(ctx))
	plan, err := r.Plan()
	require.NoError(t, err)
	assert.Equal(t, 3, plan.MoveCount())

	require.NoError(t, r.Apply(ctx))
	assert.Equal(t, []string{"shared", "live"}, store.pushes, "one push covers both mappings")

	dest := store.doc(t, "shared")
	assert.Len(t, dest.Resources, 3)
	assert.Equal(t, "module.networking.aws_vpc.main", dest.Resources[0].Addr())
	assert.Equal(t, "module.database.aws_db_instance.main", dest.Resources[2].Addr())

	src := store.doc(t, "live")
	assert.Empty(t, src.Resources)
}

func TestRunDestinationPushFailure(t *testing.T) {
	store := newFakeStore()
	store.docs["live"] = []byte(runSourceFixture)
	boom := errors.New("access denied")
	store.failPush["net"] = boom

	r := newTestRunner(t, store, "module.networking=net:")
	ctx := context.Background()

	require.NoError(t, r.Pull(ctx))
	_, err := r.Plan()
	require.NoError(t, err)

	err = r.Apply(ctx)
	require.Error(t, err)
	var ae *ApplyError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "net", ae.Dir)
	assert.False(t, ae.SourceFailed)
	assert.Empty(t, ae.Pushed)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Failed, r.State())

	// The source backend was never touched.
	assert.Empty(t, store.pushes)
	assert.Equal(t, []byte(runSourceFixture), store.docs["live"])
}

func TestRunSourcePushFailure(t *testing.T) {
	store := newFakeStore()
	store.docs["live"] = []byte(runSourceFixture)
	store.failPush["live"] = errors.New("lock timeout")

	r := newTestRunner(t, store, "module.networking=net:")
	ctx := context.Background()

	require.NoError(t, r.Pull(ctx))
	_, err := r.Plan()
	require.NoError(t, err)

	err = r.Apply(ctx)
	require.Error(t, err)
	var ae *ApplyError
	require.ErrorAs(t, err, &ae)
	assert.True(t, ae.SourceFailed)
	assert.Equal(t, "live", ae.Dir)
	assert.Equal(t, []string{"net"}, ae.Pushed)
	assert.Contains(t, ae.Error(), "BOTH")

	// The destination write stands; only the source reduction is missing.
	dest := store.doc(t, "net")
	assert.Len(t, dest.Resources, 2)
}

func TestRunModuleNotFound(t *testing.T) {
	store := newFakeStore()
	store.docs["live"] = []byte(runSourceFixture)

	r := newTestRunner(t, store, "module.storage=net")
	require.NoError(t, r.Pull(context.Background()))

	_, err := r.Plan()
	require.Error(t, err)
	var nf *ModuleNotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.Equal(t, Failed, r.State())
}

func TestRunPullFailureAborts(t *testing.T) {
	store := newFakeStore()
	store.docs["live"] = []byte(runSourceFixture)
	store.failPull["net"] = errors.New("no credentials")

	r := newTestRunner(t, store, "module.networking=net:")
	err := r.Pull(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "net")
	assert.Equal(t, Idle, r.State())
}

func TestRunConflictKeepsBothSides(t *testing.T) {
	store := newFakeStore()
	store.docs["live"] = []byte(runSourceFixture)
	store.docs["net"] = []byte(`{
	  "version": 4,
	  "terraform_version": "1.7.5",
	  "serial": 3,
	  "lineage": "net-lineage",
	  "resources": [
	    {
	      "mode": "managed", "type": "aws_vpc", "name": "main",
	      "instances": [{"attributes": {"id": "vpc-net", "cidr_block": "10.9.0.0/16"}}]
	    }
	  ]
	}`)

	r := newTestRunner(t, store, "module.networking=net:")
	ctx := context.Background()

	require.NoError(t, r.Pull(ctx))
	plan, err := r.Plan()
	require.NoError(t, err)

	assert.Equal(t, 1, plan.MoveCount(), "only the subnet actually moves")
	require.Equal(t, 1, plan.ConflictCount())
	row := plan.Mappings[0].Conflicts[0]
	assert.Equal(t, "module.networking.aws_vpc.main", row.From)
	assert.Equal(t, "aws_vpc.main", row.To)
	assert.False(t, row.Overwrote)

	require.NoError(t, r.Apply(ctx))

	// The destination kept its own vpc instance.
	dest := store.doc(t, "net")
	assert.Contains(t, string(dest.Resources[0].Instances[0].Attributes), "10.9.0.0/16")
	assert.Equal(t, uint64(4), dest.Serial)
	assert.Equal(t, "net-lineage", dest.Lineage)

	// The conflicted instance stayed behind in the source.
	src := store.doc(t, "live")
	require.Len(t, src.Resources, 2)
	assert.Equal(t, "module.networking.aws_vpc.main", src.Resources[0].Addr())
	assert.Equal(t, "module.database.aws_db_instance.main", src.Resources[1].Addr())
}

func TestRunAllConflictsPushesNothing(t *testing.T) {
	store := newFakeStore()
	store.docs["live"] = []byte(`{
	  "version": 4,
	  "terraform_version": "1.7.5",
	  "serial": 7,
	  "lineage": "src-lineage",
	  "resources": [
	    {
	      "module": "module.networking",
	      "mode": "managed", "type": "aws_vpc", "name": "main",
	      "instances": [{"attributes": {"id": "vpc-1"}}]
	    }
	  ]
	}`)
	store.docs["net"] = []byte(`{
	  "version": 4,
	  "terraform_version": "1.7.5",
	  "serial": 3,
	  "lineage": "net-lineage",
	  "resources": [
	    {
	      "mode": "managed", "type": "aws_vpc", "name": "main",
	      "instances": [{"attributes": {"id": "vpc-net"}}]
	    }
	  ]
	}`)
	netBefore := store.docs["net"]

	r := newTestRunner(t, store, "module.networking=net:")
	ctx := context.Background()

	require.NoError(t, r.Pull(ctx))
	plan, err := r.Plan()
	require.NoError(t, err)
	assert.Equal(t, 0, plan.MoveCount())
	assert.Equal(t, 1, plan.ConflictCount())

	require.NoError(t, r.Apply(ctx))
	assert.Equal(t, Applied, r.State())
	assert.Empty(t, store.pushes, "nothing changed, nothing is written")
	assert.Equal(t, netBefore, store.docs["net"])
}

func TestRunPhaseOrderEnforced(t *testing.T) {
	store := newFakeStore()
	store.docs["live"] = []byte(runSourceFixture)

	r := newTestRunner(t, store, "module.networking=net:")
	ctx := context.Background()

	_, err := r.Plan()
	assert.Error(t, err, "plan before pull")
	require.NoError(t, r.Pull(ctx))
	assert.Error(t, r.Apply(ctx), "apply before plan")
	assert.Error(t, r.Pull(ctx), "pull twice")
}
