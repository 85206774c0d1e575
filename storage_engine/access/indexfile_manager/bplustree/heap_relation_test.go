package bplus

import (
	heapfile "DaemonIndex/storage_engine/access/heapfile_manager"
	lsmrelation "DaemonIndex/storage_engine/access/lsm_relation"
	"DaemonIndex/types"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFromHeapFile(t *testing.T) {
	env := newTestEnv(t, 32)
	hfm := heapfile.NewHeapFileManager(env.dir, env.dm, env.bp)
	t.Cleanup(func() { _ = hfm.CloseAll() })

	hf, err := hfm.CreateHeapFile("orders")
	require.NoError(t, err)

	r := rand.New(rand.NewSource(11))
	keyByRid := make(map[types.RecordId]int32)
	for i := 0; i < 4000; i++ {
		k := int32(r.Intn(1000))
		rid, err := hf.InsertRecord(makeRecord(k, float64(k)/2, "x"))
		require.NoError(t, err)
		keyByRid[rid] = k
	}

	cfg := Config{RelationName: "orders", AttrByteOffset: intOffset, AttrType: types.INTEGER, Dir: env.dir}
	idx := env.open(t, cfg, hf)
	assert.Equal(t, 0, env.bp.PinCount(idx.fileID))
	assert.Equal(t, 0, env.bp.PinCount(hf.FileID()))
	assert.Equal(t, len(keyByRid), checkTree(t, idx, false))

	rids, err := scanInts(t, idx, 250, types.GTE, 499, types.LTE)
	require.NoError(t, err)

	want := 0
	for _, k := range keyByRid {
		if k >= 250 && k <= 499 {
			want++
		}
	}
	require.Len(t, rids, want)

	prev := int32(-1)
	for _, rid := range rids {
		k, ok := keyByRid[rid]
		require.True(t, ok, "unknown rid %s", rid)
		assert.GreaterOrEqual(t, k, prev)
		prev = k

		// The rid resolves back to a record carrying the same key.
		rec, err := hf.GetRecord(rid)
		require.NoError(t, err)
		assert.Equal(t, k, types.DecodeInt(rec[intOffset:]))
	}
}

func TestBuildFromLSMRelation(t *testing.T) {
	env := newTestEnv(t, 16)
	rel, err := lsmrelation.Open(filepath.Join(env.dir, "people.lsm"), "people")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rel.Close() })

	names := []string{"oscar", "bea", "nina", "bea", "carl", "ada"}
	rids := make([]types.RecordId, 0, len(names))
	for i, name := range names {
		rid, err := rel.AppendRecord(makeRecord(int32(i), 0, name))
		require.NoError(t, err)
		rids = append(rids, rid)
	}

	cfg := Config{RelationName: "people", AttrByteOffset: stringOffset, AttrType: types.STRING, Dir: env.dir}
	idx := env.open(t, cfg, rel)

	got, err := scanAll(t, idx, types.EncodeString("b"), types.GTE, types.EncodeString("nina"), types.LTE)
	require.NoError(t, err)
	assert.Equal(t, []types.RecordId{rids[1], rids[3], rids[4], rids[2]}, got)
}
