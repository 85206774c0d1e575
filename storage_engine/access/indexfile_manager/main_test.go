package indexfile

import (
	heapfile "DaemonIndex/storage_engine/access/heapfile_manager"
	bplus "DaemonIndex/storage_engine/access/indexfile_manager/bplustree"
	"DaemonIndex/storage_engine/bufferpool"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/types"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexesShareOnePool(t *testing.T) {
	dm, err := diskmanager.NewDiskManager(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.CloseAll() })
	bp := bufferpool.NewBufferPool(32, dm)

	dir := t.TempDir()
	hfm := heapfile.NewHeapFileManager(filepath.Join(dir, "heap"), dm, bp)
	t.Cleanup(func() { _ = hfm.CloseAll() })
	hf, err := hfm.CreateHeapFile("items")
	require.NoError(t, err)

	// record: int32 id | float64 price
	for i := 0; i < 500; i++ {
		rec := append(types.EncodeInt(int32(i)), types.EncodeDouble(float64(500-i)/4)...)
		_, err := hf.InsertRecord(rec)
		require.NoError(t, err)
	}

	ifm, err := NewIndexFileManager(filepath.Join(dir, "indexes"), dm, bp)
	require.NoError(t, err)

	byID, err := ifm.GetOrCreateIndex(bplus.Config{RelationName: "items", AttrByteOffset: 0, AttrType: types.INTEGER}, hf)
	require.NoError(t, err)
	byPrice, err := ifm.GetOrCreateIndex(bplus.Config{RelationName: "items", AttrByteOffset: 4, AttrType: types.DOUBLE}, hf)
	require.NoError(t, err)
	assert.Equal(t, []string{"items.0", "items.4"}, ifm.IndexNames())

	cached, err := ifm.GetOrCreateIndex(bplus.Config{RelationName: "items", AttrByteOffset: 0, AttrType: types.INTEGER}, nil)
	require.NoError(t, err)
	assert.Same(t, byID, cached)

	_, err = ifm.GetOrCreateIndex(bplus.Config{RelationName: "items", AttrByteOffset: 0, AttrType: types.STRING}, nil)
	assert.True(t, errors.Is(err, bplus.ErrBadIndexInfo))

	// Cheapest item has the highest id.
	require.NoError(t, byPrice.StartScan(types.EncodeDouble(0), types.GT, types.EncodeDouble(1), types.LTE))
	rid, err := byPrice.ScanNext()
	require.NoError(t, err)
	require.NoError(t, byPrice.EndScan())
	rec, err := hf.GetRecord(rid)
	require.NoError(t, err)
	assert.Equal(t, int32(499), types.DecodeInt(rec))

	require.NoError(t, ifm.CloseIndex("items.4"))
	_, ok := ifm.GetIndex("items.4")
	assert.False(t, ok)
	require.NoError(t, ifm.CloseIndex("items.4"), "closing twice is a no-op")

	// Reopen from disk without the relation.
	byPrice, err = ifm.GetOrCreateIndex(bplus.Config{RelationName: "items", AttrByteOffset: 4, AttrType: types.DOUBLE}, nil)
	require.NoError(t, err)
	assert.Greater(t, byPrice.Height(), 1)

	require.NoError(t, ifm.CloseAll())
	assert.Empty(t, ifm.IndexNames())
}

func TestOpenRegisteredAfterRestart(t *testing.T) {
	dir := t.TempDir()
	cfgA := bplus.Config{RelationName: "a", AttrByteOffset: 0, AttrType: types.INTEGER}
	cfgB := bplus.Config{RelationName: "b", AttrByteOffset: 8, AttrType: types.STRING}

	func() {
		dm, err := diskmanager.NewDiskManager(0)
		require.NoError(t, err)
		defer dm.CloseAll()
		ifm, err := NewIndexFileManager(dir, dm, bufferpool.NewBufferPool(8, dm))
		require.NoError(t, err)

		a, err := ifm.GetOrCreateIndex(cfgA, nil)
		require.NoError(t, err)
		require.NoError(t, a.InsertEntry(types.EncodeInt(7), types.RecordId{PageNumber: 1, SlotNumber: 3}))
		_, err = ifm.GetOrCreateIndex(cfgB, nil)
		require.NoError(t, err)
		_, err = ifm.GetOrCreateIndex(bplus.Config{RelationName: "c", AttrByteOffset: 0, AttrType: types.DOUBLE}, nil)
		require.NoError(t, err)

		require.NoError(t, ifm.DropIndex("c.0"))
		_, err = os.Stat(filepath.Join(dir, "c.0"))
		assert.True(t, os.IsNotExist(err))
		require.NoError(t, ifm.DropIndex("c.0"), "dropping a missing index is a no-op")
		require.NoError(t, ifm.CloseAll())
	}()

	// b's file disappears while the process is down.
	require.NoError(t, os.Remove(filepath.Join(dir, "b.8")))

	dm, err := diskmanager.NewDiskManager(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.CloseAll() })
	ifm, err := NewIndexFileManager(dir, dm, bufferpool.NewBufferPool(8, dm))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ifm.CloseAll() })

	opened, err := ifm.OpenRegistered()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.0"}, opened)

	a, ok := ifm.GetIndex("a.0")
	require.True(t, ok)
	require.NoError(t, a.StartScan(types.EncodeInt(7), types.GTE, types.EncodeInt(7), types.LTE))
	rid, err := a.ScanNext()
	require.NoError(t, err)
	assert.Equal(t, types.RecordId{PageNumber: 1, SlotNumber: 3}, rid)
	require.NoError(t, a.EndScan())

	// The stale entry for b was removed, so a second restart opens only a.
	require.NoError(t, ifm.CloseAll())
	opened, err = ifm.OpenRegistered()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.0"}, opened)
}
