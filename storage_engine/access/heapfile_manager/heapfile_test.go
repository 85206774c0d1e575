package heapfile

import (
	"DaemonIndex/storage_engine/bufferpool"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/types"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, poolPages int) (*HeapFileManager, *bufferpool.BufferPool) {
	t.Helper()
	dm, err := diskmanager.NewDiskManager(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.CloseAll() })

	bp := bufferpool.NewBufferPool(poolPages, dm)
	return NewHeapFileManager(t.TempDir(), dm, bp), bp
}

func TestHeapPageInsertAndDelete(t *testing.T) {
	pg := diskmanager.NewPage(diskmanager.GlobalPageID(1, 3), 1, types.PageTypeHeapData)
	InitHeapPage(pg, 3)

	assert.Equal(t, uint32(3), GetPageNo(pg))
	assert.Equal(t, uint16(HeapHeaderSize), GetRecordEndPtr(pg))
	assert.Equal(t, MaxRecordSize, FreeSpace(pg))

	s0, err := InsertRecord(pg, []byte("alpha"))
	require.NoError(t, err)
	s1, err := InsertRecord(pg, []byte("beta"))
	require.NoError(t, err)
	assert.Equal(t, uint16(0), s0)
	assert.Equal(t, uint16(1), s1)

	require.NoError(t, DeleteRecord(pg, s0))
	assert.False(t, IsSlotLive(pg, s0))
	assert.Equal(t, uint16(1), GetNumRows(pg))

	// Deleted slots are never handed out again.
	s2, err := InsertRecord(pg, []byte("gamma"))
	require.NoError(t, err)
	assert.Equal(t, uint16(2), s2)

	rec, err := GetRecord(pg, s2)
	require.NoError(t, err)
	assert.Equal(t, "gamma", string(rec))

	_, err = GetRecord(pg, s0)
	assert.Error(t, err)
	assert.Error(t, DeleteRecord(pg, s0))
}

func TestHeapPageFull(t *testing.T) {
	pg := diskmanager.NewPage(0, 1, types.PageTypeHeapData)
	InitHeapPage(pg, 0)

	_, err := InsertRecord(pg, make([]byte, MaxRecordSize))
	require.NoError(t, err)
	assert.Equal(t, 0, FreeSpace(pg))

	_, err = InsertRecord(pg, []byte{1})
	assert.Error(t, err)
}

func TestInsertScanRoundTrip(t *testing.T) {
	hfm, bp := newTestManager(t, 8)

	hf, err := hfm.CreateHeapFile("employees")
	require.NoError(t, err)

	const n = 1500
	rids := make([]types.RecordId, 0, n)
	for i := 0; i < n; i++ {
		rid, err := hf.InsertRecord([]byte(fmt.Sprintf("record-%05d", i)))
		require.NoError(t, err)
		rids = append(rids, rid)
	}
	assert.Equal(t, 0, bp.PinCount(hf.FileID()))

	numPages, err := hf.NumPages()
	require.NoError(t, err)
	assert.Greater(t, numPages, uint32(1), "records should spill over several pages")

	rec, err := hf.GetRecord(rids[777])
	require.NoError(t, err)
	assert.Equal(t, "record-00777", string(rec))

	require.NoError(t, hf.DeleteRecord(rids[1]))

	scan, err := hf.OpenScan()
	require.NoError(t, err)
	defer scan.Close()

	seen := 0
	for {
		rid, record, err := scan.ScanNext()
		if errors.Is(err, ErrEndOfRelation) {
			break
		}
		require.NoError(t, err)
		if seen == 1 {
			// rids[1] was deleted, so the second record is rids[2].
			assert.Equal(t, rids[2], rid)
		}
		assert.Len(t, record, len("record-00000"))
		seen++
	}
	assert.Equal(t, n-1, seen)
	assert.Equal(t, 0, bp.PinCount(hf.FileID()))

	// Scanning past the end keeps reporting the end.
	_, _, err = scan.ScanNext()
	assert.True(t, errors.Is(err, ErrEndOfRelation))
}

func TestReopenHeapFile(t *testing.T) {
	hfm, _ := newTestManager(t, 4)

	_, err := hfm.OpenHeapFile("missing")
	assert.True(t, errors.Is(err, diskmanager.ErrFileNotFound))

	hf, err := hfm.CreateHeapFile("accounts")
	require.NoError(t, err)
	rid, err := hf.InsertRecord([]byte("persist me"))
	require.NoError(t, err)

	_, err = hfm.CreateHeapFile("accounts")
	assert.Error(t, err, "relation already open")

	require.NoError(t, hfm.CloseHeapFile("accounts"))
	_, err = hfm.GetHeapFile("accounts")
	assert.Error(t, err)

	hf, err = hfm.OpenHeapFile("accounts")
	require.NoError(t, err)
	rec, err := hf.GetRecord(rid)
	require.NoError(t, err)
	assert.Equal(t, "persist me", string(rec))

	require.NoError(t, hfm.CloseAll())
}

func TestInsertRecordRejectsOversize(t *testing.T) {
	hfm, _ := newTestManager(t, 4)
	hf, err := hfm.CreateHeapFile("big")
	require.NoError(t, err)

	_, err = hf.InsertRecord(make([]byte, MaxRecordSize+1))
	assert.Error(t, err)
	_, err = hf.InsertRecord(nil)
	assert.Error(t, err)
}
