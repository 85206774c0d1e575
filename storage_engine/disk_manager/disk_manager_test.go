package diskmanager

import (
	"DaemonIndex/types"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDiskManager(t *testing.T, cacheBytes int64) *DiskManager {
	t.Helper()
	dm, err := NewDiskManager(cacheBytes)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.CloseAll() })
	return dm
}

func TestGlobalPageIDEncoding(t *testing.T) {
	id := GlobalPageID(3, 17)

	assert.Equal(t, int64(3)<<32|17, id)
	assert.Equal(t, uint32(3), FileIDOf(id))
	assert.Equal(t, uint32(17), LocalPageNum(id))
}

func TestOpenExistingFileNotFound(t *testing.T) {
	dm := newTestDiskManager(t, 0)

	_, err := dm.OpenExistingFile(filepath.Join(t.TempDir(), "missing.idx"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

func TestAllocateWriteRead(t *testing.T) {
	for _, cacheBytes := range []int64{0, 1 << 20} {
		dm := newTestDiskManager(t, cacheBytes)
		path := filepath.Join(t.TempDir(), "pages.db")

		fileID, err := dm.OpenFile(path)
		require.NoError(t, err)

		first, err := dm.AllocatePage(fileID)
		require.NoError(t, err)
		second, err := dm.AllocatePage(fileID)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), LocalPageNum(first))
		assert.Equal(t, uint32(1), LocalPageNum(second))

		pg := NewPage(second, fileID, types.PageTypeHeapData)
		copy(pg.Data[16:], "hello pages")
		pg.IsDirty = true
		require.NoError(t, dm.WritePage(pg))
		assert.False(t, pg.IsDirty)

		read, err := dm.ReadPage(second)
		require.NoError(t, err)
		assert.Equal(t, types.PageTypeHeapData, read.PageType)
		assert.Equal(t, "hello pages", string(read.Data[16:27]))

		// page 0 was allocated but never written
		zero, err := dm.ReadPage(first)
		require.NoError(t, err)
		assert.Equal(t, make([]byte, types.PageSize), zero.Data)

		_, err = dm.ReadPage(GlobalPageID(fileID, 9))
		assert.Error(t, err)
	}
}

func TestReopenKeepsPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	dm := newTestDiskManager(t, 0)
	fileID, err := dm.OpenFile(path)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		id, err := dm.AllocatePage(fileID)
		require.NoError(t, err)
		pg := NewPage(id, fileID, types.PageTypeMetadata)
		pg.Data[100] = byte(i + 1)
		require.NoError(t, dm.WritePage(pg))
	}
	require.NoError(t, dm.CloseFile(fileID))

	dm2 := newTestDiskManager(t, 0)
	fileID2, err := dm2.OpenExistingFile(path)
	require.NoError(t, err)

	n, err := dm2.NumPages(fileID2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	pg, err := dm2.ReadPage(GlobalPageID(fileID2, 2))
	require.NoError(t, err)
	assert.Equal(t, byte(3), pg.Data[100])
}

func TestPageCacheSeesLatestWrite(t *testing.T) {
	dm := newTestDiskManager(t, 1<<20)
	fileID, err := dm.OpenFile(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)

	id, err := dm.AllocatePage(fileID)
	require.NoError(t, err)

	for v := byte(1); v <= 5; v++ {
		pg := NewPage(id, fileID, types.PageTypeHeapData)
		pg.Data[50] = v
		require.NoError(t, dm.WritePage(pg))

		read, err := dm.ReadPage(id)
		require.NoError(t, err)
		assert.Equal(t, v, read.Data[50])
	}
}

func TestFileIDsAreNotReused(t *testing.T) {
	dm := newTestDiskManager(t, 0)
	path := filepath.Join(t.TempDir(), "a.db")

	first, err := dm.OpenFile(path)
	require.NoError(t, err)
	again, err := dm.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	require.NoError(t, dm.CloseFile(first))
	second, err := dm.OpenFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestRemoveFile(t *testing.T) {
	dm := newTestDiskManager(t, 0)
	path := filepath.Join(t.TempDir(), "gone.db")

	fileID, err := dm.OpenFile(path)
	require.NoError(t, err)
	assert.Error(t, dm.RemoveFile(path))

	require.NoError(t, dm.CloseFile(fileID))
	require.NoError(t, dm.RemoveFile(path))
	assert.True(t, errors.Is(dm.RemoveFile(path), ErrFileNotFound))
}
