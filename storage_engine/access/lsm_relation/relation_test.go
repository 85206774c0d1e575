package lsmrelation

import (
	"DaemonIndex/types"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendScanInRidOrder(t *testing.T) {
	rel, err := Open(t.TempDir(), "events")
	require.NoError(t, err)
	defer rel.Close()

	const n = 1000
	for i := 0; i < n; i++ {
		rid, err := rel.AppendRecord([]byte(fmt.Sprintf("event-%04d", i)))
		require.NoError(t, err)
		assert.Equal(t, types.RecordId{PageNumber: uint32(i / RecordsPerPage), SlotNumber: uint16(i % RecordsPerPage)}, rid)
	}
	assert.Equal(t, uint64(n), rel.NumRecords())

	scan, err := rel.OpenScan()
	require.NoError(t, err)
	defer scan.Close()

	for i := 0; i < n; i++ {
		rid, rec, err := scan.ScanNext()
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("event-%04d", i), string(rec))
		assert.Equal(t, uint32(i/RecordsPerPage), rid.PageNumber)
	}
	_, _, err = scan.ScanNext()
	assert.True(t, errors.Is(err, types.ErrEndOfRelation))
	_, _, err = scan.ScanNext()
	assert.True(t, errors.Is(err, types.ErrEndOfRelation))
}

func TestReopenContinuesNumbering(t *testing.T) {
	dir := t.TempDir()
	rel, err := Open(dir, "events")
	require.NoError(t, err)
	for i := 0; i < 300; i++ {
		_, err := rel.AppendRecord([]byte{byte(i)})
		require.NoError(t, err)
	}
	require.NoError(t, rel.Flush())
	require.NoError(t, rel.Close())

	rel, err = Open(dir, "events")
	require.NoError(t, err)
	defer rel.Close()

	assert.Equal(t, uint64(300), rel.NumRecords())
	rid, err := rel.AppendRecord([]byte("next"))
	require.NoError(t, err)
	assert.Equal(t, types.RecordId{PageNumber: 1, SlotNumber: 300 - RecordsPerPage}, rid)

	rec, err := rel.GetRecord(rid)
	require.NoError(t, err)
	assert.Equal(t, "next", string(rec))

	_, err = rel.GetRecord(types.RecordId{PageNumber: 99})
	assert.True(t, errors.Is(err, ErrRecordNotFound))
}

func TestEmptyRelation(t *testing.T) {
	rel, err := Open(t.TempDir(), "empty")
	require.NoError(t, err)
	defer rel.Close()

	_, err = rel.AppendRecord(nil)
	assert.Error(t, err)

	scan, err := rel.OpenScan()
	require.NoError(t, err)
	defer scan.Close()
	_, _, err = scan.ScanNext()
	assert.True(t, errors.Is(err, types.ErrEndOfRelation))
}
