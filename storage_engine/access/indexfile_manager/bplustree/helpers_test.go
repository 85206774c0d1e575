package bplus

import (
	"DaemonIndex/storage_engine/bufferpool"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/types"
	"math"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// Test records: [0,4) filler | [4,8) int32 | [8,16) float64 | [16,26) string
const (
	intOffset    int32 = 4
	doubleOffset int32 = 8
	stringOffset int32 = 16
	recordSize         = 26
)

type testEnv struct {
	dir string
	dm  *diskmanager.DiskManager
	bp  *bufferpool.BufferPool
}

func newTestEnv(t *testing.T, poolPages int) *testEnv {
	t.Helper()
	dm, err := diskmanager.NewDiskManager(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.CloseAll() })

	return &testEnv{
		dir: t.TempDir(),
		dm:  dm,
		bp:  bufferpool.NewBufferPool(poolPages, dm),
	}
}

func (e *testEnv) intConfig(leafCap, internalCap int) Config {
	return Config{
		RelationName:     "emp",
		AttrByteOffset:   intOffset,
		AttrType:         types.INTEGER,
		Dir:              e.dir,
		LeafCapacity:     leafCap,
		InternalCapacity: internalCap,
	}
}

func (e *testEnv) open(t *testing.T, cfg Config, rel types.RelationSource) *BTreeIndex {
	t.Helper()
	idx, name, err := OpenBTreeIndex(cfg, rel, e.bp, e.dm)
	require.NoError(t, err)
	require.Equal(t, IndexName(cfg.RelationName, cfg.AttrByteOffset), name)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

// memRelation is an in-memory relation; record i gets ridFor(i).
type memRelation struct {
	records [][]byte
}

type memScanner struct {
	rel *memRelation
	pos int
}

func (r *memRelation) OpenScan() (types.RelationScanner, error) {
	return &memScanner{rel: r}, nil
}

func (s *memScanner) ScanNext() (types.RecordId, []byte, error) {
	if s.pos >= len(s.rel.records) {
		return types.RecordId{}, nil, types.ErrEndOfRelation
	}
	i := s.pos
	s.pos++
	return ridFor(i), s.rel.records[i], nil
}

func (s *memScanner) Close() error { return nil }

func ridFor(i int) types.RecordId {
	return types.RecordId{PageNumber: uint32(i/100) + 1, SlotNumber: uint16(i % 100)}
}

func makeRecord(i int32, d float64, s string) []byte {
	rec := make([]byte, recordSize)
	copy(rec[intOffset:], types.EncodeInt(i))
	copy(rec[doubleOffset:], types.EncodeDouble(d))
	copy(rec[stringOffset:], types.EncodeString(s))
	return rec
}

func intRelation(keys []int32) *memRelation {
	rel := &memRelation{}
	for _, k := range keys {
		rel.records = append(rel.records, makeRecord(k, float64(k), ""))
	}
	return rel
}

func seq(from, to int32) []int32 {
	out := make([]int32, 0, to-from+1)
	for k := from; k <= to; k++ {
		out = append(out, k)
	}
	return out
}

// scanAll runs a scan to completion and always ends it.
func scanAll(t *testing.T, idx *BTreeIndex, low []byte, lowOp types.Operator, high []byte, highOp types.Operator) ([]types.RecordId, error) {
	t.Helper()
	if err := idx.StartScan(low, lowOp, high, highOp); err != nil {
		return nil, err
	}
	var out []types.RecordId
	for {
		rid, err := idx.ScanNext()
		if errors.Is(err, ErrScanCompleted) {
			break
		}
		require.NoError(t, err)
		out = append(out, rid)
	}
	require.NoError(t, idx.EndScan())
	return out, nil
}

func scanInts(t *testing.T, idx *BTreeIndex, low int32, lowOp types.Operator, high int32, highOp types.Operator) ([]types.RecordId, error) {
	return scanAll(t, idx, types.EncodeInt(low), lowOp, types.EncodeInt(high), highOp)
}

func fullIntRange(t *testing.T, idx *BTreeIndex) []types.RecordId {
	rids, err := scanInts(t, idx, math.MinInt32, types.GTE, math.MaxInt32, types.LTE)
	require.NoError(t, err)
	return rids
}

// expectedRids lists the rids of keys matching keep, ordered by key with
// ties in insertion order.
func expectedRids(keys []int32, keep func(int32) bool) []types.RecordId {
	idx := make([]int, 0, len(keys))
	for i, k := range keys {
		if keep(k) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] < keys[idx[b]] })
	out := make([]types.RecordId, 0, len(idx))
	for _, i := range idx {
		out = append(out, ridFor(i))
	}
	return out
}

// checkTree verifies ordering, separator bounds, balance, minimum fill and the
// leaf sibling chain. With strict set, keys left of a separator must be
// strictly smaller than it; otherwise equal keys may straddle it.
func checkTree(t *testing.T, idx *BTreeIndex, strict bool) (entries int) {
	t.Helper()
	var leaves []NodeInfo

	var check func(pageNo, level uint32, lo, hi []byte, isRoot bool)
	check = func(pageNo, level uint32, lo, hi []byte, isRoot bool) {
		info, err := idx.readNode(pageNo, level)
		require.NoError(t, err)

		n := len(info.Keys)
		switch {
		case isRoot && info.IsLeaf():
		case isRoot:
			require.GreaterOrEqual(t, n, 1, "root page %d", pageNo)
		case info.IsLeaf():
			require.GreaterOrEqual(t, n, (idx.layout.leafCap+1)/2, "leaf page %d underfull", pageNo)
		default:
			require.GreaterOrEqual(t, n, idx.layout.internalCap/2, "internal page %d underfull", pageNo)
		}

		for i, k := range info.Keys {
			if i > 0 {
				require.LessOrEqual(t, idx.cmp(info.Keys[i-1], k), 0, "page %d keys out of order", pageNo)
			}
			if lo != nil {
				require.GreaterOrEqual(t, idx.cmp(k, lo), 0, "page %d key below separator", pageNo)
			}
			if hi != nil {
				if strict {
					require.Less(t, idx.cmp(k, hi), 0, "page %d key not below separator", pageNo)
				} else {
					require.LessOrEqual(t, idx.cmp(k, hi), 0, "page %d key above separator", pageNo)
				}
			}
		}

		if info.IsLeaf() {
			leaves = append(leaves, info)
			return
		}
		require.Len(t, info.Children, n+1)
		for i, child := range info.Children {
			childLo, childHi := lo, hi
			if i > 0 {
				childLo = info.Keys[i-1]
			}
			if i < n {
				childHi = info.Keys[i]
			}
			check(child, level-1, childLo, childHi, false)
		}
	}

	check(idx.rootPageNo, idx.rootLevel, nil, nil, true)

	for i, leaf := range leaves {
		entries += len(leaf.Keys)
		if i+1 < len(leaves) {
			require.Equal(t, leaves[i+1].PageNo, leaf.RightSibling, "sibling of leaf %d", leaf.PageNo)
			if len(leaf.Keys) > 0 && len(leaves[i+1].Keys) > 0 {
				require.LessOrEqual(t, idx.cmp(leaf.Keys[len(leaf.Keys)-1], leaves[i+1].Keys[0]), 0)
			}
		} else {
			require.Equal(t, InvalidPageNo, leaf.RightSibling, "rightmost leaf %d", leaf.PageNo)
		}
	}
	return entries
}
