package diskmanager

import (
	"DaemonIndex/storage_engine/page"

	"github.com/dgraph-io/ristretto/v2"
)

/*
The page cache holds copies of clean page images keyed by global page id.
It sits below the buffer pool: a frame the pool evicted can be re-read
without touching the file. Every WritePage refreshes the entry and waits for
the cache to apply it, so a later read never observes an older image.

Global ids of closed files are never handed out again (file ids are not
reused), so entries of a closed file simply age out.
*/

func newPageCache(maxBytes int64) (*ristretto.Cache[int64, []byte], error) {
	items := maxBytes / page.PageSize
	if items < 1 {
		items = 1
	}
	return ristretto.NewCache(&ristretto.Config[int64, []byte]{
		NumCounters:        items * 10,
		MaxCost:            maxBytes,
		BufferItems:        64,
		IgnoreInternalCost: true,
		Metrics:            true,
	})
}

func (dm *DiskManager) cacheGet(globalPageID int64, dst []byte) bool {
	if dm.pageCache == nil {
		return false
	}
	data, ok := dm.pageCache.Get(globalPageID)
	if !ok || len(data) != len(dst) {
		return false
	}
	copy(dst, data)
	return true
}

func (dm *DiskManager) cachePut(globalPageID int64, src []byte) {
	if dm.pageCache == nil {
		return
	}
	dm.pageCache.Set(globalPageID, append([]byte(nil), src...), int64(len(src)))
}

// cacheReplace installs the image that was just written. Del first: if the
// Set is dropped by admission, no stale image survives.
func (dm *DiskManager) cacheReplace(globalPageID int64, src []byte) {
	if dm.pageCache == nil {
		return
	}
	dm.pageCache.Del(globalPageID)
	dm.pageCache.Set(globalPageID, append([]byte(nil), src...), int64(len(src)))
	dm.pageCache.Wait()
}

func (dm *DiskManager) cacheDel(globalPageID int64) {
	if dm.pageCache == nil {
		return
	}
	dm.pageCache.Del(globalPageID)
	dm.pageCache.Wait()
}

// CacheMetrics reports hit and miss counts of the page cache, or zeros when
// the cache is disabled.
func (dm *DiskManager) CacheMetrics() (hits, misses uint64) {
	if dm.pageCache == nil || dm.pageCache.Metrics == nil {
		return 0, 0
	}
	return dm.pageCache.Metrics.Hits(), dm.pageCache.Metrics.Misses()
}
