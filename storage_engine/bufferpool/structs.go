package bufferpool

import (
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/storage_engine/page"
	"sync"
)

// ############################################# BUFFER POOL #############################################

// BufferPool manages cached pages in memory with LRU eviction
// Works with both heap file pages and B+ tree index pages
type BufferPool struct {
	pages       map[int64]*page.Page // pageID -> Page
	capacity    int
	diskManager *diskmanager.DiskManager
	accessOrder []int64 // LRU tracking: most recently used at end
	hits        uint64
	misses      uint64
	evictions   uint64
	mu          sync.Mutex
}

// BufferPoolStats is a snapshot of the pool.
type BufferPoolStats struct {
	TotalPages  int
	PinnedPages int
	DirtyPages  int
	Capacity    int
	Hits        uint64
	Misses      uint64
	Evictions   uint64
}
