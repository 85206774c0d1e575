package bufferpool

import (
	"DaemonIndex/storage_engine/page"
	"fmt"

	"github.com/dustin/go-humanize"
)

/*
This file holds helper functions for the bufferpool
*/

// GetStats returns current buffer pool statistics
func (bp *BufferPool) GetStats() BufferPoolStats {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	stats := BufferPoolStats{
		TotalPages: len(bp.pages),
		Capacity:   bp.capacity,
		Hits:       bp.hits,
		Misses:     bp.misses,
		Evictions:  bp.evictions,
	}

	for _, pg := range bp.pages {
		pg.RLock()
		if pg.PinCount > 0 {
			stats.PinnedPages++
		}
		if pg.IsDirty {
			stats.DirtyPages++
		}
		pg.RUnlock()
	}

	return stats
}

func (s BufferPoolStats) String() string {
	return fmt.Sprintf("%d/%d frames (%s), %d pinned, %d dirty, %s hits, %s misses, %s evictions",
		s.TotalPages, s.Capacity,
		humanize.IBytes(uint64(s.Capacity*page.PageSize)),
		s.PinnedPages, s.DirtyPages,
		humanize.Comma(int64(s.Hits)), humanize.Comma(int64(s.Misses)), humanize.Comma(int64(s.Evictions)))
}

// PinCount sums the pin counts of all resident pages of a file.
func (bp *BufferPool) PinCount(fileID uint32) int {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	total := 0
	for _, pg := range bp.pages {
		if pg.FileID != fileID {
			continue
		}
		pg.RLock()
		total += int(pg.PinCount)
		pg.RUnlock()
	}
	return total
}

// Size returns the current number of pages in the buffer pool
func (bp *BufferPool) Size() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.pages)
}

// Capacity returns the maximum capacity of the buffer pool
func (bp *BufferPool) Capacity() int {
	return bp.capacity
}

// GetPage returns a page from the buffer pool without loading from disk
// Returns nil if page is not in buffer pool
func (bp *BufferPool) GetPage(pageID int64) *page.Page {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.pages[pageID]
}
