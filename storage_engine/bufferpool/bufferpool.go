package bufferpool

import (
	"DaemonIndex/logger"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/storage_engine/page"
	"DaemonIndex/types"

	"github.com/pkg/errors"
)

/*
This file is the main file of the bufferpool
The buffer pool works on LRU based caching mechanism
and holds access to disk manager for flushing the pages in the cache onto the disk
similarly if page not found in the cache, disk manager loads the page from the disk and adds in the cache for future access

Pages are identified by globalPageID. A page with PinCount > 0 is never evicted;
every FetchPage/NewPage must be paired with exactly one UnpinPage.
*/

var (
	// ErrAllPagesPinned is returned when a frame is needed but every resident page is pinned.
	ErrAllPagesPinned = errors.New("all pages are pinned, cannot evict")
	// ErrPageNotResident is returned for operations on a page that is not in the pool.
	ErrPageNotResident = errors.New("page not in buffer pool")
	// ErrPageNotPinned is returned by UnpinPage when the pin count is already zero.
	ErrPageNotPinned = errors.New("page is not pinned")
)

// NewBufferPool creates a new buffer pool with the given capacity
func NewBufferPool(capacity int, diskManager *diskmanager.DiskManager) *BufferPool {
	return &BufferPool{
		pages:       make(map[int64]*page.Page, capacity),
		capacity:    capacity,
		diskManager: diskManager,
		accessOrder: make([]int64, 0, capacity),
	}
}

// FetchPage retrieves a page from the buffer pool, loading from disk if necessary
// Returns the page with pin count incremented
func (bp *BufferPool) FetchPage(pageID int64) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	// Check if page is in buffer pool
	if pg, exists := bp.pages[pageID]; exists {
		bp.hits++
		logger.Debugf("[BufferPool] HIT  pageID=%d pinCount=%d", pageID, pg.PinCount)
		bp.updateAccessOrder(pageID)
		pg.Lock()
		pg.PinCount++
		pg.Unlock()
		return pg, nil
	}

	bp.misses++
	logger.Debugf("[BufferPool] MISS pageID=%d, loading from disk", pageID)
	if bp.diskManager == nil {
		return nil, errors.New("disk manager not set")
	}

	// Make room before reading so a full pool fails without I/O.
	if err := bp.ensureFrame(); err != nil {
		return nil, errors.Wrapf(err, "FetchPage %d", pageID)
	}

	pg, err := bp.diskManager.ReadPage(pageID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read page %d from disk", pageID)
	}

	pg.PinCount = 1
	bp.pages[pg.ID] = pg
	bp.updateAccessOrder(pg.ID)

	return pg, nil
}

// NewPage allocates the next page of a file, constructs a blank frame for it
// entirely in RAM, marks it dirty so the BufferPool will eventually flush it,
// and pins it for the caller.
func (bp *BufferPool) NewPage(fileID uint32, pageType types.PageType) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.diskManager == nil {
		return nil, errors.New("disk manager not set")
	}

	if err := bp.ensureFrame(); err != nil {
		return nil, errors.Wrap(err, "NewPage")
	}

	pageID, err := bp.diskManager.AllocatePage(fileID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to allocate page")
	}

	pg := diskmanager.NewPage(pageID, fileID, pageType)
	pg.Data[types.PageTypeOffset] = byte(pageType)
	pg.IsDirty = true // New pages are dirty by default
	pg.PinCount = 1

	bp.pages[pg.ID] = pg
	bp.updateAccessOrder(pg.ID)

	return pg, nil
}

// UnpinPage decrements the pin count for a page. isDirty must be true iff
// the caller modified the page while holding its pin.
func (bp *BufferPool) UnpinPage(pageID int64, isDirty bool) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	pg, exists := bp.pages[pageID]
	if !exists {
		return errors.Wrapf(ErrPageNotResident, "UnpinPage %d", pageID)
	}

	pg.Lock()
	defer pg.Unlock()

	if pg.PinCount <= 0 {
		return errors.Wrapf(ErrPageNotPinned, "UnpinPage %d", pageID)
	}
	pg.PinCount--

	if isDirty {
		pg.IsDirty = true
	}

	return nil
}

// FlushPage writes a specific page to disk if dirty
func (bp *BufferPool) FlushPage(pageID int64) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	pg, exists := bp.pages[pageID]
	if !exists {
		return errors.Wrapf(ErrPageNotResident, "FlushPage %d", pageID)
	}

	return bp.flushLocked(pg)
}

// FlushFile writes every dirty resident page of one file to disk.
func (bp *BufferPool) FlushFile(fileID uint32) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	flushed := 0
	for _, pg := range bp.pages {
		if pg.FileID != fileID {
			continue
		}
		wasDirty := pg.IsDirty
		if err := bp.flushLocked(pg); err != nil {
			return errors.Wrapf(err, "FlushFile %d", fileID)
		}
		if wasDirty {
			flushed++
		}
	}

	logger.Debugf("[BufferPool] FlushFile fileID=%d flushed=%d", fileID, flushed)
	return nil
}

// FlushAllPages writes all dirty pages to disk
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.diskManager == nil {
		return errors.New("disk manager not set")
	}

	logger.Debugf("[BufferPool] FlushAllPages pool size=%d", len(bp.pages))

	for _, pg := range bp.pages {
		if err := bp.flushLocked(pg); err != nil {
			return err
		}
	}

	return nil
}

// DropFile removes every page of a file from the pool after flushing it.
// It fails if any of those pages is still pinned.
func (bp *BufferPool) DropFile(fileID uint32) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for pageID, pg := range bp.pages {
		if pg.FileID == fileID && pg.PinCount > 0 {
			return errors.Errorf("DropFile: page %d of file %d still pinned (%d)", pageID, fileID, pg.PinCount)
		}
	}

	for pageID, pg := range bp.pages {
		if pg.FileID != fileID {
			continue
		}
		if err := bp.flushLocked(pg); err != nil {
			return errors.Wrapf(err, "DropFile %d", fileID)
		}
		delete(bp.pages, pageID)
		bp.removeFromAccessOrder(pageID)
	}

	return nil
}

// flushLocked writes pg if dirty. Assumes bp.mu is held.
func (bp *BufferPool) flushLocked(pg *page.Page) error {
	pg.Lock()
	defer pg.Unlock()

	if !pg.IsDirty {
		return nil // Nothing to flush
	}

	if err := bp.diskManager.WritePage(pg); err != nil {
		return errors.Wrapf(err, "failed to flush page %d", pg.ID)
	}

	pg.IsDirty = false
	return nil
}

// ensureFrame evicts the LRU unpinned page when the pool is at capacity.
// Assumes lock is already held
func (bp *BufferPool) ensureFrame() error {
	if len(bp.pages) < bp.capacity {
		return nil
	}
	return bp.evictLRU()
}

// evictLRU evicts the least recently used unpinned page
// Assumes lock is already held
func (bp *BufferPool) evictLRU() error {
	for i := 0; i < len(bp.accessOrder); i++ {
		pageID := bp.accessOrder[i]
		pg, exists := bp.pages[pageID]

		if !exists {
			// Remove from access order if page doesn't exist
			bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
			i--
			continue
		}

		pg.Lock()
		pinCount := pg.PinCount
		isDirty := pg.IsDirty

		// Skip pinned pages
		if pinCount > 0 {
			pg.Unlock()
			continue
		}

		logger.Debugf("[BufferPool] EVICT pageID=%d dirty=%v", pageID, isDirty)
		if isDirty {
			if err := bp.diskManager.WritePage(pg); err != nil {
				pg.Unlock()
				return errors.Wrapf(err, "failed to write page %d during eviction", pageID)
			}
			pg.IsDirty = false
		}
		pg.Unlock()

		delete(bp.pages, pageID)
		bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
		bp.evictions++
		return nil
	}

	return ErrAllPagesPinned
}

// updateAccessOrder moves a page to the end of access order (most recently used)
// Assumes lock is already held
func (bp *BufferPool) updateAccessOrder(pageID int64) {
	bp.removeFromAccessOrder(pageID)
	bp.accessOrder = append(bp.accessOrder, pageID)
}

func (bp *BufferPool) removeFromAccessOrder(pageID int64) {
	for i, id := range bp.accessOrder {
		if id == pageID {
			bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
			return
		}
	}
}
