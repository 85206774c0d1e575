package diskmanager

import (
	"DaemonIndex/logger"
	"DaemonIndex/storage_engine/page"
	"DaemonIndex/types"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

/*
This is main file for disk manager, the paged file layer.
It owns:
File descriptors (os.File)
Reading/writing raw bytes at specific offsets (ReadAt, WriteAt)
Page allocation (tracking NextPageID per file)

Page ID encoding:
globalPageID = int64(fileID) << 32 | localPageNum
The mapping is arithmetic, so no lookup table is needed in either direction.

Bufferpool on Page hits return the pages, but if page miss occurs then it is disk manager which reads/writes the page at the offset.
Clean page images are additionally kept in an optional ristretto cache (see page_cache.go).
*/

// ErrFileNotFound is returned by OpenExistingFile when the path does not exist.
var ErrFileNotFound = errors.New("file not found")

// NewDiskManager creates a disk manager. pageCacheBytes bounds the clean page
// cache; 0 disables it.
func NewDiskManager(pageCacheBytes int64) (*DiskManager, error) {
	dm := &DiskManager{
		files:      make(map[uint32]*FileDescriptor),
		paths:      make(map[string]uint32),
		nextFileID: 1,
	}
	if pageCacheBytes > 0 {
		cache, err := newPageCache(pageCacheBytes)
		if err != nil {
			return nil, errors.Wrap(err, "NewDiskManager: failed to create page cache")
		}
		dm.pageCache = cache
	}
	return dm, nil
}

func NewPage(pageID int64, fileID uint32, pageType types.PageType) *page.Page {
	return &page.Page{
		ID:       pageID,
		FileID:   fileID,
		Data:     make([]byte, page.PageSize),
		IsDirty:  false,
		PinCount: 0,
		PageType: pageType,
	}
}

// GlobalPageID builds the global id of a local page.
func GlobalPageID(fileID uint32, localPageNum uint32) int64 {
	return int64(fileID)<<32 | int64(localPageNum)
}

// LocalPageNum extracts the local page number from a global id.
func LocalPageNum(globalPageID int64) uint32 {
	return uint32(globalPageID & 0xFFFFFFFF)
}

// FileIDOf extracts the file id from a global id.
func FileIDOf(globalPageID int64) uint32 {
	return uint32(globalPageID >> 32)
}

// OpenFile opens or creates a file and returns its file ID
func (dm *DiskManager) OpenFile(filePath string) (uint32, error) {
	return dm.openFile(filePath, os.O_RDWR|os.O_CREATE)
}

// OpenExistingFile opens a file that must already exist. A missing file
// yields ErrFileNotFound so callers can switch to their creation path.
func (dm *DiskManager) OpenExistingFile(filePath string) (uint32, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return 0, errors.Wrapf(ErrFileNotFound, "OpenExistingFile: %s", filePath)
	}
	return dm.openFile(filePath, os.O_RDWR)
}

func (dm *DiskManager) openFile(filePath string, flags int) (uint32, error) {
	filePath = filepath.Clean(filePath)

	dm.mu.Lock()
	defer dm.mu.Unlock()

	// Check if file is already open
	if id, ok := dm.paths[filePath]; ok {
		return id, nil
	}

	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.Wrapf(ErrFileNotFound, "openFile: %s", filePath)
		}
		return 0, errors.Wrapf(err, "failed to open file %s", filePath)
	}

	// Get file size to determine existing pages
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return 0, errors.Wrap(err, "failed to stat file")
	}
	numPages := stat.Size() / int64(page.PageSize)

	fileID := dm.nextFileID
	dm.nextFileID++

	dm.files[fileID] = &FileDescriptor{
		FileID:     fileID,
		FilePath:   filePath,
		File:       file,
		NextPageID: numPages,
	}
	dm.paths[filePath] = fileID

	logger.Debugf("[DiskManager] OpenFile path=%s fileID=%d pages=%d", filePath, fileID, numPages)
	return fileID, nil
}

func (dm *DiskManager) descriptor(fileID uint32) (*FileDescriptor, error) {
	dm.mu.RLock()
	fd, exists := dm.files[fileID]
	dm.mu.RUnlock()
	if !exists {
		return nil, errors.Errorf("file %d not found", fileID)
	}
	return fd, nil
}

// ReadPage reads a page from disk
func (dm *DiskManager) ReadPage(globalPageID int64) (*page.Page, error) {
	fileID := FileIDOf(globalPageID)
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return nil, errors.Wrapf(err, "ReadPage %d", globalPageID)
	}

	localPageID := int64(LocalPageNum(globalPageID))
	pg := NewPage(globalPageID, fileID, types.PageTypeUnknown)

	if dm.cacheGet(globalPageID, pg.Data) {
		pg.PageType = types.PageType(pg.Data[types.PageTypeOffset])
		return pg, nil
	}

	fd.mu.RLock()
	defer fd.mu.RUnlock()

	if fd.File == nil {
		return nil, errors.Errorf("file %d is closed", fileID)
	}
	if localPageID >= fd.NextPageID {
		return nil, errors.Errorf("page %d beyond end of file %d (%d pages)", localPageID, fileID, fd.NextPageID)
	}

	offset := localPageID * int64(page.PageSize)
	n, err := fd.File.ReadAt(pg.Data, offset)
	if err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "failed to read page %d from file %d", localPageID, fileID)
	}

	// Allocated but never written pages read back as zeros.
	for i := n; i < page.PageSize; i++ {
		pg.Data[i] = 0
	}

	pg.PageType = types.PageType(pg.Data[types.PageTypeOffset])
	dm.cachePut(globalPageID, pg.Data)

	return pg, nil
}

// WritePage writes a page to disk
func (dm *DiskManager) WritePage(pg *page.Page) error {
	fd, err := dm.descriptor(pg.FileID)
	if err != nil {
		return errors.Wrapf(err, "WritePage %d", pg.ID)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return errors.Errorf("file %d is closed", pg.FileID)
	}

	if len(pg.Data) != page.PageSize {
		return errors.Errorf("page data size %d does not match page size %d", len(pg.Data), page.PageSize)
	}

	// Stamp page type
	pg.Data[types.PageTypeOffset] = byte(pg.PageType)

	localPageID := int64(LocalPageNum(pg.ID))
	offset := localPageID * int64(page.PageSize)

	if _, err := fd.File.WriteAt(pg.Data, offset); err != nil {
		dm.cacheDel(pg.ID)
		return errors.Wrapf(err, "failed to write page %d to file %d", localPageID, pg.FileID)
	}

	// Update next page ID if we wrote beyond current end
	if localPageID >= fd.NextPageID {
		fd.NextPageID = localPageID + 1
	}

	dm.cacheReplace(pg.ID, pg.Data)
	pg.IsDirty = false
	return nil
}

// AllocatePage reserves the next available page number for a file. It does
// NOT write anything to disk; the BufferPool writes the page when it flushes
// the dirty frame.
func (dm *DiskManager) AllocatePage(fileID uint32) (int64, error) {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return 0, errors.Wrap(err, "AllocatePage")
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return 0, errors.Errorf("file %d is closed", fileID)
	}

	localPageNum := fd.NextPageID
	if localPageNum > 0xFFFFFFFF {
		return 0, errors.Errorf("file %d is out of page numbers", fileID)
	}
	fd.NextPageID++

	return GlobalPageID(fileID, uint32(localPageNum)), nil
}

// NumPages returns the number of allocated pages of a file.
func (dm *DiskManager) NumPages(fileID uint32) (int64, error) {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return 0, err
	}
	fd.mu.RLock()
	defer fd.mu.RUnlock()
	return fd.NextPageID, nil
}

// FilePath returns the path a file id was opened with.
func (dm *DiskManager) FilePath(fileID uint32) (string, error) {
	fd, err := dm.descriptor(fileID)
	if err != nil {
		return "", err
	}
	return fd.FilePath, nil
}

// Sync flushes all file buffers to disk
func (dm *DiskManager) Sync() error {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	for _, fd := range dm.files {
		fd.mu.Lock()
		if fd.File != nil {
			if err := fd.File.Sync(); err != nil {
				fd.mu.Unlock()
				return errors.Wrapf(err, "failed to sync file %d", fd.FileID)
			}
		}
		fd.mu.Unlock()
	}

	return nil
}

// CloseFile syncs and closes a specific file
func (dm *DiskManager) CloseFile(fileID uint32) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	fd, exists := dm.files[fileID]
	if !exists {
		return errors.Errorf("file %d not found", fileID)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	delete(dm.files, fileID)
	delete(dm.paths, fd.FilePath)

	if fd.File == nil {
		return nil // Already closed
	}

	if err := fd.File.Sync(); err != nil {
		return errors.Wrap(err, "failed to sync before close")
	}
	if err := fd.File.Close(); err != nil {
		return errors.Wrap(err, "failed to close file")
	}
	fd.File = nil

	logger.Debugf("[DiskManager] CloseFile fileID=%d path=%s", fileID, fd.FilePath)
	return nil
}

// CloseAll closes all open files and the page cache.
func (dm *DiskManager) CloseAll() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	var lastErr error
	for fileID, fd := range dm.files {
		fd.mu.Lock()
		if fd.File != nil {
			if err := fd.File.Sync(); err != nil {
				lastErr = err
			}
			if err := fd.File.Close(); err != nil {
				lastErr = err
			}
			fd.File = nil
		}
		fd.mu.Unlock()
		delete(dm.files, fileID)
		delete(dm.paths, fd.FilePath)
	}

	if dm.pageCache != nil {
		dm.pageCache.Close()
		dm.pageCache = nil
	}

	return lastErr
}

// RemoveFile deletes a file that is not open.
func (dm *DiskManager) RemoveFile(filePath string) error {
	filePath = filepath.Clean(filePath)

	dm.mu.RLock()
	_, open := dm.paths[filePath]
	dm.mu.RUnlock()
	if open {
		return errors.Errorf("RemoveFile: %s is still open", filePath)
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrFileNotFound, "RemoveFile: %s", filePath)
		}
		return errors.Wrapf(err, "RemoveFile: %s", filePath)
	}
	return nil
}
