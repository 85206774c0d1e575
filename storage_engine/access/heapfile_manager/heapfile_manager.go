package heapfile

import (
	"DaemonIndex/logger"
	"DaemonIndex/storage_engine/bufferpool"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/types"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

/*
This file is the start of the heapfile manager
This is responsible for creation of heapfiles, which is ultimately initialization of heap pages

Heapfile manager knows Disk Manager for file related operations like OpenFile, CloseFile
and it also knows the Buffer Pool to add the created/accessed pages to the cache.

A relation is stored in a single heap file named after the relation inside baseDir.
*/

// ErrEndOfRelation is returned by FileScan.ScanNext after the last record.
var ErrEndOfRelation = types.ErrEndOfRelation

// NewHeapFileManager creates a new heap file manager
func NewHeapFileManager(baseDir string, diskManager *diskmanager.DiskManager, bufferPool *bufferpool.BufferPool) *HeapFileManager {
	return &HeapFileManager{
		baseDir:       baseDir,
		files:         make(map[uint32]*HeapFile),
		relationIndex: make(map[string]uint32),
		diskManager:   diskManager,
		bufferPool:    bufferPool,
	}
}

// Chain of command this function drives:
//  1. DiskManager.OpenFile  → creates the OS file, returns a fileID
//  2. BufferPool.NewPage    → allocates a page ID (RAM only, dirty)
//  3. InitHeapPage          → writes header fields into the in-RAM buffer
//  4. BufferPool.UnpinPage  → caller is done; pool may flush when it needs space
//  5. (later) BufferPool flush → DiskManager.WritePage → bytes hit disk
func (hfm *HeapFileManager) CreateHeapFile(relationName string) (*HeapFile, error) {
	hfm.mu.Lock()
	defer hfm.mu.Unlock()

	// Guard: refuse to create a duplicate entry for the same relation.
	if _, exists := hfm.relationIndex[relationName]; exists {
		return nil, errors.Errorf("heap file for relation '%s' already open", relationName)
	}

	heapPath := hfm.pathFor(relationName)
	if _, err := os.Stat(heapPath); err == nil {
		return nil, errors.Errorf("heap file %s already exists", heapPath)
	}

	if err := os.MkdirAll(hfm.baseDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create heap directory")
	}

	fileID, err := hfm.diskManager.OpenFile(heapPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create heap file")
	}

	pg, err := hfm.bufferPool.NewPage(fileID, types.PageTypeHeapData)
	if err != nil {
		_ = hfm.diskManager.CloseFile(fileID)
		return nil, errors.Wrap(err, "buffer pool failed to allocate first page")
	}

	InitHeapPage(pg, pg.LocalPageNum())

	if err := hfm.bufferPool.UnpinPage(pg.ID, true); err != nil {
		_ = hfm.diskManager.CloseFile(fileID)
		return nil, errors.Wrap(err, "failed to unpin first heap page")
	}

	logger.Debugf("[Heap] CREATE relation=%s fileID=%d path=%s", relationName, fileID, heapPath)
	return hfm.register(relationName, fileID, heapPath), nil
}

// OpenHeapFile opens the heap file of an existing relation. A missing file is
// reported as diskmanager.ErrFileNotFound.
func (hfm *HeapFileManager) OpenHeapFile(relationName string) (*HeapFile, error) {
	hfm.mu.Lock()
	defer hfm.mu.Unlock()

	// Already loaded.
	if fileID, exists := hfm.relationIndex[relationName]; exists {
		return hfm.files[fileID], nil
	}

	heapPath := hfm.pathFor(relationName)
	fileID, err := hfm.diskManager.OpenExistingFile(heapPath)
	if err != nil {
		return nil, errors.Wrapf(err, "OpenHeapFile: relation %s", relationName)
	}

	logger.Debugf("[Heap] OPEN relation=%s fileID=%d path=%s", relationName, fileID, heapPath)
	return hfm.register(relationName, fileID, heapPath), nil
}

// CloseHeapFile flushes the relation's pages, drops them from the buffer pool
// and closes the file.
func (hfm *HeapFileManager) CloseHeapFile(relationName string) error {
	hfm.mu.Lock()
	defer hfm.mu.Unlock()

	fileID, exists := hfm.relationIndex[relationName]
	if !exists {
		return errors.Errorf("no heap file open for relation '%s'", relationName)
	}
	return hfm.closeLocked(relationName, fileID)
}

// CloseAll closes every open heap file.
func (hfm *HeapFileManager) CloseAll() error {
	hfm.mu.Lock()
	defer hfm.mu.Unlock()

	var firstErr error
	for name, fileID := range hfm.relationIndex {
		if err := hfm.closeLocked(name, fileID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (hfm *HeapFileManager) closeLocked(relationName string, fileID uint32) error {
	if err := hfm.bufferPool.DropFile(fileID); err != nil {
		return errors.Wrapf(err, "CloseHeapFile: relation %s", relationName)
	}
	if err := hfm.diskManager.CloseFile(fileID); err != nil {
		return errors.Wrapf(err, "CloseHeapFile: relation %s", relationName)
	}
	delete(hfm.files, fileID)
	delete(hfm.relationIndex, relationName)
	return nil
}

func (hfm *HeapFileManager) register(relationName string, fileID uint32, heapPath string) *HeapFile {
	hf := &HeapFile{
		fileID:       fileID,
		relationName: relationName,
		filePath:     heapPath,
		diskManager:  hfm.diskManager,
		bufferPool:   hfm.bufferPool,
	}
	hfm.files[fileID] = hf
	hfm.relationIndex[relationName] = fileID
	return hf
}

func (hfm *HeapFileManager) pathFor(relationName string) string {
	return filepath.Join(hfm.baseDir, relationName)
}
