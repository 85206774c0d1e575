package heapfile

import (
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/storage_engine/page"
	"DaemonIndex/types"

	"github.com/pkg/errors"
)

/*
This file contains helpers related to HeapFileManager and HeapFile
*/

func (hfm *HeapFileManager) GetHeapFile(relationName string) (*HeapFile, error) {
	hfm.mu.RLock()
	defer hfm.mu.RUnlock()

	fileID, exists := hfm.relationIndex[relationName]
	if !exists {
		return nil, errors.Errorf("no heap file open for relation '%s'", relationName)
	}

	hf, exists := hfm.files[fileID]
	if !exists {
		return nil, errors.Errorf("heap file index inconsistency for relation '%s'", relationName)
	}

	return hf, nil
}

func (hf *HeapFile) Name() string { return hf.relationName }

func (hf *HeapFile) FileID() uint32 { return hf.fileID }

func (hf *HeapFile) FilePath() string { return hf.filePath }

// NumPages returns the number of pages allocated to the heap file.
func (hf *HeapFile) NumPages() (uint32, error) {
	n, err := hf.diskManager.NumPages(hf.fileID)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// findSuitablePage returns a pinned page with room for a record of the
// given size. Records are appended, so only the last page is considered
// before a new one is allocated.
func (hf *HeapFile) findSuitablePage(requiredSpace int) (*page.Page, error) {
	numPages, err := hf.NumPages()
	if err != nil {
		return nil, err
	}

	if numPages > 0 {
		lastID := diskmanager.GlobalPageID(hf.fileID, numPages-1)
		pg, err := hf.bufferPool.FetchPage(lastID)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch page %d", numPages-1)
		}
		if FreeSpace(pg) >= requiredSpace {
			return pg, nil
		}
		if err := hf.bufferPool.UnpinPage(lastID, false); err != nil {
			return nil, err
		}
	}

	// Allocate new page.
	pg, err := hf.bufferPool.NewPage(hf.fileID, types.PageTypeHeapData)
	if err != nil {
		return nil, err
	}
	InitHeapPage(pg, pg.LocalPageNum()) // always initialize new pages

	return pg, nil
}

// Flush writes all dirty pages of this heap file
func (hf *HeapFile) Flush() error {
	return hf.bufferPool.FlushFile(hf.fileID)
}
