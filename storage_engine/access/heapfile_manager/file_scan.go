package heapfile

import (
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/types"

	"github.com/pkg/errors"
)

// OpenScan starts a full scan of the relation. Records inserted after the
// scan was opened on pages beyond the current end are not returned.
func (hf *HeapFile) OpenScan() (types.RelationScanner, error) {
	numPages, err := hf.NumPages()
	if err != nil {
		return nil, errors.Wrapf(err, "OpenScan: relation %s", hf.relationName)
	}
	return &FileScan{hf: hf, numPages: numPages}, nil
}

// ScanNext returns the next live record and its id, or ErrEndOfRelation.
// Each call pins a single page and releases it before returning.
func (fs *FileScan) ScanNext() (types.RecordId, []byte, error) {
	if fs.closed {
		return types.RecordId{}, nil, errors.New("ScanNext: scan is closed")
	}

	for fs.pageNum < fs.numPages {
		rid, record, found, err := fs.nextOnPage()
		if err != nil {
			return types.RecordId{}, nil, err
		}
		if found {
			return rid, record, nil
		}
		fs.pageNum++
		fs.slotNum = 0
	}

	return types.RecordId{}, nil, ErrEndOfRelation
}

// nextOnPage looks for the next live slot on the current page.
func (fs *FileScan) nextOnPage() (types.RecordId, []byte, bool, error) {
	hf := fs.hf
	globalPageID := diskmanager.GlobalPageID(hf.fileID, fs.pageNum)

	pg, err := hf.bufferPool.FetchPage(globalPageID)
	if err != nil {
		return types.RecordId{}, nil, false, errors.Wrapf(err, "ScanNext: fetch page %d", fs.pageNum)
	}
	defer hf.bufferPool.UnpinPage(globalPageID, false)

	pg.RLock()
	defer pg.RUnlock()

	if pg.PageType != types.PageTypeHeapData {
		return types.RecordId{}, nil, false, nil
	}

	for slotCount := GetSlotCount(pg); fs.slotNum < slotCount; fs.slotNum++ {
		if !IsSlotLive(pg, fs.slotNum) {
			continue
		}
		record, err := GetRecord(pg, fs.slotNum)
		if err != nil {
			return types.RecordId{}, nil, false, err
		}
		rid := types.RecordId{PageNumber: fs.pageNum, SlotNumber: fs.slotNum}
		fs.slotNum++
		return rid, record, true, nil
	}
	return types.RecordId{}, nil, false, nil
}

// Close ends the scan. No pages are held between calls, so Close only marks
// the scan unusable.
func (fs *FileScan) Close() error {
	fs.closed = true
	return nil
}
