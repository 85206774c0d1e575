package heapfile

import (
	"DaemonIndex/logger"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/types"

	"github.com/pkg/errors"
)

// InsertRecord appends a record to the heap file and returns its record id.
func (hf *HeapFile) InsertRecord(data []byte) (types.RecordId, error) {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	if len(data) == 0 {
		return types.RecordId{}, errors.New("InsertRecord: empty record")
	}
	if len(data) > MaxRecordSize {
		return types.RecordId{}, errors.Errorf("record too large: %d bytes (max: %d)", len(data), MaxRecordSize)
	}

	pg, err := hf.findSuitablePage(len(data))
	if err != nil {
		return types.RecordId{}, errors.Wrap(err, "failed to find suitable page")
	}

	pg.Lock()
	slotIdx, err := InsertRecord(pg, data)
	pg.Unlock()
	if err != nil {
		_ = hf.bufferPool.UnpinPage(pg.ID, true)
		return types.RecordId{}, errors.Wrap(err, "failed to insert record into page")
	}

	if err := hf.bufferPool.UnpinPage(pg.ID, true); err != nil {
		return types.RecordId{}, err
	}

	rid := types.RecordId{PageNumber: pg.LocalPageNum(), SlotNumber: slotIdx}
	logger.Debugf("[Heap] INSERT relation=%s rid=%s len=%d", hf.relationName, rid, len(data))
	return rid, nil
}

// GetRecord returns a copy of the record stored at rid.
func (hf *HeapFile) GetRecord(rid types.RecordId) ([]byte, error) {
	hf.mu.RLock()
	defer hf.mu.RUnlock()

	globalPageID := diskmanager.GlobalPageID(hf.fileID, rid.PageNumber)
	pg, err := hf.bufferPool.FetchPage(globalPageID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch page %d", rid.PageNumber)
	}
	defer hf.bufferPool.UnpinPage(pg.ID, false)

	pg.RLock()
	defer pg.RUnlock()

	return GetRecord(pg, rid.SlotNumber)
}

// DeleteRecord tombstones the record at rid. Its record id is never reused.
func (hf *HeapFile) DeleteRecord(rid types.RecordId) error {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	globalPageID := diskmanager.GlobalPageID(hf.fileID, rid.PageNumber)
	pg, err := hf.bufferPool.FetchPage(globalPageID)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch page %d", rid.PageNumber)
	}

	pg.Lock()
	err = DeleteRecord(pg, rid.SlotNumber)
	pg.Unlock()

	if unpinErr := hf.bufferPool.UnpinPage(pg.ID, err == nil); unpinErr != nil && err == nil {
		err = unpinErr
	}
	if err == nil {
		logger.Debugf("[Heap] DELETE relation=%s rid=%s", hf.relationName, rid)
	}
	return err
}
