package heapfile

import (
	page "DaemonIndex/storage_engine/page"
	"DaemonIndex/types"
	"encoding/binary"

	"github.com/pkg/errors"
)

/*
This file contains standalone functions operating on *page.Page for heap file operations.
All functions take *page.Page as first argument since methods cannot be defined on
types from external packages.

Heap page binary layout (all values little-endian):

	Offset  Size  Field
	──────────────────────────────────────────────────────
	0       8     reserved, zero
	8       1     PageType        uint8   — stamped by DiskManager on write
	12      4     PageNo          uint32
	16      2     RecordEndPtr    uint16  — first free byte after last record
	18      2     SlotRegionStart uint16  — first byte of slot directory
	20      2     NumRows         uint16  — live records
	22      2     SlotCount       uint16  — total slot entries (live + tombstone)
	──────────────────────────────────────────────────────
	24            HeapHeaderSize

Standard slotted-page layout:

	[ header 24B ][ records → ][ free space ][ ← slot dir ]
	0            24            ^             ^             4096
	                           RecordEndPtr  SlotRegionStart

	Records grow FORWARD  from HeapHeaderSize.
	Slot directory grows BACKWARD from PageSize.
	Free space is the gap between RecordEndPtr and SlotRegionStart.

A slot entry is 4 bytes: [ Offset uint16 ][ Length uint16 ]

	Offset  — absolute byte offset from start of page to the record data.
	Length  — byte length of the record (0 = tombstone / deleted).

Slot i lives at:  PageSize - (i+1)*SlotSize
This means slot 0 is at bytes 4092-4095, slot 1 at 4088-4091, etc.
*/
const (
	heapOffPageNo          = 12 // uint32 (4)
	heapOffRecordEndPtr    = 16 // uint16 (2)
	heapOffSlotRegionStart = 18 // uint16 (2)
	heapOffNumRows         = 20 // uint16 (2)
	heapOffSlotCount       = 22 // uint16 (2)

	// HeapHeaderSize is the fixed header size in bytes.
	// Records start at this offset on a fresh page.
	HeapHeaderSize = types.HeapPageHeaderSize

	// SlotSize is the byte size of one slot entry: Offset(2) + Length(2).
	SlotSize = types.SlotSize

	// MaxRecordSize is the largest record a single empty page can hold.
	MaxRecordSize = page.PageSize - HeapHeaderSize - SlotSize
)

// ─────────────────────────────────────────────────────────────────────────────
// Initialisation
// ─────────────────────────────────────────────────────────────────────────────

// InitHeapPage stamps a fresh heap-page header into pg.Data.
//
// After this call:
//   - PageNo          == pageNo
//   - RecordEndPtr    == HeapHeaderSize (records start right after header)
//   - SlotRegionStart == PageSize       (slot dir starts at end of page, empty)
//   - NumRows         == 0
//   - SlotCount       == 0
//   - All other bytes zeroed
func InitHeapPage(pg *page.Page, pageNo uint32) {
	for i := range pg.Data {
		pg.Data[i] = 0
	}

	pg.PageType = types.PageTypeHeapData
	pg.Data[types.PageTypeOffset] = byte(types.PageTypeHeapData)
	binary.LittleEndian.PutUint32(pg.Data[heapOffPageNo:], pageNo)
	binary.LittleEndian.PutUint16(pg.Data[heapOffRecordEndPtr:], HeapHeaderSize)
	binary.LittleEndian.PutUint16(pg.Data[heapOffSlotRegionStart:], page.PageSize)

	pg.IsDirty = true
}

// ─────────────────────────────────────────────────────────────────────────────
// Record operations
// ─────────────────────────────────────────────────────────────────────────────

// InsertRecord writes data into the page and returns the slot index.
// Returns an error if there is insufficient space — caller must get a new page.
func InsertRecord(pg *page.Page, data []byte) (slotIdx uint16, err error) {
	recordLen := uint16(len(data))
	if recordLen == 0 {
		return 0, errors.New("InsertRecord: data must not be empty")
	}
	if FreeSpace(pg) < int(recordLen) {
		return 0, errors.Errorf("InsertRecord: need %d bytes, only %d available",
			recordLen, FreeSpace(pg))
	}

	// Slots are append-only so record ids handed out earlier stay stable.
	slotIdx = GetSlotCount(pg)

	// Write record data at RecordEndPtr and advance it forward.
	recordOffset := GetRecordEndPtr(pg)
	copy(pg.Data[recordOffset:], data)
	setRecordEndPtr(pg, recordOffset+recordLen)

	writeSlot(pg, slotIdx, recordOffset, recordLen)
	setSlotRegionStart(pg, GetSlotRegionStart(pg)-SlotSize)
	setSlotCount(pg, slotIdx+1)
	setNumRows(pg, GetNumRows(pg)+1)

	pg.IsDirty = true
	return slotIdx, nil
}

// GetRecord returns a copy of the record at slotIdx.
func GetRecord(pg *page.Page, slotIdx uint16) ([]byte, error) {
	if slotIdx >= GetSlotCount(pg) {
		return nil, errors.Errorf("GetRecord: slot %d out of range (count=%d)",
			slotIdx, GetSlotCount(pg))
	}
	offset, length := readSlot(pg, slotIdx)
	if length == 0 {
		return nil, errors.Errorf("GetRecord: slot %d is a tombstone", slotIdx)
	}
	out := make([]byte, length)
	copy(out, pg.Data[offset:offset+length])
	return out, nil
}

// DeleteRecord marks slotIdx as a tombstone.
// Space used by the record is NOT reclaimed; the slot entry remains so
// existing record ids stay valid.
func DeleteRecord(pg *page.Page, slotIdx uint16) error {
	if slotIdx >= GetSlotCount(pg) {
		return errors.Errorf("DeleteRecord: slot %d out of range (count=%d)",
			slotIdx, GetSlotCount(pg))
	}
	if _, length := readSlot(pg, slotIdx); length == 0 {
		return errors.Errorf("DeleteRecord: slot %d already deleted", slotIdx)
	}
	writeSlot(pg, slotIdx, 0, 0) // tombstone: offset=0, length=0
	setNumRows(pg, GetNumRows(pg)-1)
	pg.IsDirty = true
	return nil
}
