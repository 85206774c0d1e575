package heapfile

import (
	page "DaemonIndex/storage_engine/page"
	"encoding/binary"
)

// ─────────────────────────────────────────────────────────────────────────────
// Header accessors
// ─────────────────────────────────────────────────────────────────────────────

func GetPageNo(pg *page.Page) uint32 {
	return binary.LittleEndian.Uint32(pg.Data[heapOffPageNo:])
}

// RecordEndPtr is the first free byte after the last written record.
// New records are written starting at this offset, then it advances forward.
func GetRecordEndPtr(pg *page.Page) uint16 {
	return binary.LittleEndian.Uint16(pg.Data[heapOffRecordEndPtr:])
}
func setRecordEndPtr(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[heapOffRecordEndPtr:], v)
}

// SlotRegionStart is the byte offset of the first (highest-index) slot entry.
// The slot directory grows backward from PageSize; this pointer moves left
// each time a new slot is appended.
func GetSlotRegionStart(pg *page.Page) uint16 {
	return binary.LittleEndian.Uint16(pg.Data[heapOffSlotRegionStart:])
}
func setSlotRegionStart(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[heapOffSlotRegionStart:], v)
}

func GetNumRows(pg *page.Page) uint16 {
	return binary.LittleEndian.Uint16(pg.Data[heapOffNumRows:])
}
func setNumRows(pg *page.Page, n uint16) {
	binary.LittleEndian.PutUint16(pg.Data[heapOffNumRows:], n)
}

func GetSlotCount(pg *page.Page) uint16 {
	return binary.LittleEndian.Uint16(pg.Data[heapOffSlotCount:])
}
func setSlotCount(pg *page.Page, n uint16) {
	binary.LittleEndian.PutUint16(pg.Data[heapOffSlotCount:], n)
}

// ─────────────────────────────────────────────────────────────────────────────
// Free space
// ─────────────────────────────────────────────────────────────────────────────

// FreeSpace returns the bytes available for a new record including the slot
// entry it would consume.
//
//	available = SlotRegionStart - RecordEndPtr - SlotSize
//
// SlotRegionStart moves left as slots are added.
// RecordEndPtr    moves right as records are added.
// When they meet, the page is full.
func FreeSpace(pg *page.Page) int {
	available := int(GetSlotRegionStart(pg)) - int(GetRecordEndPtr(pg)) - SlotSize
	if available < 0 {
		return 0
	}
	return available
}

// ─────────────────────────────────────────────────────────────────────────────
// Slot directory
// ─────────────────────────────────────────────────────────────────────────────

// slotByteOffset returns the byte offset in Data where slot i begins.
// Slot 0 is at the highest address (PageSize - SlotSize),
// slot 1 is just below it, and so on.
func slotByteOffset(i uint16) int {
	return page.PageSize - (int(i)+1)*SlotSize
}

func readSlot(pg *page.Page, i uint16) (offset, length uint16) {
	base := slotByteOffset(i)
	return binary.LittleEndian.Uint16(pg.Data[base:]),
		binary.LittleEndian.Uint16(pg.Data[base+2:])
}

func writeSlot(pg *page.Page, i uint16, offset, length uint16) {
	base := slotByteOffset(i)
	binary.LittleEndian.PutUint16(pg.Data[base:], offset)
	binary.LittleEndian.PutUint16(pg.Data[base+2:], length)
}

func IsSlotLive(pg *page.Page, i uint16) bool {
	if i >= GetSlotCount(pg) {
		return false
	}
	offset, length := readSlot(pg, i)
	return offset != 0 && length != 0
}
