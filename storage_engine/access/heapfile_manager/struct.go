package heapfile

import (
	"DaemonIndex/storage_engine/bufferpool"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"sync"
)

// Slot represents an entry in the slot directory at the bottom of the page
// Stored at the end of the page, grows backward
type Slot struct {
	Offset uint16 // Offset from start of page to record data
	Length uint16 // Length of the record data
}

// HeapFile represents the record file of a single base relation
type HeapFile struct {
	fileID       uint32 // which file it is
	relationName string // relation this heap file stores
	diskManager  *diskmanager.DiskManager
	bufferPool   *bufferpool.BufferPool
	filePath     string
	mu           sync.RWMutex
}

// HeapFileManager manages all open heap files
type HeapFileManager struct {
	baseDir       string
	files         map[uint32]*HeapFile
	relationIndex map[string]uint32 // relationName → fileID (name-based lookup)
	bufferPool    *bufferpool.BufferPool
	diskManager   *diskmanager.DiskManager
	mu            sync.RWMutex
}

// FileScan walks every live record of a heap file in (page, slot) order.
type FileScan struct {
	hf       *HeapFile
	pageNum  uint32
	slotNum  uint16
	numPages uint32
	closed   bool
}
