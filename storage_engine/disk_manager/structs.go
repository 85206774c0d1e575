package diskmanager

import (
	"os"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

// ############################################# FILE DESCRIPTOR ###########################################

// FileDescriptor represents an open file managed by the disk manager
type FileDescriptor struct {
	FileID     uint32
	FilePath   string
	File       *os.File
	NextPageID int64 // Next available local page number within this file
	mu         sync.RWMutex
}

// ############################################# DISK MANAGER #############################################

// DiskManager manages all disk I/O operations and file handles
type DiskManager struct {
	files      map[uint32]*FileDescriptor // fileID -> file descriptor
	paths      map[string]uint32          // filePath -> fileID
	nextFileID uint32                     // file ids are never reused within one DiskManager
	pageCache  *ristretto.Cache[int64, []byte]
	mu         sync.RWMutex
}
