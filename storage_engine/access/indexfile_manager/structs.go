package indexfile

import (
	bplus "DaemonIndex/storage_engine/access/indexfile_manager/bplustree"
	"DaemonIndex/storage_engine/bufferpool"
	"DaemonIndex/storage_engine/catalog"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"sync"
)

type IndexFileManager struct {
	baseDir     string                       // e.g., /data/indexes
	indexes     map[string]*bplus.BTreeIndex // index name ("relation.offset") → open index
	catalog     *catalog.CatalogManager      // persisted index definitions
	bufferPool  *bufferpool.BufferPool       // ← shared with heap files
	diskManager *diskmanager.DiskManager     // ← shared with heap files
	mu          sync.RWMutex
}
