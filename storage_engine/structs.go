package storageengine

import (
	heapfile "DaemonIndex/storage_engine/access/heapfile_manager"
	indexfile "DaemonIndex/storage_engine/access/indexfile_manager"
	lsmrelation "DaemonIndex/storage_engine/access/lsm_relation"
	"DaemonIndex/storage_engine/bufferpool"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/types"
	"sync"
)

// Source selects where a relation's records are stored.
type Source string

const (
	SourceHeap Source = "heap"
	SourceLSM  Source = "lsm"
)

type StorageEngine struct {
	BufferPool   *bufferpool.BufferPool
	DiskManager  *diskmanager.DiskManager
	HeapManager  *heapfile.HeapFileManager
	IndexManager *indexfile.IndexFileManager

	DataDir          string
	leafCapacity     int
	internalCapacity int

	lsmMu        sync.Mutex
	lsmRelations map[string]*lsmrelation.Relation
}

// Relation is a base relation that indexes can be built over.
type Relation interface {
	types.RelationSource
	Name() string
	InsertRecord(record []byte) (types.RecordId, error)
	GetRecord(rid types.RecordId) ([]byte, error)
}
