package storageengine

import (
	"DaemonIndex/conf"
	"DaemonIndex/logger"
	heapfile "DaemonIndex/storage_engine/access/heapfile_manager"
	indexfile "DaemonIndex/storage_engine/access/indexfile_manager"
	bplus "DaemonIndex/storage_engine/access/indexfile_manager/bplustree"
	lsmrelation "DaemonIndex/storage_engine/access/lsm_relation"
	"DaemonIndex/storage_engine/bufferpool"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/types"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

/*
The main file of storage engine. It wires one disk manager and one buffer pool
under every relation and index of a data directory:

	{data_dir}/tables/{relation}        heap files
	{data_dir}/lsm/{relation}/          pebble relations
	{data_dir}/indexes/{relation}.{off} index files
	{data_dir}/indexes/metadata/        index catalog
*/

func NewStorageEngine(cfg *conf.Cfg) (*StorageEngine, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create data dir")
	}

	dm, err := diskmanager.NewDiskManager(cfg.PageCacheBytes)
	if err != nil {
		return nil, err
	}
	bp := bufferpool.NewBufferPool(cfg.BufferPoolPages, dm)

	ifm, err := indexfile.NewIndexFileManager(filepath.Join(cfg.DataDir, "indexes"), dm, bp)
	if err != nil {
		_ = dm.CloseAll()
		return nil, errors.Wrap(err, "failed to init index manager")
	}

	se := &StorageEngine{
		BufferPool:       bp,
		DiskManager:      dm,
		HeapManager:      heapfile.NewHeapFileManager(filepath.Join(cfg.DataDir, "tables"), dm, bp),
		IndexManager:     ifm,
		DataDir:          cfg.DataDir,
		leafCapacity:     cfg.LeafCapacity,
		internalCapacity: cfg.InternalCapacity,
		lsmRelations:     make(map[string]*lsmrelation.Relation),
	}
	logger.Debugf("[StorageEngine] data dir %s, buffer pool %d pages", cfg.DataDir, cfg.BufferPoolPages)
	return se, nil
}

// OpenRelation opens the relation called name in the given store, creating
// it when it does not exist yet.
func (se *StorageEngine) OpenRelation(name string, source Source) (Relation, error) {
	switch source {
	case SourceHeap:
		hf, err := se.HeapManager.OpenHeapFile(name)
		if errors.Is(err, diskmanager.ErrFileNotFound) {
			hf, err = se.HeapManager.CreateHeapFile(name)
		}
		if err != nil {
			return nil, err
		}
		return hf, nil

	case SourceLSM:
		se.lsmMu.Lock()
		defer se.lsmMu.Unlock()
		if r, ok := se.lsmRelations[name]; ok {
			return lsmRelation{r}, nil
		}
		r, err := lsmrelation.Open(filepath.Join(se.DataDir, "lsm", name), name)
		if err != nil {
			return nil, err
		}
		se.lsmRelations[name] = r
		return lsmRelation{r}, nil
	}
	return nil, errors.Errorf("unknown relation source %q", source)
}

// BuildIndex opens the index over the attribute at attrByteOffset of rel,
// bulk loading it from rel when the index file does not exist yet.
func (se *StorageEngine) BuildIndex(rel Relation, attrByteOffset int32, attrType types.Datatype) (*bplus.BTreeIndex, error) {
	return se.IndexManager.GetOrCreateIndex(bplus.Config{
		RelationName:     rel.Name(),
		AttrByteOffset:   attrByteOffset,
		AttrType:         attrType,
		LeafCapacity:     se.leafCapacity,
		InternalCapacity: se.internalCapacity,
	}, rel)
}

// Close closes indexes first, then relations, then the files underneath.
func (se *StorageEngine) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	keep(se.IndexManager.CloseAll())
	keep(se.HeapManager.CloseAll())

	se.lsmMu.Lock()
	for name, r := range se.lsmRelations {
		keep(r.Close())
		delete(se.lsmRelations, name)
	}
	se.lsmMu.Unlock()

	keep(se.DiskManager.CloseAll())
	return firstErr
}

// lsmRelation adapts a pebble relation to the Relation interface.
type lsmRelation struct {
	*lsmrelation.Relation
}

func (r lsmRelation) InsertRecord(record []byte) (types.RecordId, error) {
	return r.AppendRecord(record)
}
