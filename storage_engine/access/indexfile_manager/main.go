package indexfile

import (
	"DaemonIndex/logger"
	bplus "DaemonIndex/storage_engine/access/indexfile_manager/bplustree"
	"DaemonIndex/storage_engine/bufferpool"
	"DaemonIndex/storage_engine/catalog"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/types"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

/*
This file is the main file for Index File Manager that deals with the index files
Similar to HeapFileManager this also has access to disk manager and buffer pool

Every index lives in its own file named "{relation}.{attribute offset}" inside baseDir.
Indexes are cached by that name so several callers share one open BTreeIndex.
Every index opened through the manager is recorded in the catalog, which lets
OpenRegistered bring them all back after a restart.
*/

func NewIndexFileManager(baseDir string, diskManager *diskmanager.DiskManager, bufferPool *bufferpool.BufferPool) (*IndexFileManager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create indexes directory")
	}
	cm, err := catalog.NewCatalogManager(baseDir)
	if err != nil {
		return nil, err
	}

	return &IndexFileManager{
		baseDir:     baseDir,
		indexes:     make(map[string]*bplus.BTreeIndex),
		catalog:     cm,
		bufferPool:  bufferPool,
		diskManager: diskManager,
	}, nil
}

// GetOrCreateIndex returns the open index described by cfg, opening the file
// or building it from relation on first use. cfg.Dir is ignored; indexes
// always live in the manager's base directory.
func (ifm *IndexFileManager) GetOrCreateIndex(cfg bplus.Config, relation types.RelationSource) (*bplus.BTreeIndex, error) {
	name := bplus.IndexName(cfg.RelationName, cfg.AttrByteOffset)

	ifm.mu.RLock()
	idx, exists := ifm.indexes[name]
	ifm.mu.RUnlock()

	if exists {
		if idx.AttrType() != cfg.AttrType {
			return nil, errors.Wrapf(bplus.ErrBadIndexInfo, "index %s is open with type %s", name, idx.AttrType())
		}
		return idx, nil
	}

	// Slow path: open or create the index file.
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	// Double-check after acquiring write lock.
	if idx, exists := ifm.indexes[name]; exists {
		return idx, nil
	}

	cfg.Dir = ifm.baseDir
	idx, _, err := bplus.OpenBTreeIndex(cfg, relation, ifm.bufferPool, ifm.diskManager)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open index %s", name)
	}

	err = ifm.catalog.Register(catalog.IndexDef{
		Name:           name,
		RelationName:   cfg.RelationName,
		AttrByteOffset: cfg.AttrByteOffset,
		AttrType:       cfg.AttrType,
	})
	if err != nil {
		_ = idx.Close()
		return nil, errors.Wrapf(err, "failed to register index %s", name)
	}

	ifm.indexes[name] = idx
	return idx, nil
}

// OpenRegistered opens every index recorded in the catalog whose file is
// still present and returns their names. Catalog entries whose file is gone
// are dropped from the catalog.
func (ifm *IndexFileManager) OpenRegistered() ([]string, error) {
	var opened []string
	for _, def := range ifm.catalog.Definitions() {
		if _, err := os.Stat(filepath.Join(ifm.baseDir, def.Name)); os.IsNotExist(err) {
			logger.Warnf("[IndexFileManager] %s is registered but its file is missing", def.Name)
			if err := ifm.catalog.Unregister(def.Name); err != nil {
				return opened, err
			}
			continue
		}

		cfg := bplus.Config{
			RelationName:   def.RelationName,
			AttrByteOffset: def.AttrByteOffset,
			AttrType:       def.AttrType,
		}
		if _, err := ifm.GetOrCreateIndex(cfg, nil); err != nil {
			return opened, err
		}
		opened = append(opened, def.Name)
	}
	return opened, nil
}

// DropIndex closes the index if it is open, deletes its file and forgets it.
func (ifm *IndexFileManager) DropIndex(name string) error {
	if err := ifm.CloseIndex(name); err != nil {
		return err
	}

	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	if err := ifm.diskManager.RemoveFile(filepath.Join(ifm.baseDir, name)); err != nil && !errors.Is(err, diskmanager.ErrFileNotFound) {
		return errors.Wrapf(err, "failed to drop index %s", name)
	}
	if err := ifm.catalog.Unregister(name); err != nil && !errors.Is(err, catalog.ErrIndexNotRegistered) {
		return err
	}
	logger.Infof("[IndexFileManager] dropped index %s", name)
	return nil
}

// GetIndex returns an already open index by name.
func (ifm *IndexFileManager) GetIndex(name string) (*bplus.BTreeIndex, bool) {
	ifm.mu.RLock()
	defer ifm.mu.RUnlock()
	idx, ok := ifm.indexes[name]
	return idx, ok
}

// IndexNames lists the open indexes in name order.
func (ifm *IndexFileManager) IndexNames() []string {
	ifm.mu.RLock()
	defer ifm.mu.RUnlock()

	names := make([]string, 0, len(ifm.indexes))
	for name := range ifm.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseIndex closes one index and removes it from the cache.
// The index is flushed to disk before closing.
func (ifm *IndexFileManager) CloseIndex(name string) error {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	idx, exists := ifm.indexes[name]
	if !exists {
		return nil // not open, nothing to do
	}

	if err := idx.Close(); err != nil {
		return errors.Wrapf(err, "failed to close index %s", name)
	}

	delete(ifm.indexes, name)
	return nil
}

// CloseAll closes all cached indexes and clears the cache.
func (ifm *IndexFileManager) CloseAll() error {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	var lastErr error
	for name, idx := range ifm.indexes {
		if err := idx.Close(); err != nil {
			lastErr = errors.Wrapf(err, "failed to close index %s", name)
		}
		delete(ifm.indexes, name)
	}

	return lastErr
}
