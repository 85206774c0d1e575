package bplus

import (
	"DaemonIndex/logger"
	"DaemonIndex/storage_engine/bufferpool"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/types"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// IndexName is the file name of the index over attrByteOffset of relation.
func IndexName(relationName string, attrByteOffset int32) string {
	return fmt.Sprintf("%s.%d", relationName, attrByteOffset)
}

// OpenBTreeIndex opens the index "{relation}.{offset}" in cfg.Dir. If the file
// does not exist it is created and bulk loaded from relation, which may be
// nil for an empty index. An existing file whose metadata disagrees with cfg
// yields ErrBadIndexInfo. The index name is returned alongside the index.
func OpenBTreeIndex(cfg Config, relation types.RelationSource, bufferPool *bufferpool.BufferPool, diskManager *diskmanager.DiskManager) (*BTreeIndex, string, error) {
	name := IndexName(cfg.RelationName, cfg.AttrByteOffset)

	if cfg.RelationName == "" {
		return nil, name, errors.New("OpenBTreeIndex: relation name is required")
	}
	if cfg.AttrByteOffset < 0 {
		return nil, name, errors.Errorf("OpenBTreeIndex: negative attribute offset %d", cfg.AttrByteOffset)
	}
	layout, err := newNodeLayout(cfg.AttrType, cfg.LeafCapacity, cfg.InternalCapacity)
	if err != nil {
		return nil, name, errors.Wrap(err, "OpenBTreeIndex")
	}

	t := &BTreeIndex{
		name:           name,
		filePath:       filepath.Join(cfg.Dir, name),
		bufferPool:     bufferPool,
		diskManager:    diskManager,
		relationName:   cfg.RelationName,
		attrByteOffset: cfg.AttrByteOffset,
		attrType:       cfg.AttrType,
		layout:         layout,
		cmp:            cfg.AttrType.Comparator(),
	}

	fileID, err := diskManager.OpenExistingFile(t.filePath)
	switch {
	case err == nil:
		t.fileID = fileID
		if err := t.load(); err != nil {
			_ = t.closeFile()
			return nil, name, err
		}
		logger.Infof("[BTree] opened %s: root page %d, height %d", name, t.rootPageNo, t.rootLevel+1)
		return t, name, nil

	case errors.Is(err, diskmanager.ErrFileNotFound):
		if cfg.Dir != "" {
			if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
				return nil, name, errors.Wrap(err, "OpenBTreeIndex: failed to create index directory")
			}
		}
		if t.fileID, err = diskManager.OpenFile(t.filePath); err != nil {
			return nil, name, errors.Wrap(err, "OpenBTreeIndex")
		}
		if err := t.create(); err != nil {
			t.discard()
			return nil, name, err
		}
		if err := t.bulkLoad(relation); err != nil {
			t.discard()
			return nil, name, err
		}
		return t, name, nil

	default:
		return nil, name, errors.Wrapf(err, "OpenBTreeIndex: %s", t.filePath)
	}
}

// create writes the metadata page (page 0) and an empty root leaf (page 1).
func (t *BTreeIndex) create() error {
	meta, err := t.bufferPool.NewPage(t.fileID, types.PageTypeMetadata)
	if err != nil {
		return errors.Wrap(err, "create: metadata page")
	}
	if meta.LocalPageNum() != metaPageNo {
		return t.releaseOnError(meta, false, errors.Errorf("create: metadata landed on page %d", meta.LocalPageNum()))
	}

	root, _, err := t.newLeaf()
	if err != nil {
		return t.releaseOnError(meta, false, errors.Wrap(err, "create"))
	}
	t.rootPageNo = root.LocalPageNum()
	t.rootLevel = 0

	metaView{data: meta.Data}.write(Metadata{
		Version:          formatVersion,
		RelationName:     t.relationName,
		AttrByteOffset:   t.attrByteOffset,
		AttrType:         t.attrType,
		RootPageNo:       t.rootPageNo,
		RootLevel:        t.rootLevel,
		LeafCapacity:     t.layout.leafCap,
		InternalCapacity: t.layout.internalCap,
		KeyWidth:         t.layout.keyWidth,
	})

	errRoot := t.releasePage(root, true)
	errMeta := t.releasePage(meta, true)
	if errRoot != nil {
		return errRoot
	}
	if errMeta != nil {
		return errMeta
	}

	if t.rootPageNo != initialRootNo {
		return errors.Errorf("create: root leaf landed on page %d", t.rootPageNo)
	}
	logger.Debugf("[BTree] created %s: type=%s leafCap=%d internalCap=%d",
		t.name, t.attrType, t.layout.leafCap, t.layout.internalCap)
	return nil
}

// load reads and validates the metadata page of an existing index.
func (t *BTreeIndex) load() error {
	numPages, err := t.diskManager.NumPages(t.fileID)
	if err != nil {
		return errors.Wrap(err, "load")
	}
	if numPages < 2 {
		return errors.Wrapf(ErrBadIndexInfo, "%s has %d pages", t.name, numPages)
	}

	meta, err := t.fetchMetaPage()
	if err != nil {
		return errors.Wrap(err, "load")
	}
	m := metaView{data: meta.Data}.read()
	if err := t.releasePage(meta, false); err != nil {
		return err
	}

	switch {
	case m.Version != formatVersion:
		return errors.Wrapf(ErrBadIndexInfo, "%s: format version %d", t.name, m.Version)
	case m.RelationName != storedRelationName(t.relationName):
		return errors.Wrapf(ErrBadIndexInfo, "%s: built for relation %q", t.name, m.RelationName)
	case m.AttrByteOffset != t.attrByteOffset:
		return errors.Wrapf(ErrBadIndexInfo, "%s: built for offset %d", t.name, m.AttrByteOffset)
	case m.AttrType != t.attrType:
		return errors.Wrapf(ErrBadIndexInfo, "%s: built for type %s", t.name, m.AttrType)
	case m.KeyWidth != t.attrType.KeySize():
		return errors.Wrapf(ErrBadIndexInfo, "%s: key width %d", t.name, m.KeyWidth)
	case m.RootPageNo == InvalidPageNo || int64(m.RootPageNo) >= numPages:
		return errors.Wrapf(ErrBadIndexInfo, "%s: root page %d out of range", t.name, m.RootPageNo)
	}

	// The fan-out the file was built with wins over the configured one.
	layout, err := newNodeLayout(m.AttrType, m.LeafCapacity, m.InternalCapacity)
	if err != nil {
		return errors.Wrapf(ErrBadIndexInfo, "%s: %v", t.name, err)
	}
	if layout.leafCap != m.LeafCapacity || layout.internalCap != m.InternalCapacity {
		return errors.Wrapf(ErrBadIndexInfo, "%s: capacities %d/%d exceed page size",
			t.name, m.LeafCapacity, m.InternalCapacity)
	}

	t.layout = layout
	t.rootPageNo = m.RootPageNo
	t.rootLevel = m.RootLevel
	return nil
}

// bulkLoad inserts every record of relation, keyed by the attribute at
// attrByteOffset.
func (t *BTreeIndex) bulkLoad(relation types.RelationSource) error {
	if relation == nil {
		logger.Infof("[BTree] created empty index %s", t.name)
		return nil
	}

	scanner, err := relation.OpenScan()
	if err != nil {
		return errors.Wrap(err, "bulkLoad: failed to open relation scan")
	}
	defer scanner.Close()

	start := int(t.attrByteOffset)
	end := start + t.layout.keyWidth

	var loaded int64
	for {
		rid, record, err := scanner.ScanNext()
		if errors.Is(err, types.ErrEndOfRelation) {
			break
		}
		if err != nil {
			return errors.Wrap(err, "bulkLoad: relation scan")
		}
		if len(record) < end {
			return errors.Wrapf(ErrKeyTypeMismatch, "bulkLoad: record %s has %d bytes, attribute needs [%d,%d)",
				rid, len(record), start, end)
		}
		if err := t.insertEntry(record[start:end], rid); err != nil {
			return errors.Wrapf(err, "bulkLoad: record %s", rid)
		}
		loaded++
	}

	logger.Infof("[BTree] built %s from %s: %s entries, height %d",
		t.name, t.relationName, humanize.Comma(loaded), t.rootLevel+1)
	return nil
}

// Close ends any running scan, writes every dirty page of the index to disk
// and releases the file. The index cannot be used afterwards.
func (t *BTreeIndex) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	if t.scan.status != scanIdle {
		if err := t.endScan(); err != nil {
			return errors.Wrap(err, "Close")
		}
	}

	if err := t.bufferPool.FlushFile(t.fileID); err != nil {
		return errors.Wrap(err, "Close: failed to flush pages")
	}
	if err := t.closeFile(); err != nil {
		return errors.Wrap(err, "Close")
	}

	t.closed = true
	logger.Debugf("[BTree] closed %s", t.name)
	return nil
}

// closeFile drops the index pages from the buffer pool and closes the file.
func (t *BTreeIndex) closeFile() error {
	if err := t.bufferPool.DropFile(t.fileID); err != nil {
		return err
	}
	return t.diskManager.CloseFile(t.fileID)
}

// discard removes a partially created index file.
func (t *BTreeIndex) discard() {
	if err := t.closeFile(); err != nil {
		logger.Warnf("[BTree] discard %s: %v", t.name, err)
		return
	}
	if err := t.diskManager.RemoveFile(t.filePath); err != nil {
		logger.Warnf("[BTree] discard %s: %v", t.name, err)
	}
}
