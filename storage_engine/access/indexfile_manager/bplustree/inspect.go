package bplus

import (
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/types"

	"github.com/pkg/errors"
)

// NodeInfo is a copy of one node, produced by Walk.
type NodeInfo struct {
	PageNo       uint32
	Level        uint32 // 0 for leaves
	Keys         [][]byte
	Rids         []types.RecordId // leaves only
	Children     []uint32         // internal nodes only
	RightSibling uint32           // leaves only
}

func (n NodeInfo) IsLeaf() bool { return n.Level == 0 }

func (t *BTreeIndex) Name() string { return t.name }

func (t *BTreeIndex) AttrType() types.Datatype { return t.attrType }

// Height is the number of levels, 1 while the root is a leaf.
func (t *BTreeIndex) Height() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int(t.rootLevel) + 1
}

func (t *BTreeIndex) RootPageNo() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rootPageNo
}

// Metadata describes the index as stored in its metadata page.
func (t *BTreeIndex) Metadata() Metadata {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Metadata{
		Version:          formatVersion,
		RelationName:     storedRelationName(t.relationName),
		AttrByteOffset:   t.attrByteOffset,
		AttrType:         t.attrType,
		RootPageNo:       t.rootPageNo,
		RootLevel:        t.rootLevel,
		LeafCapacity:     t.layout.leafCap,
		InternalCapacity: t.layout.internalCap,
		KeyWidth:         t.layout.keyWidth,
	}
}

// Walk visits every node depth first, parents before children and children
// left to right. Only the node being copied is pinned.
func (t *BTreeIndex) Walk(fn func(NodeInfo) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.Errorf("Walk: index %s is closed", t.name)
	}
	return t.walk(t.rootPageNo, t.rootLevel, fn)
}

func (t *BTreeIndex) walk(pageNo uint32, level uint32, fn func(NodeInfo) error) error {
	info, err := t.readNode(pageNo, level)
	if err != nil {
		return err
	}
	if err := fn(info); err != nil {
		return err
	}
	for _, child := range info.Children {
		if err := t.walk(child, level-1, fn); err != nil {
			return err
		}
	}
	return nil
}

func (t *BTreeIndex) readNode(pageNo uint32, level uint32) (NodeInfo, error) {
	pg, err := t.fetchPage(pageNo)
	if err != nil {
		return NodeInfo{}, errors.Wrap(err, "Walk")
	}
	defer t.releasePage(pg, false)

	info := NodeInfo{PageNo: pageNo, Level: level}
	if level == 0 {
		v := t.leafOf(pg)
		for i := 0; i < v.count(); i++ {
			info.Keys = append(info.Keys, append([]byte(nil), v.key(i)...))
			info.Rids = append(info.Rids, v.rid(i))
		}
		info.RightSibling = v.rightSibling()
		return info, nil
	}

	v := t.internalOf(pg)
	if v.level() != level {
		return NodeInfo{}, errors.Errorf("Walk: page %d has level %d, expected %d", pageNo, v.level(), level)
	}
	for i := 0; i < v.count(); i++ {
		info.Keys = append(info.Keys, append([]byte(nil), v.key(i)...))
	}
	for i := 0; i <= v.count(); i++ {
		info.Children = append(info.Children, v.child(i))
	}
	return info, nil
}

// ReadMetadata reads the metadata page of the index file at path without
// opening the index. Tools use it to recover the Config of an unknown file.
func ReadMetadata(diskManager *diskmanager.DiskManager, path string) (Metadata, error) {
	fileID, err := diskManager.OpenExistingFile(path)
	if err != nil {
		return Metadata{}, errors.Wrap(err, "ReadMetadata")
	}
	defer diskManager.CloseFile(fileID)

	pg, err := diskManager.ReadPage(diskmanager.GlobalPageID(fileID, metaPageNo))
	if err != nil {
		return Metadata{}, errors.Wrap(err, "ReadMetadata")
	}
	if pg.PageType != types.PageTypeMetadata {
		return Metadata{}, errors.Wrapf(ErrBadIndexInfo, "%s: page 0 is %s", path, pg.PageType)
	}
	m := metaView{data: pg.Data}.read()
	if m.Version != formatVersion {
		return Metadata{}, errors.Wrapf(ErrBadIndexInfo, "%s: format version %d", path, m.Version)
	}
	return m, nil
}
