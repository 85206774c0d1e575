// Structure of B+ Tree
/*
Tree
 ├── Internal Node (separator keys + child page numbers + level)
 │      └── Child Internal Nodes ...
 │             └── Leaf Nodes (keys + record ids + right sibling)


- keys: sorted non-decreasing, fixed width per attribute type
- internal nodes: children length == count+1
- leaf nodes: record ids parallel to keys
- leaf nodes linked through the right sibling for range scans
- all leaf nodes at same depth (level 0); an internal node's level is one
  more than its children's

Page 0 of every index file holds the metadata, page 1 is the first root leaf.
Because page 0 is never a node, page number 0 doubles as the INVALID pointer.
*/
package bplus

import (
	"DaemonIndex/storage_engine/bufferpool"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/storage_engine/page"
	"DaemonIndex/types"
	"sync"
)

const (
	metaPageNo    uint32 = 0
	initialRootNo uint32 = 1
	InvalidPageNo uint32 = 0
	formatVersion uint16 = 1

	relationNameSize = 20
)

// Config describes the index to open or create.
type Config struct {
	RelationName   string
	AttrByteOffset int32
	AttrType       types.Datatype
	Dir            string // directory holding the index file

	// Fan-out overrides used when the index is created. Zero means the
	// largest capacity that fits a page.
	LeafCapacity     int
	InternalCapacity int
}

// Metadata mirrors the metadata page of an index file.
type Metadata struct {
	Version          uint16
	RelationName     string
	AttrByteOffset   int32
	AttrType         types.Datatype
	RootPageNo       uint32
	RootLevel        uint32
	LeafCapacity     int
	InternalCapacity int
	KeyWidth         int
}

type scanStatus int

const (
	scanIdle scanStatus = iota
	scanExecuting
	scanCompleted
)

// scanState is the cursor of the single range scan an index supports.
type scanState struct {
	status    scanStatus
	lowVal    []byte
	lowOp     types.Operator
	highVal   []byte
	highOp    types.Operator
	leaf      *page.Page // pinned while executing
	nextEntry int
}

// pathEntry is one step of a root-to-leaf descent: the internal page visited
// and the child slot taken from it.
type pathEntry struct {
	pageNo   uint32
	childIdx int
}

// BTreeIndex is a disk resident B+ tree over one fixed width attribute of a relation.
type BTreeIndex struct {
	name           string
	filePath       string
	fileID         uint32                   // DiskManager file ID for this index
	bufferPool     *bufferpool.BufferPool   // shared buffer pool
	diskManager    *diskmanager.DiskManager // shared disk manager
	relationName   string
	attrByteOffset int32
	attrType       types.Datatype
	layout         nodeLayout
	cmp            func(a, b []byte) int // key comparator for attrType
	rootPageNo     uint32                // local page number of the root
	rootLevel      uint32                // 0 while the root is a leaf
	scan           scanState
	closed         bool
	mu             sync.Mutex
}
