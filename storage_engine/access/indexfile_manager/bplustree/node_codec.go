package bplus

import (
	"DaemonIndex/types"
	"bytes"
	"encoding/binary"
)

/*
Typed views over raw page bytes. A view only remembers the page slice and the
layout; every accessor reads or writes Data directly, so there is nothing to
serialize back before the page is unpinned.

Leaf node:

	12  4     count
	16  4     right sibling page number (InvalidPageNo for the rightmost leaf)
	20  L*w   keys
	..  L*8   record ids: page uint32 | slot uint16 | pad uint16

Internal node:

	12  4         count
	16  4         level (1 when the children are leaves)
	20  K*w       separator keys
	..  (K+1)*4   child page numbers

Metadata page:

	12  2   format version
	16  20  relation name, zero padded
	36  4   attribute byte offset
	40  4   attribute type
	44  4   root page number
	48  4   root level
	52  4   leaf capacity
	56  4   internal capacity
	60  4   key width

All integers are little-endian.
*/

// ─────────────────────────────────────────────────────────────────────────────
// Leaf
// ─────────────────────────────────────────────────────────────────────────────

type leafView struct {
	data []byte
	l    nodeLayout
}

func (v leafView) init() {
	clear(v.data[:types.PageTypeOffset])
	clear(v.data[types.PageTypeOffset+1:])
	v.data[types.PageTypeOffset] = byte(types.PageTypeBPlusLeaf)
}

func (v leafView) count() int {
	return int(binary.LittleEndian.Uint32(v.data[nodeOffCount:]))
}

func (v leafView) setCount(n int) {
	binary.LittleEndian.PutUint32(v.data[nodeOffCount:], uint32(n))
}

func (v leafView) rightSibling() uint32 {
	return binary.LittleEndian.Uint32(v.data[leafOffSibling:])
}

func (v leafView) setRightSibling(pageNo uint32) {
	binary.LittleEndian.PutUint32(v.data[leafOffSibling:], pageNo)
}

func (v leafView) keyOff(i int) int {
	return nodeHeaderSize + i*v.l.keyWidth
}

func (v leafView) ridOff(i int) int {
	return nodeHeaderSize + v.l.leafCap*v.l.keyWidth + i*types.RecordIdSize
}

// key returns the key bytes of slot i, aliasing the page.
func (v leafView) key(i int) []byte {
	off := v.keyOff(i)
	return v.data[off : off+v.l.keyWidth]
}

func (v leafView) setKey(i int, k []byte) {
	copy(v.data[v.keyOff(i):v.keyOff(i+1)], k)
}

func (v leafView) rid(i int) types.RecordId {
	return types.GetRecordId(v.data[v.ridOff(i):])
}

func (v leafView) setRid(i int, rid types.RecordId) {
	types.PutRecordId(v.data[v.ridOff(i):], rid)
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal
// ─────────────────────────────────────────────────────────────────────────────

type internalView struct {
	data []byte
	l    nodeLayout
}

func (v internalView) init(level uint32) {
	clear(v.data[:types.PageTypeOffset])
	clear(v.data[types.PageTypeOffset+1:])
	v.data[types.PageTypeOffset] = byte(types.PageTypeBPlusInternal)
	v.setLevel(level)
}

func (v internalView) count() int {
	return int(binary.LittleEndian.Uint32(v.data[nodeOffCount:]))
}

func (v internalView) setCount(n int) {
	binary.LittleEndian.PutUint32(v.data[nodeOffCount:], uint32(n))
}

func (v internalView) level() uint32 {
	return binary.LittleEndian.Uint32(v.data[internalOffLevel:])
}

func (v internalView) setLevel(level uint32) {
	binary.LittleEndian.PutUint32(v.data[internalOffLevel:], level)
}

func (v internalView) keyOff(i int) int {
	return nodeHeaderSize + i*v.l.keyWidth
}

func (v internalView) childOff(i int) int {
	return nodeHeaderSize + v.l.internalCap*v.l.keyWidth + i*childPointerSize
}

func (v internalView) key(i int) []byte {
	off := v.keyOff(i)
	return v.data[off : off+v.l.keyWidth]
}

func (v internalView) setKey(i int, k []byte) {
	copy(v.data[v.keyOff(i):v.keyOff(i+1)], k)
}

func (v internalView) child(i int) uint32 {
	return binary.LittleEndian.Uint32(v.data[v.childOff(i):])
}

func (v internalView) setChild(i int, pageNo uint32) {
	binary.LittleEndian.PutUint32(v.data[v.childOff(i):], pageNo)
}

// ─────────────────────────────────────────────────────────────────────────────
// Metadata
// ─────────────────────────────────────────────────────────────────────────────

const (
	metaOffVersion     = 12
	metaOffRelation    = 16
	metaOffAttrOffset  = 36
	metaOffAttrType    = 40
	metaOffRoot        = 44
	metaOffRootLevel   = 48
	metaOffLeafCap     = 52
	metaOffInternalCap = 56
	metaOffKeyWidth    = 60
)

type metaView struct {
	data []byte
}

func (v metaView) write(m Metadata) {
	clear(v.data[:types.PageTypeOffset])
	clear(v.data[types.PageTypeOffset+1:])
	v.data[types.PageTypeOffset] = byte(types.PageTypeMetadata)

	binary.LittleEndian.PutUint16(v.data[metaOffVersion:], m.Version)
	copy(v.data[metaOffRelation:metaOffRelation+relationNameSize], m.RelationName)
	binary.LittleEndian.PutUint32(v.data[metaOffAttrOffset:], uint32(m.AttrByteOffset))
	binary.LittleEndian.PutUint32(v.data[metaOffAttrType:], uint32(m.AttrType))
	binary.LittleEndian.PutUint32(v.data[metaOffLeafCap:], uint32(m.LeafCapacity))
	binary.LittleEndian.PutUint32(v.data[metaOffInternalCap:], uint32(m.InternalCapacity))
	binary.LittleEndian.PutUint32(v.data[metaOffKeyWidth:], uint32(m.KeyWidth))
	v.setRoot(m.RootPageNo, m.RootLevel)
}

func (v metaView) read() Metadata {
	name := v.data[metaOffRelation : metaOffRelation+relationNameSize]
	return Metadata{
		Version:          binary.LittleEndian.Uint16(v.data[metaOffVersion:]),
		RelationName:     string(bytes.TrimRight(name, "\x00")),
		AttrByteOffset:   int32(binary.LittleEndian.Uint32(v.data[metaOffAttrOffset:])),
		AttrType:         types.Datatype(binary.LittleEndian.Uint32(v.data[metaOffAttrType:])),
		RootPageNo:       binary.LittleEndian.Uint32(v.data[metaOffRoot:]),
		RootLevel:        binary.LittleEndian.Uint32(v.data[metaOffRootLevel:]),
		LeafCapacity:     int(binary.LittleEndian.Uint32(v.data[metaOffLeafCap:])),
		InternalCapacity: int(binary.LittleEndian.Uint32(v.data[metaOffInternalCap:])),
		KeyWidth:         int(binary.LittleEndian.Uint32(v.data[metaOffKeyWidth:])),
	}
}

func (v metaView) setRoot(pageNo, level uint32) {
	binary.LittleEndian.PutUint32(v.data[metaOffRoot:], pageNo)
	binary.LittleEndian.PutUint32(v.data[metaOffRootLevel:], level)
}

// storedRelationName is the form of name the metadata page can hold.
func storedRelationName(name string) string {
	if len(name) > relationNameSize {
		name = name[:relationNameSize]
	}
	return string(bytes.TrimRight([]byte(name), "\x00"))
}
