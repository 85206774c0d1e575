package bplus

import (
	"DaemonIndex/types"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacities(t *testing.T) {
	cases := []struct {
		typ      types.Datatype
		leaf     int
		internal int
	}{
		{types.INTEGER, 339, 509},
		{types.DOUBLE, 254, 339},
		{types.STRING, 226, 290},
	}
	for _, c := range cases {
		t.Run(c.typ.String(), func(t *testing.T) {
			assert.Equal(t, c.leaf, MaxLeafCapacity(c.typ))
			assert.Equal(t, c.internal, MaxInternalCapacity(c.typ))

			w := c.typ.KeySize()
			assert.LessOrEqual(t, nodeHeaderSize+c.leaf*(w+types.RecordIdSize), types.PageSize)
			assert.LessOrEqual(t, nodeHeaderSize+c.internal*w+(c.internal+1)*childPointerSize, types.PageSize)
		})
	}
}

func TestNewNodeLayout(t *testing.T) {
	l, err := newNodeLayout(types.INTEGER, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, nodeLayout{keyWidth: 4, leafCap: 339, internalCap: 509}, l)

	l, err = newNodeLayout(types.DOUBLE, 4, 10_000)
	require.NoError(t, err)
	assert.Equal(t, 4, l.leafCap)
	assert.Equal(t, 339, l.internalCap, "capacity is capped at the page maximum")

	_, err = newNodeLayout(types.INTEGER, 1, 3)
	assert.Error(t, err)
	_, err = newNodeLayout(types.Datatype(9), 0, 0)
	assert.Error(t, err)
}

func TestLeafInsertKeepsOrderAndTies(t *testing.T) {
	l, err := newNodeLayout(types.INTEGER, 8, 0)
	require.NoError(t, err)
	v := leafView{data: make([]byte, types.PageSize), l: l}
	v.init()
	cmp := types.INTEGER.Comparator()

	insert := func(k int32, slot uint16) {
		key := types.EncodeInt(k)
		leafInsertAt(v, upperBound(v.count(), v.key, key, cmp), key, types.RecordId{PageNumber: 1, SlotNumber: slot})
	}
	insert(30, 0)
	insert(10, 1)
	insert(20, 2)
	insert(20, 3)
	insert(-5, 4)

	require.Equal(t, 5, v.count())
	var keys []int32
	var slots []uint16
	for i := 0; i < v.count(); i++ {
		keys = append(keys, types.DecodeInt(v.key(i)))
		slots = append(slots, v.rid(i).SlotNumber)
	}
	assert.Equal(t, []int32{-5, 10, 20, 20, 30}, keys)
	assert.Equal(t, []uint16{4, 1, 2, 3, 0}, slots, "equal keys keep insertion order")

	assert.Equal(t, 2, lowerBound(v.count(), v.key, types.EncodeInt(20), cmp))
	assert.Equal(t, 4, upperBound(v.count(), v.key, types.EncodeInt(20), cmp))
	assert.Equal(t, 5, lowerBound(v.count(), v.key, types.EncodeInt(31), cmp))
}

func TestInternalInsertAt(t *testing.T) {
	l, err := newNodeLayout(types.INTEGER, 0, 6)
	require.NoError(t, err)
	v := internalView{data: make([]byte, types.PageSize), l: l}
	v.init(1)

	v.setKey(0, types.EncodeInt(50))
	v.setChild(0, 10)
	v.setChild(1, 11)
	v.setCount(1)

	internalInsertAt(v, 1, types.EncodeInt(70), 12)
	internalInsertAt(v, 0, types.EncodeInt(20), 13)

	require.Equal(t, 3, v.count())
	assert.Equal(t, int32(20), types.DecodeInt(v.key(0)))
	assert.Equal(t, int32(50), types.DecodeInt(v.key(1)))
	assert.Equal(t, int32(70), types.DecodeInt(v.key(2)))
	assert.Equal(t, []uint32{10, 13, 11, 12}, []uint32{v.child(0), v.child(1), v.child(2), v.child(3)})
	assert.Equal(t, uint32(1), v.level())
}

func TestInternalEntriesMerge(t *testing.T) {
	l, err := newNodeLayout(types.INTEGER, 0, 3)
	require.NoError(t, err)
	v := internalView{data: make([]byte, types.PageSize), l: l}
	v.init(2)
	fillInternal(v, [][]byte{types.EncodeInt(10), types.EncodeInt(20), types.EncodeInt(30)}, []uint32{1, 2, 3, 4})

	keys, children := internalEntries(v, 2, types.EncodeInt(25), 9)
	var got []int32
	for _, k := range keys {
		got = append(got, types.DecodeInt(k))
	}
	assert.Equal(t, []int32{10, 20, 25, 30}, got)
	assert.Equal(t, []uint32{1, 2, 3, 9, 4}, children)
}

func TestMetaViewRoundTrip(t *testing.T) {
	data := make([]byte, types.PageSize)
	m := Metadata{
		Version:          formatVersion,
		RelationName:     "relation_name_longer_than_twenty",
		AttrByteOffset:   12,
		AttrType:         types.STRING,
		RootPageNo:       7,
		RootLevel:        2,
		LeafCapacity:     226,
		InternalCapacity: 290,
		KeyWidth:         10,
	}
	metaView{data: data}.write(m)

	got := metaView{data: data}.read()
	assert.Equal(t, storedRelationName(m.RelationName), got.RelationName)
	assert.Len(t, got.RelationName, relationNameSize)
	got.RelationName = m.RelationName
	assert.Equal(t, m, got)

	assert.Equal(t, byte(types.PageTypeMetadata), data[types.PageTypeOffset])
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(data[44:]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[48:]))
}
