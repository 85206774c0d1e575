package bplus

import (
	"DaemonIndex/types"

	"github.com/pkg/errors"
)

/*
Every node page starts with the same 20 byte header:

	0   8  reserved, zero
	8   1  page type stamp (written by the disk manager, never read for navigation)
	12  4  count  uint32
	16  4  leaf: right sibling page number / internal: level

Leaf capacity L and internal capacity K for a key width w:

	20 + L*(w+RecordIdSize) <= PageSize
	20 + K*w + (K+1)*4      <= PageSize
*/
const (
	nodeOffCount        = 12
	leafOffSibling      = 16
	internalOffLevel    = 16
	nodeHeaderSize      = 20
	childPointerSize    = 4
	minLeafCapacity     = 2
	minInternalCapacity = 2
)

// nodeLayout fixes the key width and fan-out of one index.
type nodeLayout struct {
	keyWidth    int
	leafCap     int
	internalCap int
}

// MaxLeafCapacity is the number of entries a leaf page holds for keys of type t.
func MaxLeafCapacity(t types.Datatype) int {
	return (types.PageSize - nodeHeaderSize) / (t.KeySize() + types.RecordIdSize)
}

// MaxInternalCapacity is the number of separators an internal page holds for keys of type t.
func MaxInternalCapacity(t types.Datatype) int {
	return (types.PageSize - nodeHeaderSize - childPointerSize) / (t.KeySize() + childPointerSize)
}

func newNodeLayout(t types.Datatype, leafCap, internalCap int) (nodeLayout, error) {
	if !t.Valid() {
		return nodeLayout{}, errors.Errorf("newNodeLayout: unsupported attribute type %s", t)
	}

	maxLeaf, maxInternal := MaxLeafCapacity(t), MaxInternalCapacity(t)
	if leafCap == 0 || leafCap > maxLeaf {
		leafCap = maxLeaf
	}
	if internalCap == 0 || internalCap > maxInternal {
		internalCap = maxInternal
	}
	if leafCap < minLeafCapacity || internalCap < minInternalCapacity {
		return nodeLayout{}, errors.Errorf("newNodeLayout: capacities leaf=%d internal=%d below minimum %d/%d",
			leafCap, internalCap, minLeafCapacity, minInternalCapacity)
	}

	return nodeLayout{
		keyWidth:    t.KeySize(),
		leafCap:     leafCap,
		internalCap: internalCap,
	}, nil
}
