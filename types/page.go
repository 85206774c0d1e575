package types

const (
	PageSize = 4096 // 4KB page

	// PageTypeOffset is the byte every page reserves for the page type stamp.
	// Bytes [0, PageTypeOffset) are reserved and kept zero.
	PageTypeOffset = 8

	HeapPageHeaderSize = 24 // 24 bytes
	SlotSize           = 4  // 4 bytes per slot entry (offset: 2B, length: 2B)
)

type PageType uint8

const (
	PageTypeUnknown PageType = iota
	PageTypeHeapData
	PageTypeBPlusNode
	PageTypeMetadata
	PageTypeBPlusLeaf
	PageTypeBPlusInternal
)

func (pt PageType) String() string {
	switch pt {
	case PageTypeHeapData:
		return "heap"
	case PageTypeBPlusNode:
		return "bplus"
	case PageTypeMetadata:
		return "meta"
	case PageTypeBPlusLeaf:
		return "leaf"
	case PageTypeBPlusInternal:
		return "internal"
	default:
		return "unknown"
	}
}
