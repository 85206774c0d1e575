package catalog

import (
	"DaemonIndex/types"
	"sync"
)

type CatalogManager struct {
	dataDir string
	indexes map[string]IndexDef
	mu      sync.RWMutex
}

// IndexDef is everything needed to reopen an index file.
type IndexDef struct {
	Name           string         `json:"name"`
	RelationName   string         `json:"relation_name"`
	AttrByteOffset int32          `json:"attr_byte_offset"`
	AttrType       types.Datatype `json:"attr_type"`
}
