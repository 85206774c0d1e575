package page

import (
	"DaemonIndex/types"
	"sync"
)

const PageSize = types.PageSize

/*
Page is the in-memory frame shared by every page kind: heap pages of a
relation, the index metadata page and B+ tree nodes. The byte layout of
Data belongs to the owning layer:

	heap page:  /DaemonIndex/storage_engine/access/heapfile_manager/heap_page.go
	index page: /DaemonIndex/storage_engine/access/indexfile_manager/bplustree/node_codec.go

All layouts keep bytes [0,8) zero and leave byte 8 for the page type stamp the
disk manager writes, so the stamp never collides with page content.
*/
type Page struct {
	ID       int64 // global page id: fileID<<32 | local page number
	FileID   uint32
	Data     []byte
	IsDirty  bool
	PinCount int32
	PageType types.PageType
	mu       sync.RWMutex
}

// LocalPageNum is the page number inside its file.
func (p *Page) LocalPageNum() uint32 {
	return uint32(p.ID & 0xFFFFFFFF)
}

func (p *Page) Lock() {
	p.mu.Lock()
}

func (p *Page) Unlock() {
	p.mu.Unlock()
}

func (p *Page) RLock() {
	p.mu.RLock()
}

func (p *Page) RUnlock() {
	p.mu.RUnlock()
}
