package bplus

import (
	"DaemonIndex/logger"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/storage_engine/page"
	"DaemonIndex/types"

	"github.com/pkg/errors"
)

// Every helper that returns a *page.Page returns it pinned; the caller must
// hand it back through releasePage exactly once.

func (t *BTreeIndex) globalID(pageNo uint32) int64 {
	return diskmanager.GlobalPageID(t.fileID, pageNo)
}

// fetchPage pins a page of the index file.
func (t *BTreeIndex) fetchPage(pageNo uint32) (*page.Page, error) {
	if pageNo == InvalidPageNo {
		return nil, errors.New("fetchPage: invalid page number")
	}
	pg, err := t.bufferPool.FetchPage(t.globalID(pageNo))
	if err != nil {
		return nil, errors.Wrapf(err, "fetchPage: page %d of %s", pageNo, t.name)
	}
	return pg, nil
}

// fetchMetaPage pins the metadata page (page 0).
func (t *BTreeIndex) fetchMetaPage() (*page.Page, error) {
	pg, err := t.bufferPool.FetchPage(t.globalID(metaPageNo))
	if err != nil {
		return nil, errors.Wrapf(err, "fetchMetaPage: %s", t.name)
	}
	return pg, nil
}

// newLeaf allocates and pins an empty leaf.
func (t *BTreeIndex) newLeaf() (*page.Page, leafView, error) {
	pg, err := t.bufferPool.NewPage(t.fileID, types.PageTypeBPlusLeaf)
	if err != nil {
		return nil, leafView{}, errors.Wrap(err, "newLeaf: failed to allocate page")
	}
	v := t.leafOf(pg)
	v.init()
	return pg, v, nil
}

// newInternal allocates and pins an empty internal node at the given level.
func (t *BTreeIndex) newInternal(level uint32) (*page.Page, internalView, error) {
	pg, err := t.bufferPool.NewPage(t.fileID, types.PageTypeBPlusInternal)
	if err != nil {
		return nil, internalView{}, errors.Wrap(err, "newInternal: failed to allocate page")
	}
	v := t.internalOf(pg)
	v.init(level)
	return pg, v, nil
}

func (t *BTreeIndex) leafOf(pg *page.Page) leafView {
	return leafView{data: pg.Data, l: t.layout}
}

func (t *BTreeIndex) internalOf(pg *page.Page) internalView {
	return internalView{data: pg.Data, l: t.layout}
}

// releasePage unpins pg. dirty must be true iff pg was modified under this pin.
func (t *BTreeIndex) releasePage(pg *page.Page, dirty bool) error {
	if pg == nil {
		return nil
	}
	if err := t.bufferPool.UnpinPage(pg.ID, dirty); err != nil {
		return errors.Wrapf(err, "releasePage: page %d of %s", pg.LocalPageNum(), t.name)
	}
	return nil
}

// releaseOnError unpins pg on a failure path, keeping the original error.
func (t *BTreeIndex) releaseOnError(pg *page.Page, dirty bool, cause error) error {
	if err := t.releasePage(pg, dirty); err != nil {
		logger.Warnf("[BTree] %v (while handling: %v)", err, cause)
	}
	return cause
}
