package bplus

import (
	"DaemonIndex/storage_engine/page"

	"github.com/pkg/errors"
)

type descentMode int

const (
	// descendRight follows the child after every separator <= key. Used by
	// insertion so equal keys land to the right of existing ones.
	descendRight descentMode = iota
	// descendLeft follows the child before every separator >= key. Used to
	// position scans on the leftmost leaf that may hold key.
	descendLeft
)

// findLeaf walks from the root to a leaf. The leaf is returned pinned; the
// internal nodes on the way are unpinned as soon as the child is chosen and
// are reported in the returned path, root first.
func (t *BTreeIndex) findLeaf(key []byte, mode descentMode) (*page.Page, []pathEntry, error) {
	pageNo := t.rootPageNo
	level := t.rootLevel
	path := make([]pathEntry, 0, level)

	for level > 0 {
		pg, err := t.fetchPage(pageNo)
		if err != nil {
			return nil, nil, errors.Wrap(err, "findLeaf")
		}

		v := t.internalOf(pg)
		if v.level() != level {
			return nil, nil, t.releaseOnError(pg, false,
				errors.Errorf("findLeaf: page %d has level %d, expected %d", pageNo, v.level(), level))
		}

		var i int
		if mode == descendRight {
			i = upperBound(v.count(), v.key, key, t.cmp)
		} else {
			i = lowerBound(v.count(), v.key, key, t.cmp)
		}
		next := v.child(i)

		if err := t.releasePage(pg, false); err != nil {
			return nil, nil, err
		}

		path = append(path, pathEntry{pageNo: pageNo, childIdx: i})
		pageNo = next
		level--
	}

	leaf, err := t.fetchPage(pageNo)
	if err != nil {
		return nil, nil, errors.Wrap(err, "findLeaf")
	}
	return leaf, path, nil
}
