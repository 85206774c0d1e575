package bplus

import (
	"DaemonIndex/storage_engine/page"

	"github.com/pkg/errors"
)

// splitInternal splits the full, pinned internal node while inserting
// separator key at pos with right child c. With K the node capacity, the left
// node keeps K/2 separators and K/2+1 children, the separator after them is
// promoted, and the rest moves to a new right sibling at the same level. The
// promoted separator is kept in neither node. Both pages are released before
// returning.
func (t *BTreeIndex) splitInternal(node *page.Page, pos int, key []byte, c uint32) ([]byte, uint32, error) {
	nv := t.internalOf(node)

	right, rv, err := t.newInternal(nv.level())
	if err != nil {
		return nil, 0, t.releaseOnError(node, false, errors.Wrap(err, "splitInternal"))
	}

	keys, children := internalEntries(nv, pos, key, c)
	mid := nv.count() / 2

	promoted := keys[mid]
	fillInternal(nv, keys[:mid], children[:mid+1])
	fillInternal(rv, keys[mid+1:], children[mid+1:])

	rightNo := right.LocalPageNum()

	errLeft := t.releasePage(node, true)
	errRight := t.releasePage(right, true)
	if errLeft != nil {
		return nil, 0, errLeft
	}
	if errRight != nil {
		return nil, 0, errRight
	}
	return promoted, rightNo, nil
}
