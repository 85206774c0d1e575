package bplus

import (
	"DaemonIndex/storage_engine/page"
	"DaemonIndex/types"

	"github.com/pkg/errors"
)

// splitLeaf splits the full, pinned leaf while inserting (key, rid) at pos.
// The first ceil((L+1)/2) entries stay in leaf, the rest move to a new right
// sibling. Both pages are released before returning. The promoted key is the
// first key of the new sibling.
func (t *BTreeIndex) splitLeaf(leaf *page.Page, pos int, key []byte, rid types.RecordId) ([]byte, uint32, error) {
	right, rv, err := t.newLeaf()
	if err != nil {
		return nil, 0, t.releaseOnError(leaf, false, errors.Wrap(err, "splitLeaf"))
	}

	lv := t.leafOf(leaf)
	keys, rids := leafEntries(lv, pos, key, rid)
	leftCount := (len(keys) + 1) / 2

	fillLeaf(lv, keys[:leftCount], rids[:leftCount])
	fillLeaf(rv, keys[leftCount:], rids[leftCount:])

	rightNo := right.LocalPageNum()
	rv.setRightSibling(lv.rightSibling())
	lv.setRightSibling(rightNo)

	promoted := append([]byte(nil), rv.key(0)...)

	errLeft := t.releasePage(leaf, true)
	errRight := t.releasePage(right, true)
	if errLeft != nil {
		return nil, 0, errLeft
	}
	if errRight != nil {
		return nil, 0, errRight
	}
	return promoted, rightNo, nil
}
