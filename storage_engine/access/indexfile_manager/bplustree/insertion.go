package bplus

import (
	"DaemonIndex/types"

	"github.com/pkg/errors"
)

// InsertEntry adds (key, rid) to the index. key must be encoded for the
// indexed attribute type (types.EncodeInt, EncodeDouble or EncodeString).
// Equal keys are kept in insertion order.
func (t *BTreeIndex) InsertEntry(key []byte, rid types.RecordId) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.Errorf("InsertEntry: index %s is closed", t.name)
	}
	return t.insertEntry(key, rid)
}

func (t *BTreeIndex) insertEntry(key []byte, rid types.RecordId) error {
	if err := t.checkKey(key); err != nil {
		return errors.Wrap(err, "InsertEntry")
	}

	leaf, path, err := t.findLeaf(key, descendRight)
	if err != nil {
		return errors.Wrap(err, "InsertEntry: failed to find leaf")
	}

	v := t.leafOf(leaf)
	pos := upperBound(v.count(), v.key, key, t.cmp)

	if v.count() < t.layout.leafCap {
		leafInsertAt(v, pos, key, rid)
		return t.releasePage(leaf, true)
	}

	promoted, rightNo, err := t.splitLeaf(leaf, pos, key, rid)
	if err != nil {
		return err
	}
	return t.insertIntoParent(path, leaf.LocalPageNum(), promoted, rightNo)
}

// checkKey verifies the key width matches the attribute type.
func (t *BTreeIndex) checkKey(key []byte) error {
	if len(key) != t.layout.keyWidth {
		return errors.Wrapf(ErrKeyTypeMismatch, "%s key must be %d bytes, got %d",
			t.attrType, t.layout.keyWidth, len(key))
	}
	return nil
}
