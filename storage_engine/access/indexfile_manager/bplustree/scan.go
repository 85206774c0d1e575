package bplus

import (
	"DaemonIndex/logger"
	"DaemonIndex/types"

	"github.com/pkg/errors"
)

/*
Range scans. An index runs at most one scan at a time:

	idle --StartScan--> executing --ScanNext*--> executing --EndScan--> idle
	executing --ScanNext past the high bound or the last leaf--> completed
	completed --EndScan--> idle

While executing exactly one leaf is pinned. Reaching completed releases it,
after which ScanNext keeps returning ErrScanCompleted until EndScan or the
next StartScan.
*/

// StartScan positions a scan on the first entry with low lowOp key and
// key highOp high. lowOp must be GT or GTE, highOp LT or LTE. Any scan
// already in progress is ended first.
func (t *BTreeIndex) StartScan(low []byte, lowOp types.Operator, high []byte, highOp types.Operator) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.Errorf("StartScan: index %s is closed", t.name)
	}

	if t.scan.status != scanIdle {
		if err := t.endScan(); err != nil {
			return err
		}
	}

	if (lowOp != types.GT && lowOp != types.GTE) || (highOp != types.LT && highOp != types.LTE) {
		return errors.Wrapf(ErrInvalidOpcodes, "StartScan: low %s, high %s", lowOp, highOp)
	}
	if err := t.checkKey(low); err != nil {
		return errors.Wrap(err, "StartScan: low value")
	}
	if err := t.checkKey(high); err != nil {
		return errors.Wrap(err, "StartScan: high value")
	}
	if t.cmp(low, high) > 0 {
		return errors.Wrapf(ErrInvalidRange, "StartScan: %s > %s",
			t.attrType.Format(low), t.attrType.Format(high))
	}

	t.scan = scanState{
		lowVal:  append([]byte(nil), low...),
		lowOp:   lowOp,
		highVal: append([]byte(nil), high...),
		highOp:  highOp,
	}

	if err := t.positionScan(); err != nil {
		t.scan = scanState{}
		return err
	}

	t.scan.status = scanExecuting
	logger.Debugf("[BTree] %s: scan %s %s .. %s %s positioned on page %d slot %d", t.name,
		lowOp, t.attrType.Format(low), highOp, t.attrType.Format(high),
		t.scan.leaf.LocalPageNum(), t.scan.nextEntry)
	return nil
}

// positionScan finds the first entry satisfying both predicates and leaves
// its leaf pinned in t.scan. On any failure no page stays pinned.
func (t *BTreeIndex) positionScan() error {
	leaf, _, err := t.findLeaf(t.scan.lowVal, descendLeft)
	if err != nil {
		return errors.Wrap(err, "StartScan")
	}

	for {
		v := t.leafOf(leaf)
		i := t.firstAboveLow(v)
		if i < v.count() {
			if !t.belowHigh(v.key(i)) {
				if err := t.releasePage(leaf, false); err != nil {
					return err
				}
				return errors.Wrap(ErrNoSuchKey, "StartScan")
			}
			t.scan.leaf = leaf
			t.scan.nextEntry = i
			return nil
		}

		// Nothing at or above low here; duplicates and ties-left descent
		// mean the first qualifying entry may sit further right.
		sibling := v.rightSibling()
		if err := t.releasePage(leaf, false); err != nil {
			return err
		}
		if sibling == InvalidPageNo {
			return errors.Wrap(ErrNoSuchKey, "StartScan")
		}
		if leaf, err = t.fetchPage(sibling); err != nil {
			return errors.Wrap(err, "StartScan")
		}
	}
}

// firstAboveLow returns the first slot of v satisfying the low predicate.
func (t *BTreeIndex) firstAboveLow(v leafView) int {
	if t.scan.lowOp == types.GT {
		return upperBound(v.count(), v.key, t.scan.lowVal, t.cmp)
	}
	return lowerBound(v.count(), v.key, t.scan.lowVal, t.cmp)
}

// belowHigh reports whether key satisfies the high predicate.
func (t *BTreeIndex) belowHigh(key []byte) bool {
	c := t.cmp(key, t.scan.highVal)
	if t.scan.highOp == types.LT {
		return c < 0
	}
	return c <= 0
}

// ScanNext returns the record id of the next qualifying entry.
func (t *BTreeIndex) ScanNext() (types.RecordId, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.scan.status {
	case scanIdle:
		return types.RecordId{}, errors.Wrap(ErrScanNotInitialized, "ScanNext")
	case scanCompleted:
		return types.RecordId{}, ErrScanCompleted
	}

	for {
		v := t.leafOf(t.scan.leaf)
		if t.scan.nextEntry < v.count() {
			break
		}

		sibling := v.rightSibling()
		err := t.releasePage(t.scan.leaf, false)
		t.scan.leaf = nil
		if err != nil {
			t.scan.status = scanCompleted
			return types.RecordId{}, err
		}
		if sibling == InvalidPageNo {
			t.scan.status = scanCompleted
			return types.RecordId{}, ErrScanCompleted
		}

		next, err := t.fetchPage(sibling)
		if err != nil {
			t.scan.status = scanCompleted
			return types.RecordId{}, errors.Wrap(err, "ScanNext")
		}
		t.scan.leaf = next
		t.scan.nextEntry = 0
	}

	v := t.leafOf(t.scan.leaf)
	if !t.belowHigh(v.key(t.scan.nextEntry)) {
		err := t.releasePage(t.scan.leaf, false)
		t.scan.leaf = nil
		t.scan.status = scanCompleted
		if err != nil {
			return types.RecordId{}, err
		}
		return types.RecordId{}, ErrScanCompleted
	}

	rid := v.rid(t.scan.nextEntry)
	t.scan.nextEntry++
	return rid, nil
}

// EndScan finishes the current scan and releases its leaf. Ending a
// completed scan succeeds; ending when no scan was started returns
// ErrScanNotInitialized.
func (t *BTreeIndex) EndScan() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.scan.status == scanIdle {
		return errors.Wrap(ErrScanNotInitialized, "EndScan")
	}
	return t.endScan()
}

func (t *BTreeIndex) endScan() error {
	leaf := t.scan.leaf
	t.scan = scanState{}
	return t.releasePage(leaf, false)
}
