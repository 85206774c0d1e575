package bplus

import (
	"DaemonIndex/logger"

	"github.com/pkg/errors"
)

// insertIntoParent pushes a promoted separator up the recorded descent path.
// leftNo is the page that split and rightNo its new sibling. Each parent is
// pinned only while it is updated. If the path runs out the tree grows a new
// root.
func (t *BTreeIndex) insertIntoParent(path []pathEntry, leftNo uint32, key []byte, rightNo uint32) error {
	for len(path) > 0 {
		step := path[len(path)-1]
		path = path[:len(path)-1]

		parent, err := t.fetchPage(step.pageNo)
		if err != nil {
			return errors.Wrap(err, "insertIntoParent")
		}

		pv := t.internalOf(parent)
		if pv.child(step.childIdx) != leftNo {
			return t.releaseOnError(parent, false, errors.Errorf(
				"insertIntoParent: page %d child %d is %d, expected %d",
				step.pageNo, step.childIdx, pv.child(step.childIdx), leftNo))
		}

		if pv.count() < t.layout.internalCap {
			internalInsertAt(pv, step.childIdx, key, rightNo)
			return t.releasePage(parent, true)
		}

		logger.Debugf("[BTree] %s: splitting internal page %d (level %d)", t.name, step.pageNo, pv.level())
		key, rightNo, err = t.splitInternal(parent, step.childIdx, key, rightNo)
		if err != nil {
			return err
		}
		leftNo = step.pageNo
	}

	return t.createNewRoot(leftNo, key, rightNo)
}
