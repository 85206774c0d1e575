package bplus

import (
	"DaemonIndex/logger"

	"github.com/pkg/errors"
)

// createNewRoot creates a new root internal node with leftNo and rightNo as
// its two children, separated by promoted, and records it in the metadata page.
func (t *BTreeIndex) createNewRoot(leftNo uint32, promoted []byte, rightNo uint32) error {
	if leftNo != t.rootPageNo {
		return errors.Errorf("createNewRoot: split page %d is not the root %d", leftNo, t.rootPageNo)
	}

	level := t.rootLevel + 1
	root, rv, err := t.newInternal(level)
	if err != nil {
		return errors.Wrap(err, "createNewRoot")
	}

	rv.setKey(0, promoted)
	rv.setChild(0, leftNo)
	rv.setChild(1, rightNo)
	rv.setCount(1)
	rootNo := root.LocalPageNum()

	meta, err := t.fetchMetaPage()
	if err != nil {
		return t.releaseOnError(root, true, errors.Wrap(err, "createNewRoot: metadata page"))
	}
	metaView{data: meta.Data}.setRoot(rootNo, level)

	errMeta := t.releasePage(meta, true)
	errRoot := t.releasePage(root, true)
	if errMeta != nil {
		return errMeta
	}
	if errRoot != nil {
		return errRoot
	}

	t.rootPageNo = rootNo
	t.rootLevel = level
	logger.Debugf("[BTree] %s: new root page %d, height %d", t.name, rootNo, level+1)
	return nil
}
