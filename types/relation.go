package types

import "github.com/pkg/errors"

// ErrEndOfRelation is returned by a RelationScanner once every record has been produced.
var ErrEndOfRelation = errors.New("end of relation")

// RelationScanner produces the records of a base relation one at a time.
// The returned record slice is owned by the caller.
type RelationScanner interface {
	ScanNext() (RecordId, []byte, error)
	Close() error
}

// RelationSource opens full scans over a base relation.
type RelationSource interface {
	OpenScan() (RelationScanner, error)
}
