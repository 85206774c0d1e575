package bplus

import "github.com/pkg/errors"

var (
	// ErrInvalidOpcodes: the low operator is not GT/GTE or the high operator is not LT/LTE.
	ErrInvalidOpcodes = errors.New("bad scan opcodes")
	// ErrInvalidRange: the low value orders after the high value.
	ErrInvalidRange = errors.New("bad scan range")
	// ErrNoSuchKey: no entry satisfies both scan predicates.
	ErrNoSuchKey = errors.New("no such key found")
	// ErrScanNotInitialized: ScanNext or EndScan without an active scan.
	ErrScanNotInitialized = errors.New("scan not initialized")
	// ErrScanCompleted: every qualifying entry has already been returned.
	ErrScanCompleted = errors.New("index scan completed")
	// ErrBadIndexInfo: an existing index file describes a different relation, attribute or type.
	ErrBadIndexInfo = errors.New("bad index info")
	// ErrKeyTypeMismatch: a key's byte width does not match the indexed attribute type.
	ErrKeyTypeMismatch = errors.New("key does not match attribute type")
)
