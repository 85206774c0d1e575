// Package lsmrelation stores a base relation in Pebble (CockroachDB's LSM
// storage engine). Records are keyed by their record id, so iterating the
// store yields them in record id order, which is the order a bulk index build
// consumes them in.
package lsmrelation

import (
	"DaemonIndex/logger"
	"DaemonIndex/types"
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
)

// RecordsPerPage is the number of slots per logical page when record ids are
// assigned: record n gets page n/RecordsPerPage, slot n%RecordsPerPage.
const RecordsPerPage = 256

// ErrRecordNotFound is returned by GetRecord for an unknown record id.
var ErrRecordNotFound = errors.New("record not found")

type Relation struct {
	name string
	db   *pebble.DB
	next uint64 // sequence number of the next appended record
	mu   sync.Mutex
}

// Open opens (or creates) the Pebble store of a relation at dir.
func Open(dir string, name string) (*Relation, error) {
	opts := &pebble.Options{
		MemTableSize:                4 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "lsmrelation: open %s", dir)
	}

	r := &Relation{name: name, db: db}
	if err := r.recoverNext(); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debugf("[LSMRelation] OPEN relation=%s dir=%s records=%d", name, dir, r.next)
	return r, nil
}

// recoverNext continues numbering after the highest stored record id.
func (r *Relation) recoverNext() error {
	iter, err := r.db.NewIter(nil)
	if err != nil {
		return errors.Wrap(err, "lsmrelation: recover")
	}
	defer iter.Close()

	if iter.Last() {
		rid, err := decodeKey(iter.Key())
		if err != nil {
			return err
		}
		r.next = uint64(rid.PageNumber)*RecordsPerPage + uint64(rid.SlotNumber) + 1
	}
	return iter.Error()
}

func (r *Relation) Name() string { return r.name }

// AppendRecord stores rec under the next record id.
func (r *Relation) AppendRecord(rec []byte) (types.RecordId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(rec) == 0 {
		return types.RecordId{}, errors.New("lsmrelation: empty record")
	}
	if r.next/RecordsPerPage > 0xFFFFFFFF {
		return types.RecordId{}, errors.New("lsmrelation: record ids exhausted")
	}

	rid := types.RecordId{
		PageNumber: uint32(r.next / RecordsPerPage),
		SlotNumber: uint16(r.next % RecordsPerPage),
	}
	if err := r.db.Set(encodeKey(rid), rec, pebble.NoSync); err != nil {
		return types.RecordId{}, errors.Wrap(err, "lsmrelation: append")
	}
	r.next++
	return rid, nil
}

// GetRecord returns a copy of the record stored under rid.
func (r *Relation) GetRecord(rid types.RecordId) ([]byte, error) {
	val, closer, err := r.db.Get(encodeKey(rid))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrapf(ErrRecordNotFound, "lsmrelation: %s", rid)
	}
	if err != nil {
		return nil, errors.Wrap(err, "lsmrelation: get")
	}
	// val is only valid until closer.Close(), so we copy it.
	out := append([]byte(nil), val...)
	if err := closer.Close(); err != nil {
		return nil, errors.Wrap(err, "lsmrelation: get")
	}
	return out, nil
}

// NumRecords is the number of records appended so far.
func (r *Relation) NumRecords() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

// Flush makes every appended record durable.
func (r *Relation) Flush() error {
	return r.db.Flush()
}

// Close cleanly shuts down Pebble, flushing any in-memory state.
func (r *Relation) Close() error {
	return r.db.Close()
}

// ─── Key encoding ─────────────────────────────────────────────────────────────

const keySize = 6

// encodeKey encodes a record id big-endian so byte order equals rid order.
func encodeKey(rid types.RecordId) []byte {
	b := make([]byte, keySize)
	binary.BigEndian.PutUint32(b[0:4], rid.PageNumber)
	binary.BigEndian.PutUint16(b[4:6], rid.SlotNumber)
	return b
}

func decodeKey(k []byte) (types.RecordId, error) {
	if len(k) != keySize {
		return types.RecordId{}, errors.Errorf("lsmrelation: unexpected key length %d", len(k))
	}
	return types.RecordId{
		PageNumber: binary.BigEndian.Uint32(k[0:4]),
		SlotNumber: binary.BigEndian.Uint16(k[4:6]),
	}, nil
}
