package lsmrelation

import (
	"DaemonIndex/types"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
)

// scanner walks the relation in record id order.
type scanner struct {
	iter    *pebble.Iterator
	started bool
	done    bool
}

// OpenScan starts a full scan over a consistent view of the relation.
func (r *Relation) OpenScan() (types.RelationScanner, error) {
	iter, err := r.db.NewIter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "lsmrelation: scan")
	}
	return &scanner{iter: iter}, nil
}

func (s *scanner) ScanNext() (types.RecordId, []byte, error) {
	if s.done {
		return types.RecordId{}, nil, types.ErrEndOfRelation
	}

	var valid bool
	if !s.started {
		s.started = true
		valid = s.iter.First()
	} else {
		valid = s.iter.Next()
	}
	if !valid {
		s.done = true
		if err := s.iter.Error(); err != nil {
			return types.RecordId{}, nil, errors.Wrap(err, "lsmrelation: scan")
		}
		return types.RecordId{}, nil, types.ErrEndOfRelation
	}

	rid, err := decodeKey(s.iter.Key())
	if err != nil {
		return types.RecordId{}, nil, err
	}
	// Copy value — Pebble reuses the buffer on Next().
	return rid, append([]byte(nil), s.iter.Value()...), nil
}

func (s *scanner) Close() error {
	return s.iter.Close()
}
