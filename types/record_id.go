package types

import (
	"encoding/binary"
	"fmt"
)

// RecordIdSize is the on-page width of a RecordId: page(4) | slot(2) | pad(2).
const RecordIdSize = 8

// RecordId identifies a row of a base relation. The index stores it verbatim
// and never interprets it.
type RecordId struct {
	PageNumber uint32 `json:"page_number"`
	SlotNumber uint16 `json:"slot_number"`
}

func (r RecordId) String() string {
	return fmt.Sprintf("(%d,%d)", r.PageNumber, r.SlotNumber)
}

// PutRecordId writes rid into b[0:RecordIdSize].
func PutRecordId(b []byte, rid RecordId) {
	binary.LittleEndian.PutUint32(b[0:4], rid.PageNumber)
	binary.LittleEndian.PutUint16(b[4:6], rid.SlotNumber)
	b[6] = 0
	b[7] = 0
}

// GetRecordId reads a RecordId from b[0:RecordIdSize].
func GetRecordId(b []byte) RecordId {
	return RecordId{
		PageNumber: binary.LittleEndian.Uint32(b[0:4]),
		SlotNumber: binary.LittleEndian.Uint16(b[4:6]),
	}
}
