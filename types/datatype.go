package types

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Datatype is the scalar type of the indexed attribute.
type Datatype int32

const (
	INTEGER Datatype = iota
	DOUBLE
	STRING
)

// StringKeySize is the fixed width of STRING keys. Longer strings are
// truncated, shorter ones zero padded.
const StringKeySize = 10

func (d Datatype) String() string {
	switch d {
	case INTEGER:
		return "INTEGER"
	case DOUBLE:
		return "DOUBLE"
	case STRING:
		return "STRING"
	default:
		return fmt.Sprintf("Datatype(%d)", int32(d))
	}
}

// ParseDatatype accepts the type names used in config files and flags.
func ParseDatatype(s string) (Datatype, error) {
	switch strings.ToLower(s) {
	case "int", "integer":
		return INTEGER, nil
	case "double", "float":
		return DOUBLE, nil
	case "string", "char":
		return STRING, nil
	}
	return 0, errors.Errorf("unknown attribute type %q", s)
}

func (d Datatype) Valid() bool {
	return d == INTEGER || d == DOUBLE || d == STRING
}

// KeySize returns the encoded key width in bytes.
func (d Datatype) KeySize() int {
	switch d {
	case INTEGER:
		return 4
	case DOUBLE:
		return 8
	case STRING:
		return StringKeySize
	default:
		return 0
	}
}

// Comparator returns the ordering function for encoded keys of this type.
func (d Datatype) Comparator() func(a, b []byte) int {
	switch d {
	case INTEGER:
		return compareInt
	case DOUBLE:
		return compareDouble
	default:
		return bytes.Compare
	}
}

// Format renders an encoded key for logs and tools.
func (d Datatype) Format(key []byte) string {
	switch d {
	case INTEGER:
		return fmt.Sprintf("%d", DecodeInt(key))
	case DOUBLE:
		return fmt.Sprintf("%g", DecodeDouble(key))
	default:
		return fmt.Sprintf("%q", string(bytes.TrimRight(key, "\x00")))
	}
}

// EncodeKey parses a literal of type d into its key encoding.
func (d Datatype) EncodeKey(literal string) ([]byte, error) {
	switch d {
	case INTEGER:
		v, err := strconv.ParseInt(literal, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "bad INTEGER key %q", literal)
		}
		return EncodeInt(int32(v)), nil
	case DOUBLE:
		v, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad DOUBLE key %q", literal)
		}
		return EncodeDouble(v), nil
	case STRING:
		return EncodeString(literal), nil
	}
	return nil, errors.Errorf("EncodeKey: invalid datatype %s", d)
}

func compareInt(a, b []byte) int {
	return cmp.Compare(DecodeInt(a), DecodeInt(b))
}

func compareDouble(a, b []byte) int {
	return cmp.Compare(DecodeDouble(a), DecodeDouble(b))
}

func EncodeInt(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func DecodeInt(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}

func EncodeDouble(v float64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return b
}

func DecodeDouble(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func EncodeString(s string) []byte {
	b := make([]byte, StringKeySize)
	copy(b, s)
	return b
}

// Operator is a range scan comparison operator.
type Operator int

const (
	LT  Operator = 2
	GT  Operator = 3
	LTE Operator = 4
	GTE Operator = 5
)

func (op Operator) String() string {
	switch op {
	case LT:
		return "<"
	case GT:
		return ">"
	case LTE:
		return "<="
	case GTE:
		return ">="
	default:
		return fmt.Sprintf("Operator(%d)", int(op))
	}
}

// ParseOperator maps the symbolic form ("<", ">", "<=", ">=") or the
// mnemonic form (LT, GT, LTE, GTE) to an Operator.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToUpper(s) {
	case "<", "LT":
		return LT, nil
	case ">", "GT":
		return GT, nil
	case "<=", "LTE":
		return LTE, nil
	case ">=", "GTE":
		return GTE, nil
	}
	return 0, errors.Errorf("unknown operator %q", s)
}
