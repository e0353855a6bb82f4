package codec

import (
	"math"

	scierr "github.com/YuminosukeSato/sklite/pkg/errors"
)

// MapEntry is one key/value pair of an ordered mapping.
type MapEntry struct {
	Key   string
	Value TaggedValue
}

// TaggedValue is a discriminated union over the supported kinds. It carries
// both the kind marker and the data, so a value round-trips through
// encode -> decode -> encode to a bit-identical result for numeric kinds.
//
// The zero TaggedValue has KindInvalid; use the constructors.
type TaggedValue struct {
	kind Kind

	boolVal bool
	intVal  int64
	strVal  string // string payload, or canonical name for type refs
	bits    uint64 // exact float bits (float32 occupies the low 32 bits)

	seq     []TaggedValue
	entries []MapEntry

	// Array payload. Elements are stored flattened in row-major order as
	// raw bit patterns (floats) or two's-complement values (ints).
	elemKind Kind
	shape    []int
	elems    []uint64
}

// Null returns the null tagged value.
func Null() TaggedValue {
	return TaggedValue{kind: KindNull}
}

// BoolValue wraps a native boolean.
func BoolValue(b bool) TaggedValue {
	return TaggedValue{kind: KindBool, boolVal: b}
}

// IntValue wraps a native integer.
func IntValue(i int64) TaggedValue {
	return TaggedValue{kind: KindInt, intVal: i}
}

// StringValue wraps a native string.
func StringValue(s string) TaggedValue {
	return TaggedValue{kind: KindString, strVal: s}
}

// Float64Value captures the exact bit pattern of a float64.
func Float64Value(f float64) TaggedValue {
	return TaggedValue{kind: KindFloat64, bits: math.Float64bits(f)}
}

// Float32Value captures the exact bit pattern of a float32.
func Float32Value(f float32) TaggedValue {
	return TaggedValue{kind: KindFloat32, bits: uint64(math.Float32bits(f))}
}

// Float64FromBits builds a float64 value directly from its bit pattern.
func Float64FromBits(bits uint64) TaggedValue {
	return TaggedValue{kind: KindFloat64, bits: bits}
}

// Float32FromBits builds a float32 value directly from its bit pattern,
// which must occupy the low 32 bits.
func Float32FromBits(bits uint64) TaggedValue {
	return TaggedValue{kind: KindFloat32, bits: bits & 0xffffffff}
}

// SequenceValue wraps an ordered sequence of tagged values.
func SequenceValue(elems []TaggedValue) TaggedValue {
	return TaggedValue{kind: KindSequence, seq: elems}
}

// MappingValue wraps an ordered string-keyed mapping.
func MappingValue(entries []MapEntry) TaggedValue {
	return TaggedValue{kind: KindMapping, entries: entries}
}

// ArrayValue wraps a homogeneous numeric array. The raw element values are
// flattened row-major; shape records the dimension sizes.
func ArrayValue(elemKind Kind, shape []int, elems []uint64) TaggedValue {
	return TaggedValue{kind: KindArray, elemKind: elemKind, shape: shape, elems: elems}
}

// ValidateShape checks that a shape descriptor is well formed for the given
// flattened element count: at least one dimension, no negative dimension, and
// a dimension product that equals the count without overflowing. Decoders run
// it on every array read from the wire, so a corrupt or hostile document
// fails with an error instead of corrupting slice allocation downstream.
func ValidateShape(op string, shape []int, elems int) error {
	if len(shape) == 0 {
		return scierr.NewValueError(op, "ndarray shape must have at least one dimension")
	}
	n := 1
	for _, dim := range shape {
		if dim < 0 {
			return scierr.NewValueError(op, "ndarray shape has a negative dimension")
		}
		if dim != 0 && n > math.MaxInt/dim {
			return scierr.NewValueError(op, "ndarray shape product overflows")
		}
		n *= dim
	}
	if n != elems {
		return scierr.NewValueError(op, "ndarray shape does not match data length")
	}
	return nil
}

// TypeRefValue wraps a reference to a kind itself, encoded by canonical name.
func TypeRefValue(k Kind) TaggedValue {
	return TaggedValue{kind: KindTypeRef, strVal: k.String()}
}

// Kind returns the kind marker.
func (tv TaggedValue) Kind() Kind { return tv.kind }

// Bool returns the boolean payload. Valid only for KindBool.
func (tv TaggedValue) Bool() bool { return tv.boolVal }

// Int returns the integer payload. Valid only for KindInt.
func (tv TaggedValue) Int() int64 { return tv.intVal }

// Str returns the string payload (the canonical name for type refs).
func (tv TaggedValue) Str() string { return tv.strVal }

// Float64 reconstructs the float64 payload from its stored bits.
func (tv TaggedValue) Float64() float64 { return math.Float64frombits(tv.bits) }

// Float32 reconstructs the float32 payload from its stored bits.
func (tv TaggedValue) Float32() float32 { return math.Float32frombits(uint32(tv.bits)) }

// Bits returns the raw bit pattern of a float payload.
func (tv TaggedValue) Bits() uint64 { return tv.bits }

// Sequence returns the element slice. Valid only for KindSequence.
func (tv TaggedValue) Sequence() []TaggedValue { return tv.seq }

// Entries returns the ordered mapping entries. Valid only for KindMapping.
func (tv TaggedValue) Entries() []MapEntry { return tv.entries }

// ElemKind returns the element kind of an array.
func (tv TaggedValue) ElemKind() Kind { return tv.elemKind }

// Shape returns the dimension sizes of an array.
func (tv TaggedValue) Shape() []int { return tv.shape }

// RawElems returns the flattened raw element values of an array: bit patterns
// for float kinds, two's-complement values for ints.
func (tv TaggedValue) RawElems() []uint64 { return tv.elems }

// Len returns the number of elements: sequence length, mapping size, or
// flattened array size. Scalars report 0.
func (tv TaggedValue) Len() int {
	switch tv.kind {
	case KindSequence:
		return len(tv.seq)
	case KindMapping:
		return len(tv.entries)
	case KindArray:
		return len(tv.elems)
	default:
		return 0
	}
}

// Equal reports deep equality, with floats compared by exact bit pattern.
func (tv TaggedValue) Equal(other TaggedValue) bool {
	if tv.kind != other.kind {
		return false
	}
	switch tv.kind {
	case KindNull:
		return true
	case KindBool:
		return tv.boolVal == other.boolVal
	case KindInt:
		return tv.intVal == other.intVal
	case KindString, KindTypeRef:
		return tv.strVal == other.strVal
	case KindFloat64, KindFloat32:
		return tv.bits == other.bits
	case KindSequence:
		if len(tv.seq) != len(other.seq) {
			return false
		}
		for i := range tv.seq {
			if !tv.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(tv.entries) != len(other.entries) {
			return false
		}
		for i := range tv.entries {
			if tv.entries[i].Key != other.entries[i].Key {
				return false
			}
			if !tv.entries[i].Value.Equal(other.entries[i].Value) {
				return false
			}
		}
		return true
	case KindArray:
		if tv.elemKind != other.elemKind || len(tv.shape) != len(other.shape) || len(tv.elems) != len(other.elems) {
			return false
		}
		for i := range tv.shape {
			if tv.shape[i] != other.shape[i] {
				return false
			}
		}
		for i := range tv.elems {
			if tv.elems[i] != other.elems[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}
