// Package codec implements the tagged-value serialization used to persist
// model state. Values of heterogeneous runtime types (scalars, slices,
// mappings, gonum matrices) are converted into a self-describing tree that
// survives JSON without losing numeric precision: floating-point values are
// captured as their exact IEEE-754 bit patterns rather than decimal strings.
package codec

import (
	scierr "github.com/YuminosukeSato/sklite/pkg/errors"
)

// Kind identifies the type of a tagged value. It is a closed catalog:
// extending support means adding a new variant here together with its
// encode/decode rules, not another ad-hoc conditional somewhere else.
type Kind int

const (
	// KindInvalid is the zero value, never produced by Encode.
	KindInvalid Kind = iota
	// KindNull represents the absence of a value (JSON null).
	KindNull
	// KindBool represents a native boolean.
	KindBool
	// KindInt represents a native integer (stored as int64).
	KindInt
	// KindString represents a native string.
	KindString
	// KindFloat64 represents a 64-bit IEEE-754 value, exact-bit encoded.
	KindFloat64
	// KindFloat32 represents a 32-bit IEEE-754 value, exact-bit encoded.
	KindFloat32
	// KindSequence represents an ordered sequence of tagged values.
	KindSequence
	// KindMapping represents an ordered string-keyed mapping.
	KindMapping
	// KindArray represents a homogeneous numeric array with a shape
	// descriptor covering multi-dimensional layouts.
	KindArray
	// KindMatrix is a decode hint selecting gonum's *mat.Dense as the
	// target for a two-dimensional float64 array. It never appears on the
	// wire; arrays carry KindArray with a float64 element kind.
	KindMatrix
	// KindTypeRef represents a reference to a kind itself (a dtype, not an
	// instance), encoded as its canonical name.
	KindTypeRef
)

// String returns the canonical name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindFloat64:
		return "float64"
	case KindFloat32:
		return "float32"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindArray:
		return "ndarray"
	case KindMatrix:
		return "matrix"
	case KindTypeRef:
		return "typeref"
	default:
		return "invalid"
	}
}

// kindRegistry maps canonical names back to kinds for type-reference decoding.
// Only kinds that make sense as a dtype are registered.
var kindRegistry = map[string]Kind{
	"null":    KindNull,
	"bool":    KindBool,
	"int":     KindInt,
	"string":  KindString,
	"float64": KindFloat64,
	"float32": KindFloat32,
	"ndarray": KindArray,
}

// KindByName resolves a canonical kind name. Unrecognized names fail with
// UnknownTypeKindError.
func KindByName(name string) (Kind, error) {
	if k, ok := kindRegistry[name]; ok {
		return k, nil
	}
	return KindInvalid, scierr.NewUnknownTypeKindError("codec.KindByName", name)
}
