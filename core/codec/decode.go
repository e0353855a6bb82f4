package codec

import (
	"math"

	"gonum.org/v1/gonum/mat"

	scierr "github.com/YuminosukeSato/sklite/pkg/errors"
)

// Decode converts a tagged value back into the most general native
// representation: scalars become their Go counterparts, sequences become
// []interface{}, mappings become map[string]interface{}, and arrays become
// typed numeric slices (nested for two-dimensional shapes). Use DecodeAs when
// the target kind cannot be inferred from the tagged data alone.
func Decode(tv TaggedValue) (interface{}, error) {
	switch tv.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return tv.boolVal, nil
	case KindInt:
		return tv.intVal, nil
	case KindString:
		return tv.strVal, nil
	case KindFloat64:
		return tv.Float64(), nil
	case KindFloat32:
		return tv.Float32(), nil
	case KindTypeRef:
		return KindByName(tv.strVal)
	case KindSequence:
		out := make([]interface{}, len(tv.seq))
		for i, elem := range tv.seq {
			v, err := Decode(elem)
			if err != nil {
				return nil, scierr.Wrapf(err, "element %d", i)
			}
			out[i] = v
		}
		return out, nil
	case KindMapping:
		out := make(map[string]interface{}, len(tv.entries))
		for _, entry := range tv.entries {
			v, err := Decode(entry.Value)
			if err != nil {
				return nil, scierr.Wrapf(err, "key %q", entry.Key)
			}
			out[entry.Key] = v
		}
		return out, nil
	case KindArray:
		return decodeArray(tv)
	default:
		return nil, scierr.NewValueError("codec.Decode", "invalid tagged value")
	}
}

// DecodeAs converts a tagged value using an element-kind hint. The hint
// selects the concrete target where the tagged data is ambiguous:
//
//	KindFloat64  float64 scalar, or []float64 / [][]float64 for containers
//	KindFloat32  float32 scalar or []float32
//	KindInt      int scalar or []int
//	KindString   string or []string
//	KindBool     bool
//	KindMatrix   *mat.Dense from a float64 array
//	KindTypeRef  Kind resolved by canonical name
//
// Passing KindInvalid behaves like Decode.
func DecodeAs(tv TaggedValue, hint Kind) (interface{}, error) {
	switch hint {
	case KindInvalid:
		return Decode(tv)
	case KindTypeRef:
		return decodeTypeRef(tv)
	case KindMatrix:
		return decodeMatrix(tv)
	case KindFloat64:
		return decodeFloat64As(tv)
	case KindFloat32:
		return decodeFloat32As(tv)
	case KindInt:
		return decodeIntAs(tv)
	case KindString:
		return decodeStringAs(tv)
	case KindBool:
		if tv.kind != KindBool {
			return nil, scierr.NewValueError("codec.DecodeAs", "expected bool, got "+tv.kind.String())
		}
		return tv.boolVal, nil
	case KindSequence, KindMapping, KindNull, KindArray:
		return Decode(tv)
	default:
		return nil, scierr.NewValueError("codec.DecodeAs", "unsupported hint "+hint.String())
	}
}

// decodeTypeRef resolves a type reference. Both KindTypeRef values and plain
// strings are accepted, because on the JSON wire a type reference is just its
// canonical name.
func decodeTypeRef(tv TaggedValue) (interface{}, error) {
	switch tv.kind {
	case KindTypeRef, KindString:
		return KindByName(tv.strVal)
	default:
		return nil, scierr.NewValueError("codec.DecodeAs", "expected type reference, got "+tv.kind.String())
	}
}

func decodeMatrix(tv TaggedValue) (interface{}, error) {
	if tv.kind != KindArray || tv.elemKind != KindFloat64 {
		return nil, scierr.NewValueError("codec.DecodeAs", "matrix target requires a float64 array, got "+tv.kind.String())
	}
	if err := ValidateShape("codec.DecodeAs", tv.shape, len(tv.elems)); err != nil {
		return nil, err
	}
	var r, c int
	switch len(tv.shape) {
	case 1:
		r, c = tv.shape[0], 1
	case 2:
		r, c = tv.shape[0], tv.shape[1]
	default:
		return nil, scierr.NewValueError("codec.DecodeAs", "matrix target requires a 1-D or 2-D shape")
	}
	data := make([]float64, len(tv.elems))
	for i, bits := range tv.elems {
		data[i] = math.Float64frombits(bits)
	}
	if r == 0 || c == 0 {
		return &mat.Dense{}, nil
	}
	return mat.NewDense(r, c, data), nil
}

func decodeFloat64As(tv TaggedValue) (interface{}, error) {
	switch tv.kind {
	case KindFloat64:
		return tv.Float64(), nil
	case KindFloat32:
		return float64(tv.Float32()), nil
	case KindInt:
		return float64(tv.intVal), nil
	case KindArray:
		if len(tv.shape) == 2 {
			return arrayToNestedFloat64(tv)
		}
		return arrayToFloat64s(tv)
	case KindSequence:
		out := make([]float64, len(tv.seq))
		for i, elem := range tv.seq {
			f, err := decodeFloat64As(elem)
			if err != nil {
				return nil, err
			}
			v, ok := f.(float64)
			if !ok {
				return nil, scierr.NewValueError("codec.DecodeAs", "nested sequence cannot flatten to []float64")
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, scierr.NewValueError("codec.DecodeAs", "expected float64 data, got "+tv.kind.String())
	}
}

func decodeFloat32As(tv TaggedValue) (interface{}, error) {
	switch tv.kind {
	case KindFloat32:
		return tv.Float32(), nil
	case KindArray:
		if tv.elemKind != KindFloat32 {
			return nil, scierr.NewValueError("codec.DecodeAs", "expected float32 array, got "+tv.elemKind.String()+" elements")
		}
		out := make([]float32, len(tv.elems))
		for i, bits := range tv.elems {
			out[i] = math.Float32frombits(uint32(bits))
		}
		return out, nil
	default:
		return nil, scierr.NewValueError("codec.DecodeAs", "expected float32 data, got "+tv.kind.String())
	}
}

func decodeIntAs(tv TaggedValue) (interface{}, error) {
	switch tv.kind {
	case KindInt:
		return int(tv.intVal), nil
	case KindArray:
		if tv.elemKind != KindInt {
			return nil, scierr.NewValueError("codec.DecodeAs", "expected int array, got "+tv.elemKind.String()+" elements")
		}
		out := make([]int, len(tv.elems))
		for i, raw := range tv.elems {
			out[i] = int(int64(raw))
		}
		return out, nil
	case KindSequence:
		out := make([]int, len(tv.seq))
		for i, elem := range tv.seq {
			if elem.kind != KindInt {
				return nil, scierr.NewValueError("codec.DecodeAs", "sequence element is not an int")
			}
			out[i] = int(elem.intVal)
		}
		return out, nil
	default:
		return nil, scierr.NewValueError("codec.DecodeAs", "expected int data, got "+tv.kind.String())
	}
}

func decodeStringAs(tv TaggedValue) (interface{}, error) {
	switch tv.kind {
	case KindString:
		return tv.strVal, nil
	case KindSequence:
		out := make([]string, len(tv.seq))
		for i, elem := range tv.seq {
			if elem.kind != KindString {
				return nil, scierr.NewValueError("codec.DecodeAs", "sequence element is not a string")
			}
			out[i] = elem.strVal
		}
		return out, nil
	default:
		return nil, scierr.NewValueError("codec.DecodeAs", "expected string data, got "+tv.kind.String())
	}
}

// decodeArray reconstructs the natural typed slice for an array value, using
// the shape descriptor to restore two-dimensional layouts.
func decodeArray(tv TaggedValue) (interface{}, error) {
	switch tv.elemKind {
	case KindFloat64:
		if len(tv.shape) == 2 {
			return arrayToNestedFloat64(tv)
		}
		return arrayToFloat64s(tv)
	case KindFloat32:
		out := make([]float32, len(tv.elems))
		for i, bits := range tv.elems {
			out[i] = math.Float32frombits(uint32(bits))
		}
		return out, nil
	case KindInt:
		out := make([]int, len(tv.elems))
		for i, raw := range tv.elems {
			out[i] = int(int64(raw))
		}
		return out, nil
	default:
		return nil, scierr.NewValueError("codec.Decode", "unsupported array element kind "+tv.elemKind.String())
	}
}

func arrayToFloat64s(tv TaggedValue) ([]float64, error) {
	if tv.elemKind != KindFloat64 {
		return nil, scierr.NewValueError("codec.DecodeAs", "expected float64 array, got "+tv.elemKind.String()+" elements")
	}
	out := make([]float64, len(tv.elems))
	for i, bits := range tv.elems {
		out[i] = math.Float64frombits(bits)
	}
	return out, nil
}

func arrayToNestedFloat64(tv TaggedValue) ([][]float64, error) {
	if tv.elemKind != KindFloat64 {
		return nil, scierr.NewValueError("codec.DecodeAs", "expected float64 array, got "+tv.elemKind.String()+" elements")
	}
	if err := ValidateShape("codec.Decode", tv.shape, len(tv.elems)); err != nil {
		return nil, err
	}
	rows, cols := tv.shape[0], tv.shape[1]
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = math.Float64frombits(tv.elems[i*cols+j])
		}
		out[i] = row
	}
	return out, nil
}

// UnmarshalValue parses a JSON document into a tagged value.
func UnmarshalValue(data []byte) (TaggedValue, error) {
	var tv TaggedValue
	if err := tv.UnmarshalJSON(data); err != nil {
		return TaggedValue{}, err
	}
	return tv, nil
}
