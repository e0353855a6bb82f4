package codec

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	scierr "github.com/YuminosukeSato/sklite/pkg/errors"
)

// Encode converts a runtime value into its tagged representation. The catalog
// of supported kinds is closed: native scalars, float32/float64 (exact-bit),
// string-keyed mappings, ordered sequences, numeric slices and nested numeric
// slices, gonum matrices and vectors, and Kind itself as a type reference.
// Anything else fails with UnsupportedValueKindError.
func Encode(value interface{}) (TaggedValue, error) {
	switch v := value.(type) {
	case nil:
		return Null(), nil
	case bool:
		return BoolValue(v), nil
	case int:
		return IntValue(int64(v)), nil
	case int32:
		return IntValue(int64(v)), nil
	case int64:
		return IntValue(v), nil
	case string:
		return StringValue(v), nil
	case float64:
		return Float64Value(v), nil
	case float32:
		return Float32Value(v), nil
	case Kind:
		return TypeRefValue(v), nil
	case TaggedValue:
		// Already encoded; pass through so bags can hold pre-built values.
		return v, nil

	case []float64:
		return encodeFloat64Array(v, []int{len(v)}), nil
	case []float32:
		return encodeFloat32Array(v, []int{len(v)}), nil
	case []int:
		return encodeIntArray(v, []int{len(v)}), nil
	case [][]float64:
		return encodeNestedFloat64(v)
	case []string:
		elems := make([]TaggedValue, len(v))
		for i, s := range v {
			elems[i] = StringValue(s)
		}
		return SequenceValue(elems), nil
	case []interface{}:
		return encodeSequence(v)

	case map[string]interface{}:
		return encodeStringMap(v)
	case map[string]float64:
		generic := make(map[string]interface{}, len(v))
		for k, f := range v {
			generic[k] = f
		}
		return encodeStringMap(generic)
	case map[string]int:
		generic := make(map[string]interface{}, len(v))
		for k, i := range v {
			generic[k] = i
		}
		return encodeStringMap(generic)
	case map[string]string:
		generic := make(map[string]interface{}, len(v))
		for k, s := range v {
			generic[k] = s
		}
		return encodeStringMap(generic)
	case map[interface{}]interface{}:
		return encodeAnyKeyMap(v)

	case *mat.Dense:
		if v == nil {
			return Null(), nil
		}
		return encodeMatrix(v), nil
	case *mat.VecDense:
		if v == nil {
			return Null(), nil
		}
		raw := v.RawVector()
		if raw.Inc == 1 {
			return encodeFloat64Array(raw.Data, []int{v.Len()}), nil
		}
		data := make([]float64, v.Len())
		for i := range data {
			data[i] = v.AtVec(i)
		}
		return encodeFloat64Array(data, []int{v.Len()}), nil
	case mat.Matrix:
		return encodeMatrix(v), nil

	default:
		return TaggedValue{}, scierr.NewUnsupportedValueKindError("codec.Encode", value)
	}
}

func encodeFloat64Array(data []float64, shape []int) TaggedValue {
	elems := make([]uint64, len(data))
	for i, f := range data {
		elems[i] = math.Float64bits(f)
	}
	return ArrayValue(KindFloat64, shape, elems)
}

func encodeFloat32Array(data []float32, shape []int) TaggedValue {
	elems := make([]uint64, len(data))
	for i, f := range data {
		elems[i] = uint64(math.Float32bits(f))
	}
	return ArrayValue(KindFloat32, shape, elems)
}

func encodeIntArray(data []int, shape []int) TaggedValue {
	elems := make([]uint64, len(data))
	for i, n := range data {
		elems[i] = uint64(int64(n))
	}
	return ArrayValue(KindInt, shape, elems)
}

// encodeNestedFloat64 encodes a matrix-shaped nested slice as a single array
// with a two-dimensional shape descriptor. Ragged rows fall back to a plain
// sequence of one-dimensional arrays, which preserves order but not a
// rectangular shape.
func encodeNestedFloat64(rows [][]float64) (TaggedValue, error) {
	if len(rows) == 0 {
		return ArrayValue(KindFloat64, []int{0, 0}, nil), nil
	}
	cols := len(rows[0])
	rect := true
	for _, row := range rows[1:] {
		if len(row) != cols {
			rect = false
			break
		}
	}
	if !rect {
		elems := make([]TaggedValue, len(rows))
		for i, row := range rows {
			elems[i] = encodeFloat64Array(row, []int{len(row)})
		}
		return SequenceValue(elems), nil
	}

	flat := make([]uint64, 0, len(rows)*cols)
	for _, row := range rows {
		for _, f := range row {
			flat = append(flat, math.Float64bits(f))
		}
	}
	return ArrayValue(KindFloat64, []int{len(rows), cols}, flat), nil
}

func encodeMatrix(m mat.Matrix) TaggedValue {
	r, c := m.Dims()
	flat := make([]uint64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			flat = append(flat, math.Float64bits(m.At(i, j)))
		}
	}
	return ArrayValue(KindFloat64, []int{r, c}, flat)
}

func encodeSequence(items []interface{}) (TaggedValue, error) {
	elems := make([]TaggedValue, len(items))
	for i, item := range items {
		tv, err := Encode(item)
		if err != nil {
			return TaggedValue{}, scierr.Wrapf(err, "element %d", i)
		}
		elems[i] = tv
	}
	return SequenceValue(elems), nil
}

// encodeStringMap encodes a string-keyed map. Keys are sorted so that raw Go
// maps, which iterate in random order, produce deterministic output. Ordered
// mappings that must keep insertion order go through the attribute bag.
func encodeStringMap(m map[string]interface{}) (TaggedValue, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]MapEntry, 0, len(m))
	for _, k := range keys {
		tv, err := Encode(m[k])
		if err != nil {
			return TaggedValue{}, scierr.Wrapf(err, "key %q", k)
		}
		entries = append(entries, MapEntry{Key: k, Value: tv})
	}
	return MappingValue(entries), nil
}

// encodeAnyKeyMap accepts a map with dynamic keys and rejects any key that is
// not a string. Composite keys (tuples, arrays) must be joined into a single
// string by the caller before serialization.
func encodeAnyKeyMap(m map[interface{}]interface{}) (TaggedValue, error) {
	generic := make(map[string]interface{}, len(m))
	for k, v := range m {
		s, ok := k.(string)
		if !ok {
			return TaggedValue{}, scierr.NewNonStringKeyError("codec.Encode", k)
		}
		generic[s] = v
	}
	return encodeStringMap(generic)
}

// MarshalValue is a convenience that encodes a value and renders it as JSON
// in one call. Nothing is produced when encoding fails.
func MarshalValue(value interface{}) ([]byte, error) {
	tv, err := Encode(value)
	if err != nil {
		return nil, err
	}
	data, err := tv.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tagged value: %w", err)
	}
	return data, nil
}
