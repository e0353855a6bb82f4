// JSON wire format for tagged values.
//
// Native scalars map directly to JSON primitives. Exact-bit kinds use a
// single-key object whose key names the kind and whose value holds the bit
// pattern in hexadecimal:
//
//	{"float64": "0x40079eb851eb851f"}
//	{"float32": "0x3f800000"}
//	{"ndarray": {"dtype": "float64", "shape": [2, 2], "data": ["0x...", ...]}}
//
// Type references appear as their canonical name string. Sequences are JSON
// arrays and mappings are JSON objects with entry order preserved. The tag
// keys "float64", "float32" and "ndarray" are reserved: a mapping consisting
// of exactly one entry under such a key cannot be represented and must be
// renamed before serialization.

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	scierr "github.com/YuminosukeSato/sklite/pkg/errors"
)

const (
	tagFloat64 = "float64"
	tagFloat32 = "float32"
	tagArray   = "ndarray"
)

// MarshalJSON renders the tagged value. The whole tree is built in memory
// before any bytes are returned, so a failure produces no partial output.
func (tv TaggedValue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := tv.appendJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (tv TaggedValue) appendJSON(buf *bytes.Buffer) error {
	switch tv.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(tv.boolVal))
	case KindInt:
		buf.WriteString(strconv.FormatInt(tv.intVal, 10))
	case KindString, KindTypeRef:
		return writeJSONString(buf, tv.strVal)
	case KindFloat64:
		fmt.Fprintf(buf, `{"%s":"0x%016x"}`, tagFloat64, tv.bits)
	case KindFloat32:
		fmt.Fprintf(buf, `{"%s":"0x%08x"}`, tagFloat32, uint32(tv.bits))
	case KindSequence:
		buf.WriteByte('[')
		for i, elem := range tv.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := elem.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMapping:
		if len(tv.entries) == 1 && isReservedTag(tv.entries[0].Key) {
			return scierr.NewValueError("codec.MarshalJSON",
				"mapping with single reserved key "+strconv.Quote(tv.entries[0].Key)+" is not representable")
		}
		buf.WriteByte('{')
		for i, entry := range tv.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, entry.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := entry.Value.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		return tv.appendArrayJSON(buf)
	default:
		return scierr.NewValueError("codec.MarshalJSON", "invalid tagged value")
	}
	return nil
}

func (tv TaggedValue) appendArrayJSON(buf *bytes.Buffer) error {
	var dtype string
	switch tv.elemKind {
	case KindFloat64:
		dtype = "float64"
	case KindFloat32:
		dtype = "float32"
	case KindInt:
		dtype = "int"
	default:
		return scierr.NewValueError("codec.MarshalJSON", "unsupported array element kind "+tv.elemKind.String())
	}

	fmt.Fprintf(buf, `{"%s":{"dtype":"%s","shape":[`, tagArray, dtype)
	for i, dim := range tv.shape {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(dim))
	}
	buf.WriteString(`],"data":[`)
	for i, raw := range tv.elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		switch tv.elemKind {
		case KindFloat64:
			fmt.Fprintf(buf, `"0x%016x"`, raw)
		case KindFloat32:
			fmt.Fprintf(buf, `"0x%08x"`, uint32(raw))
		case KindInt:
			buf.WriteString(strconv.FormatInt(int64(raw), 10))
		}
	}
	buf.WriteString("]}}")
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	quoted, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(quoted)
	return nil
}

func isReservedTag(key string) bool {
	return key == tagFloat64 || key == tagFloat32 || key == tagArray
}

// UnmarshalJSON parses the wire format back into a tagged value. Plain JSON
// numbers with a fractional part are accepted for interoperability with
// foreign documents, but that path is lossy; exact round-trips require the
// hexadecimal form.
func (tv *TaggedValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return scierr.NewValueError("codec.UnmarshalJSON", "empty input")
	}

	switch trimmed[0] {
	case 'n':
		*tv = Null()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return scierr.Wrap(err, "invalid boolean")
		}
		*tv = BoolValue(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return scierr.Wrap(err, "invalid string")
		}
		*tv = StringValue(s)
		return nil
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return scierr.Wrap(err, "invalid sequence")
		}
		elems := make([]TaggedValue, len(raws))
		for i, raw := range raws {
			if err := elems[i].UnmarshalJSON(raw); err != nil {
				return scierr.Wrapf(err, "element %d", i)
			}
		}
		*tv = SequenceValue(elems)
		return nil
	case '{':
		return tv.unmarshalObject(trimmed)
	default:
		return tv.unmarshalNumber(trimmed)
	}
}

func (tv *TaggedValue) unmarshalNumber(data []byte) error {
	s := string(data)
	if !strings.ContainsAny(s, ".eE") {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return scierr.Wrap(err, "invalid integer")
		}
		*tv = IntValue(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return scierr.Wrap(err, "invalid number")
	}
	*tv = Float64Value(f)
	return nil
}

// unmarshalObject reads an object while preserving key order, then decides
// whether it is a tagged form (single reserved key) or a plain mapping.
func (tv *TaggedValue) unmarshalObject(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if _, err := dec.Token(); err != nil {
		return scierr.Wrap(err, "invalid object")
	}

	type rawEntry struct {
		key string
		raw json.RawMessage
	}
	var raws []rawEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return scierr.Wrap(err, "invalid object key")
		}
		key, ok := keyTok.(string)
		if !ok {
			return scierr.NewValueError("codec.UnmarshalJSON", "object key is not a string")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return scierr.Wrapf(err, "value for key %q", key)
		}
		raws = append(raws, rawEntry{key: key, raw: raw})
	}

	if len(raws) == 1 && isReservedTag(raws[0].key) {
		switch raws[0].key {
		case tagFloat64:
			bits, err := parseHexBits(raws[0].raw, 64)
			if err != nil {
				return err
			}
			*tv = TaggedValue{kind: KindFloat64, bits: bits}
			return nil
		case tagFloat32:
			bits, err := parseHexBits(raws[0].raw, 32)
			if err != nil {
				return err
			}
			*tv = TaggedValue{kind: KindFloat32, bits: bits}
			return nil
		case tagArray:
			return tv.unmarshalArray(raws[0].raw)
		}
	}

	entries := make([]MapEntry, len(raws))
	for i, re := range raws {
		entries[i].Key = re.key
		if err := entries[i].Value.UnmarshalJSON(re.raw); err != nil {
			return scierr.Wrapf(err, "key %q", re.key)
		}
	}
	*tv = MappingValue(entries)
	return nil
}

func (tv *TaggedValue) unmarshalArray(data []byte) error {
	var payload struct {
		Dtype string            `json:"dtype"`
		Shape []int             `json:"shape"`
		Data  []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return scierr.Wrap(err, "invalid ndarray payload")
	}

	var elemKind Kind
	switch payload.Dtype {
	case "float64":
		elemKind = KindFloat64
	case "float32":
		elemKind = KindFloat32
	case "int":
		elemKind = KindInt
	default:
		return scierr.NewUnknownTypeKindError("codec.UnmarshalJSON", payload.Dtype)
	}

	if err := ValidateShape("codec.UnmarshalJSON", payload.Shape, len(payload.Data)); err != nil {
		return err
	}

	elems := make([]uint64, len(payload.Data))
	for i, raw := range payload.Data {
		switch elemKind {
		case KindFloat64:
			bits, err := parseHexBits(raw, 64)
			if err != nil {
				return scierr.Wrapf(err, "data element %d", i)
			}
			elems[i] = bits
		case KindFloat32:
			bits, err := parseHexBits(raw, 32)
			if err != nil {
				return scierr.Wrapf(err, "data element %d", i)
			}
			elems[i] = bits
		case KindInt:
			var num json.Number
			if err := json.Unmarshal(raw, &num); err != nil {
				return scierr.Wrapf(err, "data element %d", i)
			}
			n, err := num.Int64()
			if err != nil {
				return scierr.Wrapf(err, "data element %d", i)
			}
			elems[i] = uint64(n)
		}
	}

	*tv = ArrayValue(elemKind, payload.Shape, elems)
	return nil
}

// parseHexBits parses a "0x"-prefixed hexadecimal bit pattern of the given
// width (32 or 64 bits).
func parseHexBits(raw json.RawMessage, width int) (uint64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, scierr.Wrap(err, "exact-bit value must be a string")
	}
	if !strings.HasPrefix(s, "0x") {
		return 0, scierr.NewValueError("codec.UnmarshalJSON", "exact-bit value must start with 0x, got "+strconv.Quote(s))
	}
	bits, err := strconv.ParseUint(s[2:], 16, width)
	if err != nil {
		return 0, scierr.Wrap(err, "invalid exact-bit value")
	}
	return bits, nil
}
