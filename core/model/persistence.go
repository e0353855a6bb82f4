package model

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/YuminosukeSato/sklite/core/codec"
	scierr "github.com/YuminosukeSato/sklite/pkg/errors"
)

// Format selects the on-disk encoding of a serialized attribute bag.
type Format string

const (
	// FormatJSON is the canonical text format with hexadecimal exact-bit
	// floats.
	FormatJSON Format = "json"

	// FormatCBOR is a compact binary alternative. CBOR carries raw bit
	// patterns natively so it is exact by construction.
	FormatCBOR Format = "cbor"
)

// SaveState serializes the object's state and writes it to w in the given
// format. The artifact is fully encoded in memory first: a failure anywhere
// during encoding writes nothing to w.
func SaveState(obj Serializable, w io.Writer, format Format) error {
	bag, err := Serialize(obj)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case FormatJSON:
		data, err = bag.MarshalJSON()
	case FormatCBOR:
		data, err = marshalBagCBOR(bag)
	default:
		return scierr.NewValidationError("format", "must be json or cbor", string(format))
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return scierr.Wrap(err, "failed to write serialized state")
	}
	return nil
}

// LoadState reads a serialized state from r and populates the object, which
// must be a freshly constructed instance of the kind that produced the state.
func LoadState(obj Serializable, r io.Reader, format Format) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return scierr.Wrap(err, "failed to read serialized state")
	}

	bag := NewAttributeBag()
	switch format {
	case FormatJSON:
		err = bag.UnmarshalJSON(data)
	case FormatCBOR:
		err = unmarshalBagCBOR(data, bag)
	default:
		return scierr.NewValidationError("format", "must be json or cbor", string(format))
	}
	if err != nil {
		return err
	}

	return Populate(obj, bag)
}

// SaveStateToFile writes the object's state to path, inferring the format
// from the file extension (".cbor" selects CBOR, everything else JSON). The
// file is only created after encoding has succeeded.
func SaveStateToFile(obj Serializable, path string) error {
	format := formatForPath(path)

	var buf bytes.Buffer
	if err := SaveState(obj, &buf, format); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return scierr.Wrap(err, "failed to create state file")
	}
	defer file.Close()

	if _, err := file.Write(buf.Bytes()); err != nil {
		return scierr.Wrap(err, "failed to write state file")
	}
	return nil
}

// LoadStateFromFile reads the object's state from path, inferring the format
// from the file extension.
func LoadStateFromFile(obj Serializable, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return scierr.Wrap(err, "failed to open state file")
	}
	defer file.Close()

	return LoadState(obj, file, formatForPath(path))
}

func formatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return FormatCBOR
	}
	return FormatJSON
}

// cborNode is the CBOR mirror of a tagged value. Float bits and integer
// values travel as raw uint64 words, so the binary round trip is exact for
// every kind.
type cborNode struct {
	Kind  string     `cbor:"k"`
	Bool  bool       `cbor:"b,omitempty"`
	Int   int64      `cbor:"i,omitempty"`
	Str   string     `cbor:"s,omitempty"`
	Bits  uint64     `cbor:"f,omitempty"`
	Dtype string     `cbor:"dt,omitempty"`
	Shape []int      `cbor:"sh,omitempty"`
	Elems []uint64   `cbor:"e,omitempty"`
	Seq   []cborNode `cbor:"q,omitempty"`
	Keys  []string   `cbor:"mk,omitempty"`
	Vals  []cborNode `cbor:"mv,omitempty"`
}

func marshalBagCBOR(bag *AttributeBag) ([]byte, error) {
	root, err := toCBORNode(codec.MappingValue(bag.Entries()))
	if err != nil {
		return nil, err
	}
	data, err := cbor.Marshal(root)
	if err != nil {
		return nil, scierr.Wrap(err, "failed to encode CBOR state")
	}
	return data, nil
}

func unmarshalBagCBOR(data []byte, bag *AttributeBag) error {
	var root cborNode
	if err := cbor.Unmarshal(data, &root); err != nil {
		return scierr.Wrap(err, "failed to decode CBOR state")
	}
	tv, err := fromCBORNode(root)
	if err != nil {
		return err
	}
	if tv.Kind() != codec.KindMapping {
		return scierr.NewValueError("LoadState", "CBOR state root is not a mapping")
	}
	for _, entry := range tv.Entries() {
		bag.Set(entry.Key, entry.Value)
	}
	return nil
}

func toCBORNode(tv codec.TaggedValue) (cborNode, error) {
	node := cborNode{Kind: tv.Kind().String()}
	switch tv.Kind() {
	case codec.KindNull:
	case codec.KindBool:
		node.Bool = tv.Bool()
	case codec.KindInt:
		node.Int = tv.Int()
	case codec.KindString, codec.KindTypeRef:
		node.Str = tv.Str()
	case codec.KindFloat64, codec.KindFloat32:
		node.Bits = tv.Bits()
	case codec.KindArray:
		node.Dtype = tv.ElemKind().String()
		node.Shape = tv.Shape()
		node.Elems = tv.RawElems()
	case codec.KindSequence:
		node.Seq = make([]cborNode, tv.Len())
		for i, elem := range tv.Sequence() {
			child, err := toCBORNode(elem)
			if err != nil {
				return cborNode{}, err
			}
			node.Seq[i] = child
		}
	case codec.KindMapping:
		entries := tv.Entries()
		node.Keys = make([]string, len(entries))
		node.Vals = make([]cborNode, len(entries))
		for i, entry := range entries {
			node.Keys[i] = entry.Key
			child, err := toCBORNode(entry.Value)
			if err != nil {
				return cborNode{}, err
			}
			node.Vals[i] = child
		}
	default:
		return cborNode{}, scierr.NewValueError("SaveState", "invalid tagged value")
	}
	return node, nil
}

func fromCBORNode(node cborNode) (codec.TaggedValue, error) {
	switch node.Kind {
	case "null":
		return codec.Null(), nil
	case "bool":
		return codec.BoolValue(node.Bool), nil
	case "int":
		return codec.IntValue(node.Int), nil
	case "string":
		return codec.StringValue(node.Str), nil
	case "typeref":
		kind, err := codec.KindByName(node.Str)
		if err != nil {
			return codec.TaggedValue{}, err
		}
		return codec.TypeRefValue(kind), nil
	case "float64":
		return codec.Float64FromBits(node.Bits), nil
	case "float32":
		return codec.Float32FromBits(node.Bits), nil
	case "ndarray":
		elemKind, err := codec.KindByName(node.Dtype)
		if err != nil {
			return codec.TaggedValue{}, err
		}
		if err := codec.ValidateShape("LoadState", node.Shape, len(node.Elems)); err != nil {
			return codec.TaggedValue{}, err
		}
		return codec.ArrayValue(elemKind, node.Shape, node.Elems), nil
	case "sequence":
		elems := make([]codec.TaggedValue, len(node.Seq))
		for i, child := range node.Seq {
			tv, err := fromCBORNode(child)
			if err != nil {
				return codec.TaggedValue{}, err
			}
			elems[i] = tv
		}
		return codec.SequenceValue(elems), nil
	case "mapping":
		if len(node.Keys) != len(node.Vals) {
			return codec.TaggedValue{}, scierr.NewValueError("LoadState", "mapping keys and values out of sync")
		}
		entries := make([]codec.MapEntry, len(node.Keys))
		for i := range node.Keys {
			tv, err := fromCBORNode(node.Vals[i])
			if err != nil {
				return codec.TaggedValue{}, err
			}
			entries[i] = codec.MapEntry{Key: node.Keys[i], Value: tv}
		}
		return codec.MappingValue(entries), nil
	default:
		return codec.TaggedValue{}, scierr.NewUnknownTypeKindError("LoadState", node.Kind)
	}
}
