package model

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fittedClassifierState() *classifierState {
	return &classifierState{
		C:         0.1,
		Classes:   []int{0, 1, 2},
		Intercept: []float64{9.88, 2.22, -12.10},
	}
}

func TestSaveLoadStateJSON(t *testing.T) {
	original := fittedClassifierState()

	var buf bytes.Buffer
	require.NoError(t, SaveState(original, &buf, FormatJSON))

	restored := &classifierState{}
	require.NoError(t, LoadState(restored, &buf, FormatJSON))

	assert.Equal(t, original.Classes, restored.Classes)
	for i := range original.Intercept {
		assert.Equal(t,
			math.Float64bits(original.Intercept[i]),
			math.Float64bits(restored.Intercept[i]))
	}
}

func TestSaveLoadStateCBOR(t *testing.T) {
	original := fittedClassifierState()

	var buf bytes.Buffer
	require.NoError(t, SaveState(original, &buf, FormatCBOR))

	restored := &classifierState{}
	require.NoError(t, LoadState(restored, &buf, FormatCBOR))

	assert.Equal(t, original.Classes, restored.Classes)
	for i := range original.Intercept {
		assert.Equal(t,
			math.Float64bits(original.Intercept[i]),
			math.Float64bits(restored.Intercept[i]))
	}
	assert.Equal(t, math.Float64bits(original.C), math.Float64bits(restored.C))
}

func TestCBORPreservesNaNPayload(t *testing.T) {
	payload := uint64(0x7ff8000000000abc)
	original := &classifierState{
		C:         math.Float64frombits(payload),
		Classes:   []int{0},
		Intercept: []float64{math.Inf(-1)},
	}

	var buf bytes.Buffer
	require.NoError(t, SaveState(original, &buf, FormatCBOR))

	restored := &classifierState{}
	require.NoError(t, LoadState(restored, &buf, FormatCBOR))

	assert.Equal(t, payload, math.Float64bits(restored.C))
	assert.True(t, math.IsInf(restored.Intercept[0], -1))
}

func TestLoadStateCBORMalformedShape(t *testing.T) {
	// A handcrafted document whose array shape is negative but whose
	// dimension product still matches the element count. Loading must fail
	// with an error rather than corrupting array reconstruction.
	root := cborNode{
		Kind: "mapping",
		Keys: []string{"C", "classes_", "intercept_"},
		Vals: []cborNode{
			{Kind: "float64", Bits: math.Float64bits(0.1)},
			{Kind: "ndarray", Dtype: "int", Shape: []int{1}, Elems: []uint64{0}},
			{Kind: "ndarray", Dtype: "float64", Shape: []int{-1, -4}, Elems: make([]uint64, 4)},
		},
	}
	data, err := cbor.Marshal(root)
	require.NoError(t, err)

	restored := &classifierState{}
	err = LoadState(restored, bytes.NewReader(data), FormatCBOR)
	require.Error(t, err)
}

func TestSaveStateUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := SaveState(fittedClassifierState(), &buf, Format("xml"))
	require.Error(t, err)
	assert.Zero(t, buf.Len(), "a failed save must not write partial output")
}

func TestSaveStateEncodingFailureWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	err := SaveState(&panickyGetter{}, &buf, FormatJSON)
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestSaveLoadStateFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "model.json")
	cborPath := filepath.Join(dir, "model.cbor")

	original := fittedClassifierState()
	require.NoError(t, SaveStateToFile(original, jsonPath))
	require.NoError(t, SaveStateToFile(original, cborPath))

	fromJSON := &classifierState{}
	require.NoError(t, LoadStateFromFile(fromJSON, jsonPath))
	assert.Equal(t, original.Classes, fromJSON.Classes)

	fromCBOR := &classifierState{}
	require.NoError(t, LoadStateFromFile(fromCBOR, cborPath))
	assert.Equal(t, original.Classes, fromCBOR.Classes)
	for i := range original.Intercept {
		assert.Equal(t,
			math.Float64bits(original.Intercept[i]),
			math.Float64bits(fromCBOR.Intercept[i]))
	}
}

func TestLoadStateFromFileMissing(t *testing.T) {
	err := LoadStateFromFile(&classifierState{}, filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
