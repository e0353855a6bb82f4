package preprocessing

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sklite/core/model"
)

func TestStandardScalerFitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	require.NoError(t, err)

	r, c := scaled.Dims()
	require.Equal(t, 4, r)
	require.Equal(t, 2, c)

	// Each column should have zero mean and unit variance.
	for j := 0; j < c; j++ {
		var sum, sumSq float64
		for i := 0; i < r; i++ {
			sum += scaled.At(i, j)
			sumSq += scaled.At(i, j) * scaled.At(i, j)
		}
		mean := sum / float64(r)
		variance := sumSq/float64(r) - mean*mean
		assert.InDelta(t, 0.0, mean, 1e-10)
		assert.InDelta(t, 1.0, variance, 1e-10)
	}
}

func TestStandardScalerInverseTransform(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1.5, -2,
		0.5, 4,
		-1, 7,
	})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	require.NoError(t, err)

	restored, err := scaler.InverseTransform(scaled)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, X.At(i, j), restored.At(i, j), 1e-10)
		}
	}
}

func TestStandardScalerConstantFeature(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{5, 5, 5})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Zero(t, scaled.At(i, 0))
	}
}

func TestStandardScalerWithoutCentering(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{2, 4})

	scaler := NewStandardScaler(false, false)
	scaled, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, 2.0, scaled.At(0, 0))
	assert.Equal(t, 4.0, scaled.At(1, 0))
}

func TestStandardScalerNotFitted(t *testing.T) {
	scaler := NewStandardScalerDefault()
	_, err := scaler.Transform(mat.NewDense(1, 1, []float64{1}))
	assert.Error(t, err)
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	scaler := NewStandardScalerDefault()
	require.NoError(t, scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))

	_, err := scaler.Transform(mat.NewDense(2, 3, nil))
	assert.Error(t, err)
}

func TestStandardScalerSaveLoad(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	scaler := NewStandardScalerDefault()
	require.NoError(t, scaler.Fit(X))

	var buf bytes.Buffer
	require.NoError(t, model.SaveState(scaler, &buf, model.FormatJSON))

	restored := NewStandardScalerDefault()
	require.NoError(t, model.LoadState(restored, &buf, model.FormatJSON))

	assert.True(t, restored.IsFitted())
	assert.Equal(t, scaler.NFeatures, restored.NFeatures)
	for j := range scaler.Mean {
		assert.Equal(t, math.Float64bits(scaler.Mean[j]), math.Float64bits(restored.Mean[j]))
		assert.Equal(t, math.Float64bits(scaler.Scale[j]), math.Float64bits(restored.Scale[j]))
	}

	// The restored scaler produces identical transforms.
	want, err := scaler.Transform(X)
	require.NoError(t, err)
	got, err := restored.Transform(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}

func TestMinMaxScalerFitTransform(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 100,
		2, 200,
		3, 300,
	})

	scaler := NewMinMaxScalerDefault()
	scaled, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, scaled.At(0, 0), 1e-10)
	assert.InDelta(t, 0.5, scaled.At(1, 0), 1e-10)
	assert.InDelta(t, 1.0, scaled.At(2, 0), 1e-10)
	assert.InDelta(t, 0.0, scaled.At(0, 1), 1e-10)
	assert.InDelta(t, 1.0, scaled.At(2, 1), 1e-10)
}

func TestMinMaxScalerCustomRange(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{0, 10})

	scaler := NewMinMaxScaler([2]float64{-1, 1})
	scaled, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, -1.0, scaled.At(0, 0), 1e-10)
	assert.InDelta(t, 1.0, scaled.At(1, 0), 1e-10)
}

func TestMinMaxScalerInverseTransform(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{3, 7, 11})

	scaler := NewMinMaxScalerDefault()
	scaled, err := scaler.FitTransform(X)
	require.NoError(t, err)

	restored, err := scaler.InverseTransform(scaled)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.InDelta(t, X.At(i, 0), restored.At(i, 0), 1e-10)
	}
}

func TestMinMaxScalerNotFitted(t *testing.T) {
	scaler := NewMinMaxScalerDefault()
	_, err := scaler.Transform(mat.NewDense(1, 1, []float64{1}))
	assert.Error(t, err)
}

func TestMinMaxScalerSaveLoad(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, -5,
		2, 0,
		3, 5,
	})

	scaler := NewMinMaxScaler([2]float64{0, 2})
	require.NoError(t, scaler.Fit(X))

	var buf bytes.Buffer
	require.NoError(t, model.SaveState(scaler, &buf, model.FormatCBOR))

	restored := NewMinMaxScalerDefault()
	require.NoError(t, model.LoadState(restored, &buf, model.FormatCBOR))

	assert.True(t, restored.IsFitted())
	assert.Equal(t, [2]float64{0, 2}, restored.FeatureRange)

	want, err := scaler.Transform(X)
	require.NoError(t, err)
	got, err := restored.Transform(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}

func TestScalersSatisfyTransformer(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})

	for _, tr := range []model.Transformer{
		NewStandardScalerDefault(),
		NewMinMaxScalerDefault(),
	} {
		out, err := tr.FitTransform(X)
		require.NoError(t, err)
		r, c := out.Dims()
		assert.Equal(t, 3, r)
		assert.Equal(t, 1, c)

		out2, err := tr.Transform(X)
		require.NoError(t, err)
		assert.True(t, mat.Equal(out, out2))
	}
}
