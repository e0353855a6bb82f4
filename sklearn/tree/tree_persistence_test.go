package tree

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sklite/core/model"
)

func fittedTree(t *testing.T) (*DecisionTreeClassifier, *mat.Dense, *mat.Dense) {
	t.Helper()

	X := mat.NewDense(9, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		3, 3,
		3, 4,
		4, 3,
		6, 6,
		6, 7,
		7, 6,
	})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	dt := NewDecisionTreeClassifier(WithCriterion("gini"), WithMaxDepth(5))
	require.NoError(t, dt.Fit(X, y))
	return dt, X, y
}

func TestDecisionTreeSaveLoadJSON(t *testing.T) {
	original, X, y := fittedTree(t)

	var buf bytes.Buffer
	require.NoError(t, model.SaveState(original, &buf, model.FormatJSON))

	restored := NewDecisionTreeClassifier()
	require.NoError(t, model.LoadState(restored, &buf, model.FormatJSON))

	require.True(t, restored.IsFitted())
	assert.Equal(t, original.Classes(), restored.Classes())
	assert.Equal(t, original.GetDepth(), restored.GetDepth())
	assert.Equal(t, original.GetNLeaves(), restored.GetNLeaves())

	assert.Equal(t, 1.0, restored.Score(X, y))

	want, err := original.PredictProba(X)
	require.NoError(t, err)
	got, err := restored.PredictProba(X)
	require.NoError(t, err)

	r, c := want.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.Equal(t,
				math.Float64bits(want.At(i, j)),
				math.Float64bits(got.At(i, j)))
		}
	}
}

func TestDecisionTreeSaveLoadCBOR(t *testing.T) {
	original, X, y := fittedTree(t)

	var buf bytes.Buffer
	require.NoError(t, model.SaveState(original, &buf, model.FormatCBOR))

	restored := NewDecisionTreeClassifier()
	require.NoError(t, model.LoadState(restored, &buf, model.FormatCBOR))

	require.True(t, restored.IsFitted())
	assert.Equal(t, 1.0, restored.Score(X, y))

	importances := restored.GetFeatureImportances()
	require.Len(t, importances, 2)
	sum := 0.0
	for _, imp := range importances {
		sum += imp
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestDecisionTreeSaveLoadThresholdsExact(t *testing.T) {
	original, _, _ := fittedTree(t)

	var buf bytes.Buffer
	require.NoError(t, model.SaveState(original, &buf, model.FormatJSON))

	restored := NewDecisionTreeClassifier()
	require.NoError(t, model.LoadState(restored, &buf, model.FormatJSON))

	require.Len(t, restored.threshold_, len(original.threshold_))
	for i := range original.threshold_ {
		assert.Equal(t,
			math.Float64bits(original.threshold_[i]),
			math.Float64bits(restored.threshold_[i]),
			"threshold %d must restore bit for bit", i)
	}
}

func TestDecisionTreeSatisfiesClassifier(t *testing.T) {
	dt, X, _ := fittedTree(t)

	var clf model.Classifier = dt
	assert.Equal(t, []int{0, 1, 2}, clf.Classes())

	pred, err := clf.Predict(X)
	require.NoError(t, err)
	r, _ := pred.Dims()
	assert.Equal(t, 9, r)

	proba, err := clf.PredictProba(X)
	require.NoError(t, err)
	_, c := proba.Dims()
	assert.Equal(t, 3, c)
}
