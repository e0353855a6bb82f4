package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sklite/pkg/errors"
)

// scoredPair couples a predicted score with the item's true relevance. The
// alias keeps dcg callable with ad-hoc pair slices.
type scoredPair = struct {
	score     float64
	relevance float64
}

// dcg computes the discounted cumulative gain over the first k pairs in the
// given order, with exponential gain (2^relevance - 1) and a log2(i+2)
// position discount.
func dcg(pairs []scoredPair, k int) float64 {
	if k > len(pairs) {
		k = len(pairs)
	}

	var sum float64
	for i := 0; i < k; i++ {
		gain := math.Pow(2, pairs[i].relevance) - 1
		discount := math.Log2(float64(i + 2))
		sum += gain / discount
	}
	return sum
}

// NDCG computes the normalized discounted cumulative gain at rank k. Pass
// k = -1 to evaluate the full ranking. Relevance labels must be
// non-negative. When the ideal DCG is zero (no relevant items) the score is
// 0.
func NDCG(yTrue, yPred *mat.VecDense, k int) (float64, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("NDCG", "empty vector")
	}

	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("NDCG", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("NDCG", n, yPred.Len(), 0)
	}

	if k <= 0 && k != -1 {
		return 0, errors.NewValueError("NDCG", "k must be positive or -1 for the full ranking")
	}
	if k == -1 {
		k = n
	}

	pairs := make([]scoredPair, n)
	for i := 0; i < n; i++ {
		rel := yTrue.AtVec(i)
		if rel < 0 {
			return 0, errors.NewValueError("NDCG", "relevance labels must be non-negative")
		}
		pairs[i] = scoredPair{score: yPred.AtVec(i), relevance: rel}
	}

	ranked := make([]scoredPair, n)
	copy(ranked, pairs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	ideal := make([]scoredPair, n)
	copy(ideal, pairs)
	sort.SliceStable(ideal, func(i, j int) bool {
		return ideal[i].relevance > ideal[j].relevance
	})

	idealDCG := dcg(ideal, k)
	if idealDCG == 0 {
		return 0, nil
	}

	return dcg(ranked, k) / idealDCG, nil
}

// NDCGMatrix computes NDCG for matrix input, using the first column of each
// matrix.
func NDCGMatrix(yTrue, yPred mat.Matrix, k int) (float64, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("NDCGMatrix", "nil matrix")
	}

	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 || rPred == 0 || cPred == 0 {
		return 0, errors.NewValueError("NDCGMatrix", "empty matrix")
	}

	if rTrue != rPred {
		return 0, errors.NewDimensionError("NDCGMatrix", rTrue, rPred, 0)
	}

	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)

	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, 0))
	}

	return NDCG(yTrueVec, yPredVec, k)
}

// AveragePrecision computes the average precision of a binary-relevance
// ranking: predictions are sorted descending and precision is averaged over
// the positions of the relevant items. A ranking with no relevant items
// scores 0.
func AveragePrecision(yTrue, yPred *mat.VecDense) (float64, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("AveragePrecision", "empty vector")
	}

	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("AveragePrecision", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("AveragePrecision", n, yPred.Len(), 0)
	}

	pairs := make([]scoredPair, n)
	for i := 0; i < n; i++ {
		rel := yTrue.AtVec(i)
		if rel != 0 && rel != 1 {
			return 0, errors.NewValueError("AveragePrecision", "labels must be 0 or 1")
		}
		pairs[i] = scoredPair{score: yPred.AtVec(i), relevance: rel}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})

	var sum float64
	hits := 0
	for i, pair := range pairs {
		if pair.relevance == 1 {
			hits++
			sum += float64(hits) / float64(i+1)
		}
	}

	if hits == 0 {
		return 0, nil
	}

	return sum / float64(hits), nil
}

// MeanAveragePrecision computes the mean of per-query average precisions.
func MeanAveragePrecision(yTrueList, yPredList []*mat.VecDense) (float64, error) {
	if len(yTrueList) == 0 {
		return 0, errors.NewValueError("MeanAveragePrecision", "empty query list")
	}

	if len(yTrueList) != len(yPredList) {
		return 0, errors.NewDimensionError("MeanAveragePrecision", len(yTrueList), len(yPredList), 0)
	}

	var sum float64
	for i := range yTrueList {
		ap, err := AveragePrecision(yTrueList[i], yPredList[i])
		if err != nil {
			return 0, errors.Wrapf(err, "query %d", i)
		}
		sum += ap
	}

	return sum / float64(len(yTrueList)), nil
}
