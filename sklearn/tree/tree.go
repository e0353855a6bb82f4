// Package tree implements decision tree models compatible with
// scikit-learn's tree estimators.
package tree

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sklite/core/codec"
	"github.com/YuminosukeSato/sklite/core/model"
	"github.com/YuminosukeSato/sklite/pkg/errors"
)

// leafMarker marks a node without a split in the feature array.
const leafMarker = -1

var (
	_ model.Classifier      = (*DecisionTreeClassifier)(nil)
	_ model.ParameterGetter = (*DecisionTreeClassifier)(nil)
	_ model.Serializable    = (*DecisionTreeClassifier)(nil)
)

// DecisionTreeClassifier is a CART classifier supporting the gini and
// entropy impurity criteria. The fitted tree is stored in parallel arrays
// indexed by node id, the same layout scikit-learn exposes, so the whole
// structure serializes as flat attributes.
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	criterion       string // "gini" or "entropy"
	maxDepth        int    // -1 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int

	// Fitted tree, one entry per node.
	feature_       []int     // splitting feature, leafMarker for leaves
	threshold_     []float64 // splitting threshold
	childrenLeft_  []int
	childrenRight_ []int
	value_         [][]float64 // per-node class counts

	featureImportances_ []float64
	classes_            []int
	nClasses_           int
	nFeatures_          int
}

// DecisionTreeOption configures a DecisionTreeClassifier.
type DecisionTreeOption func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates a DecisionTreeClassifier with the given
// options.
func NewDecisionTreeClassifier(opts ...DecisionTreeOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       "gini",
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}

	for _, opt := range opts {
		opt(dt)
	}

	return dt
}

// WithCriterion sets the impurity criterion ("gini" or "entropy").
func WithCriterion(criterion string) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth limits the depth of the tree. Negative means unlimited.
func WithMaxDepth(depth int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples required to split a
// node.
func WithMinSamplesSplit(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples required at a leaf.
func WithMinSamplesLeaf(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// Fit grows the tree greedily from the training data.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}

	if nSamples != yRows {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}

	if yCols != 1 {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", 1, yCols, 1)
	}

	if dt.criterion != "gini" && dt.criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be gini or entropy", dt.criterion)
	}

	dt.extractClasses(y)
	dt.nFeatures_ = nFeatures

	dt.feature_ = dt.feature_[:0]
	dt.threshold_ = dt.threshold_[:0]
	dt.childrenLeft_ = dt.childrenLeft_[:0]
	dt.childrenRight_ = dt.childrenRight_[:0]
	dt.value_ = dt.value_[:0]
	dt.featureImportances_ = make([]float64, nFeatures)

	samples := make([]int, nSamples)
	for i := range samples {
		samples[i] = i
	}

	dt.buildNode(X, y, samples, 0)

	dt.normalizeImportances()
	dt.state.SetFitted()
	dt.state.SetDimensions(nFeatures, nSamples)
	return nil
}

// extractClasses identifies the sorted unique class labels.
func (dt *DecisionTreeClassifier) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	seen := make(map[int]bool)

	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = true
	}

	dt.classes_ = make([]int, 0, len(seen))
	for class := range seen {
		dt.classes_ = append(dt.classes_, class)
	}
	sort.Ints(dt.classes_)
	dt.nClasses_ = len(dt.classes_)
}

// classIndex maps a label to its position in classes_.
func (dt *DecisionTreeClassifier) classIndex(label int) int {
	for i, class := range dt.classes_ {
		if class == label {
			return i
		}
	}
	return -1
}

// buildNode recursively grows a subtree over the given samples and returns
// the new node's id.
func (dt *DecisionTreeClassifier) buildNode(X, y mat.Matrix, samples []int, depth int) int {
	counts := make([]float64, dt.nClasses_)
	for _, idx := range samples {
		counts[dt.classIndex(int(y.At(idx, 0)))]++
	}

	nodeID := len(dt.feature_)
	dt.feature_ = append(dt.feature_, leafMarker)
	dt.threshold_ = append(dt.threshold_, 0)
	dt.childrenLeft_ = append(dt.childrenLeft_, leafMarker)
	dt.childrenRight_ = append(dt.childrenRight_, leafMarker)
	dt.value_ = append(dt.value_, counts)

	impurity := dt.impurity(counts, float64(len(samples)))
	if impurity == 0 ||
		len(samples) < dt.minSamplesSplit ||
		(dt.maxDepth >= 0 && depth >= dt.maxDepth) {
		return nodeID
	}

	feature, threshold, gain, left, right := dt.bestSplit(X, y, samples, impurity)
	if feature < 0 {
		return nodeID
	}

	dt.featureImportances_[feature] += float64(len(samples)) * gain

	dt.feature_[nodeID] = feature
	dt.threshold_[nodeID] = threshold

	leftID := dt.buildNode(X, y, left, depth+1)
	rightID := dt.buildNode(X, y, right, depth+1)
	dt.childrenLeft_[nodeID] = leftID
	dt.childrenRight_[nodeID] = rightID

	return nodeID
}

// bestSplit scans all features and candidate thresholds for the split with
// the highest impurity decrease. It returns feature -1 when no valid split
// exists.
func (dt *DecisionTreeClassifier) bestSplit(X, y mat.Matrix, samples []int, parentImpurity float64) (int, float64, float64, []int, []int) {
	n := float64(len(samples))

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0
	var bestLeft, bestRight []int

	for feature := 0; feature < dt.nFeatures_; feature++ {
		values := make([]float64, len(samples))
		for i, idx := range samples {
			values[i] = X.At(idx, feature)
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)

		for i := 0; i+1 < len(sorted); i++ {
			if sorted[i] == sorted[i+1] {
				continue
			}
			threshold := (sorted[i] + sorted[i+1]) / 2

			var left, right []int
			for _, idx := range samples {
				if X.At(idx, feature) <= threshold {
					left = append(left, idx)
				} else {
					right = append(right, idx)
				}
			}

			if len(left) < dt.minSamplesLeaf || len(right) < dt.minSamplesLeaf {
				continue
			}

			leftCounts := make([]float64, dt.nClasses_)
			for _, idx := range left {
				leftCounts[dt.classIndex(int(y.At(idx, 0)))]++
			}
			rightCounts := make([]float64, dt.nClasses_)
			for _, idx := range right {
				rightCounts[dt.classIndex(int(y.At(idx, 0)))]++
			}

			nl, nr := float64(len(left)), float64(len(right))
			gain := parentImpurity -
				nl/n*dt.impurity(leftCounts, nl) -
				nr/n*dt.impurity(rightCounts, nr)

			if gain > bestGain {
				bestFeature = feature
				bestThreshold = threshold
				bestGain = gain
				bestLeft = left
				bestRight = right
			}
		}
	}

	return bestFeature, bestThreshold, bestGain, bestLeft, bestRight
}

// impurity computes the configured impurity of a class-count vector.
func (dt *DecisionTreeClassifier) impurity(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}

	if dt.criterion == "entropy" {
		entropy := 0.0
		for _, c := range counts {
			if c > 0 {
				p := c / total
				entropy -= p * math.Log2(p)
			}
		}
		return entropy
	}

	gini := 1.0
	for _, c := range counts {
		p := c / total
		gini -= p * p
	}
	return gini
}

func (dt *DecisionTreeClassifier) normalizeImportances() {
	sum := 0.0
	for _, imp := range dt.featureImportances_ {
		sum += imp
	}
	if sum == 0 {
		return
	}
	for i := range dt.featureImportances_ {
		dt.featureImportances_[i] /= sum
	}
}

// leafFor walks the tree to the leaf covering one input row.
func (dt *DecisionTreeClassifier) leafFor(X mat.Matrix, row int) int {
	node := 0
	for dt.feature_[node] != leafMarker {
		if X.At(row, dt.feature_[node]) <= dt.threshold_[node] {
			node = dt.childrenLeft_[node]
		} else {
			node = dt.childrenRight_[node]
		}
	}
	return node
}

// Predict returns the majority-class label of the leaf each sample lands in.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "Predict"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.nFeatures_ {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.Predict", dt.nFeatures_, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		counts := dt.value_[dt.leafFor(X, i)]

		best := 0
		for j := 1; j < dt.nClasses_; j++ {
			if counts[j] > counts[best] {
				best = j
			}
		}
		predictions.Set(i, 0, float64(dt.classes_[best]))
	}

	return predictions, nil
}

// PredictProba returns the class distribution of the leaf each sample lands
// in.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.nFeatures_ {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", dt.nFeatures_, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, dt.nClasses_, nil)
	for i := 0; i < nSamples; i++ {
		counts := dt.value_[dt.leafFor(X, i)]

		total := 0.0
		for _, c := range counts {
			total += c
		}
		for j := 0; j < dt.nClasses_; j++ {
			probas.Set(i, j, counts[j]/total)
		}
	}

	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	predictions, err := dt.Predict(X)
	if err != nil {
		return 0.0
	}

	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}

	return float64(correct) / float64(nSamples)
}

// Classes returns a copy of the sorted unique class labels.
func (dt *DecisionTreeClassifier) Classes() []int {
	out := make([]int, len(dt.classes_))
	copy(out, dt.classes_)
	return out
}

// GetFeatureImportances returns the normalized impurity-decrease importance
// of each feature.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	out := make([]float64, len(dt.featureImportances_))
	copy(out, dt.featureImportances_)
	return out
}

// GetDepth returns the depth of the fitted tree. A tree with a single leaf
// has depth 0.
func (dt *DecisionTreeClassifier) GetDepth() int {
	if len(dt.feature_) == 0 {
		return 0
	}
	return dt.nodeDepth(0)
}

func (dt *DecisionTreeClassifier) nodeDepth(node int) int {
	if dt.feature_[node] == leafMarker {
		return 0
	}
	left := dt.nodeDepth(dt.childrenLeft_[node])
	right := dt.nodeDepth(dt.childrenRight_[node])
	if left > right {
		return left + 1
	}
	return right + 1
}

// GetNLeaves returns the number of leaves in the fitted tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	n := 0
	for _, f := range dt.feature_ {
		if f == leafMarker {
			n++
		}
	}
	return n
}

// IsFitted returns whether the model has been fitted.
func (dt *DecisionTreeClassifier) IsFitted() bool {
	return dt.state.IsFitted()
}

// GetParams returns the model hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
	}
}

// SetParams sets the model hyperparameters.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "criterion":
			dt.criterion = value.(string)
		case "max_depth":
			dt.maxDepth = value.(int)
		case "min_samples_split":
			dt.minSamplesSplit = value.(int)
		case "min_samples_leaf":
			dt.minSamplesLeaf = value.(int)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

// StateSchema declares the attributes persisted for a fitted tree. The node
// arrays use scikit-learn's flat layout: children ids, split features and
// thresholds indexed by node, leaves marked with -1.
func (dt *DecisionTreeClassifier) StateSchema() []model.Slot {
	return []model.Slot{
		{
			Name: "criterion",
			Kind: codec.KindString,
			Get:  func() interface{} { return dt.criterion },
			Set: func(v interface{}) error {
				s, ok := v.(string)
				if !ok {
					return errors.Newf("expected string, got %T", v)
				}
				dt.criterion = s
				return nil
			},
		},
		{
			Name: "classes_",
			Kind: codec.KindInt,
			Get:  func() interface{} { return dt.classes_ },
			Set: func(v interface{}) error {
				classes, ok := v.([]int)
				if !ok {
					return errors.Newf("expected []int, got %T", v)
				}
				dt.classes_ = classes
				dt.nClasses_ = len(classes)
				return nil
			},
		},
		{
			Name: "feature",
			Kind: codec.KindInt,
			Get:  func() interface{} { return dt.feature_ },
			Set:  func(v interface{}) error { return assignIntSlice(&dt.feature_, v) },
		},
		{
			Name: "threshold",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return dt.threshold_ },
			Set: func(v interface{}) error {
				fs, ok := v.([]float64)
				if !ok {
					return errors.Newf("expected []float64, got %T", v)
				}
				dt.threshold_ = fs
				return nil
			},
		},
		{
			Name: "children_left",
			Kind: codec.KindInt,
			Get:  func() interface{} { return dt.childrenLeft_ },
			Set:  func(v interface{}) error { return assignIntSlice(&dt.childrenLeft_, v) },
		},
		{
			Name: "children_right",
			Kind: codec.KindInt,
			Get:  func() interface{} { return dt.childrenRight_ },
			Set:  func(v interface{}) error { return assignIntSlice(&dt.childrenRight_, v) },
		},
		{
			Name: "value",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return dt.value_ },
			Set: func(v interface{}) error {
				counts, ok := v.([][]float64)
				if !ok {
					return errors.Newf("expected [][]float64, got %T", v)
				}
				dt.value_ = counts
				return nil
			},
		},
		{
			Name: "feature_importances_",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return dt.featureImportances_ },
			Set: func(v interface{}) error {
				fs, ok := v.([]float64)
				if !ok {
					return errors.Newf("expected []float64, got %T", v)
				}
				dt.featureImportances_ = fs
				return nil
			},
		},
		{
			Name: "n_features_in_",
			Kind: codec.KindInt,
			Get:  func() interface{} { return dt.nFeatures_ },
			Set: func(v interface{}) error {
				n, ok := v.(int)
				if !ok {
					return errors.Newf("expected int, got %T", v)
				}
				dt.nFeatures_ = n
				dt.state.SetDimensions(n, 0)
				dt.state.SetFitted()
				return nil
			},
		},
	}
}

func assignIntSlice(dst *[]int, v interface{}) error {
	is, ok := v.([]int)
	if !ok {
		return errors.Newf("expected []int, got %T", v)
	}
	*dst = is
	return nil
}

// String returns the string representation of the model.
func (dt *DecisionTreeClassifier) String() string {
	if !dt.state.IsFitted() {
		return fmt.Sprintf("DecisionTreeClassifier(criterion=%s, max_depth=%d)",
			dt.criterion, dt.maxDepth)
	}
	return fmt.Sprintf("DecisionTreeClassifier(criterion=%s, depth=%d, n_leaves=%d, fitted=true)",
		dt.criterion, dt.GetDepth(), dt.GetNLeaves())
}
