package linear_model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sklite/core/codec"
	"github.com/YuminosukeSato/sklite/core/model"
	"github.com/YuminosukeSato/sklite/pkg/errors"
)

var (
	_ model.Classifier      = (*LogisticRegression)(nil)
	_ model.ParameterGetter = (*LogisticRegression)(nil)
	_ model.Serializable    = (*LogisticRegression)(nil)
)

// LogisticRegression implements logistic regression for classification,
// compatible with scikit-learn's LogisticRegression.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	penalty      string  // "l2" or "none"
	C            float64 // Inverse regularization strength
	fitIntercept bool
	randomState  int64
	solver       string
	maxIter      int
	multiClass   string // "auto", "ovr", "multinomial"
	warmStart    bool
	tol          float64

	// Learned parameters
	coef_      [][]float64 // n_classes x n_features (1 x n_features for binary)
	intercept_ []float64
	classes_   []int
	nClasses_  int
	nFeatures_ int
	nIter_     []int

	rand *rand.Rand
}

// LogisticRegressionOption configures a LogisticRegression classifier.
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a LogisticRegression classifier with the
// given options.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		randomState:  -1,
		solver:       "lbfgs",
		maxIter:      100,
		multiClass:   "auto",
		tol:          1e-4,
	}

	for _, opt := range opts {
		opt(lr)
	}

	if lr.randomState >= 0 {
		lr.rand = rand.New(rand.NewSource(lr.randomState))
	} else {
		lr.rand = rand.New(rand.NewSource(rand.Int63()))
	}

	return lr
}

// WithLRPenalty sets the regularization type.
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength.
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether an intercept is fitted.
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRSolver sets the optimization solver.
func WithLRSolver(solver string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.solver = solver
	}
}

// WithLRMaxIter sets the maximum number of iterations.
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance of the stopping criterion.
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the random seed for weight initialization.
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
		if seed >= 0 {
			lr.rand = rand.New(rand.NewSource(seed))
		}
	}
}

// Fit trains the logistic regression model by gradient descent. When a class
// fails to converge within maxIter iterations a ConvergenceWarning is
// raised through the warning handler.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}

	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}

	lr.extractClasses(y)
	lr.nFeatures_ = nFeatures

	if !lr.warmStart || lr.coef_ == nil {
		lr.initializeWeights(nFeatures)
	}

	if lr.nClasses_ == 2 {
		if err := lr.fitBinaryForClass(X, binaryLabels(y, lr.classes_[1]), 0); err != nil {
			return err
		}
	} else {
		if err := lr.fitOVR(X, y); err != nil {
			return err
		}
	}

	lr.state.SetFitted()
	lr.state.SetDimensions(nFeatures, nSamples)
	return nil
}

// extractClasses identifies the sorted unique class labels.
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)

	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}

	lr.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		lr.classes_ = append(lr.classes_, class)
	}

	for i := 0; i < len(lr.classes_)-1; i++ {
		for j := i + 1; j < len(lr.classes_); j++ {
			if lr.classes_[i] > lr.classes_[j] {
				lr.classes_[i], lr.classes_[j] = lr.classes_[j], lr.classes_[i]
			}
		}
	}

	lr.nClasses_ = len(lr.classes_)
}

// initializeWeights allocates and seeds the weight matrices.
func (lr *LogisticRegression) initializeWeights(nFeatures int) {
	nRows := lr.nClasses_
	if lr.nClasses_ == 2 {
		nRows = 1
	}

	lr.coef_ = make([][]float64, nRows)
	for i := range lr.coef_ {
		lr.coef_[i] = make([]float64, nFeatures)
	}
	lr.intercept_ = make([]float64, nRows)
	lr.nIter_ = make([]int, nRows)

	for i := range lr.coef_ {
		for j := range lr.coef_[i] {
			lr.coef_[i][j] = lr.rand.NormFloat64() * 0.01
		}
	}
}

// binaryLabels converts a label column into 0/1 indicators for the positive
// class.
func binaryLabels(y mat.Matrix, positive int) *mat.Dense {
	rows, _ := y.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		if int(y.At(i, 0)) == positive {
			out.Set(i, 0, 1.0)
		}
	}
	return out
}

// fitOVR trains one binary classifier per class (one-vs-rest).
func (lr *LogisticRegression) fitOVR(X, y mat.Matrix) error {
	for classIdx, class := range lr.classes_ {
		if err := lr.fitBinaryForClass(X, binaryLabels(y, class), classIdx); err != nil {
			return errors.Wrapf(err, "failed to fit class %d", class)
		}
	}
	return nil
}

// fitBinaryForClass runs gradient descent for one binary sub-problem.
func (lr *LogisticRegression) fitBinaryForClass(X, yBinary mat.Matrix, classIdx int) error {
	nSamples, nFeatures := X.Dims()
	weights := lr.coef_[classIdx]
	intercept := &lr.intercept_[classIdx]

	baseLearningRate := 1.0
	converged := false

	for iter := 0; iter < lr.maxIter; iter++ {
		predictions := make([]float64, nSamples)
		for i := 0; i < nSamples; i++ {
			z := *intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			predictions[i] = sigmoid(z)
		}

		gradWeights := make([]float64, nFeatures)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			diff := predictions[i] - yBinary.At(i, 0)
			gradIntercept += diff
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += diff * X.At(i, j)
			}
		}

		for j := range gradWeights {
			gradWeights[j] /= float64(nSamples)
		}
		gradIntercept /= float64(nSamples)

		if lr.penalty == "l2" {
			lambda := 1.0 / lr.C
			for j := range weights {
				gradWeights[j] += lambda * weights[j]
			}
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))

		for j := range weights {
			weights[j] -= learningRate * gradWeights[j]
		}
		if lr.fitIntercept {
			*intercept -= learningRate * gradIntercept
		}

		lr.nIter_[classIdx] = iter + 1

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradWeights {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter, ""))
	}

	return nil
}

// Predict returns the predicted class label for each input sample.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "Predict"); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)

	if lr.nClasses_ == 2 {
		for i := 0; i < nSamples; i++ {
			z := lr.intercept_[0]
			for j := 0; j < lr.nFeatures_; j++ {
				z += X.At(i, j) * lr.coef_[0][j]
			}
			if sigmoid(z) >= 0.5 {
				predictions.Set(i, 0, float64(lr.classes_[1]))
			} else {
				predictions.Set(i, 0, float64(lr.classes_[0]))
			}
		}
	} else {
		for i := 0; i < nSamples; i++ {
			maxScore := math.Inf(-1)
			bestClass := 0

			for classIdx := 0; classIdx < lr.nClasses_; classIdx++ {
				score := lr.intercept_[classIdx]
				for j := 0; j < lr.nFeatures_; j++ {
					score += X.At(i, j) * lr.coef_[classIdx][j]
				}
				if score > maxScore {
					maxScore = score
					bestClass = classIdx
				}
			}
			predictions.Set(i, 0, float64(lr.classes_[bestClass]))
		}
	}

	return predictions, nil
}

// PredictProba returns per-class probability estimates. The binary case uses
// the sigmoid directly; the multiclass case applies a softmax over the
// one-vs-rest scores.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	probas := mat.NewDense(nSamples, lr.nClasses_, nil)

	if lr.nClasses_ == 2 {
		for i := 0; i < nSamples; i++ {
			z := lr.intercept_[0]
			for j := 0; j < lr.nFeatures_; j++ {
				z += X.At(i, j) * lr.coef_[0][j]
			}
			prob1 := sigmoid(z)
			probas.Set(i, 0, 1.0-prob1)
			probas.Set(i, 1, prob1)
		}
	} else {
		for i := 0; i < nSamples; i++ {
			scores := make([]float64, lr.nClasses_)
			maxScore := math.Inf(-1)

			for classIdx := 0; classIdx < lr.nClasses_; classIdx++ {
				score := lr.intercept_[classIdx]
				for j := 0; j < lr.nFeatures_; j++ {
					score += X.At(i, j) * lr.coef_[classIdx][j]
				}
				scores[classIdx] = score
				if score > maxScore {
					maxScore = score
				}
			}

			sum := 0.0
			for classIdx := 0; classIdx < lr.nClasses_; classIdx++ {
				scores[classIdx] = math.Exp(scores[classIdx] - maxScore)
				sum += scores[classIdx]
			}

			for classIdx := 0; classIdx < lr.nClasses_; classIdx++ {
				probas.Set(i, classIdx, scores[classIdx]/sum)
			}
		}
	}

	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (lr *LogisticRegression) Score(X, y mat.Matrix) float64 {
	predictions, err := lr.Predict(X)
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

// Classes returns a copy of the sorted unique class labels seen during
// fitting.
func (lr *LogisticRegression) Classes() []int {
	out := make([]int, len(lr.classes_))
	copy(out, lr.classes_)
	return out
}

// IsFitted returns whether the model has been fitted.
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the model hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"random_state":  lr.randomState,
		"solver":        lr.solver,
		"max_iter":      lr.maxIter,
		"multi_class":   lr.multiClass,
		"warm_start":    lr.warmStart,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "penalty":
			lr.penalty = value.(string)
		case "C":
			lr.C = value.(float64)
		case "fit_intercept":
			lr.fitIntercept = value.(bool)
		case "random_state":
			lr.randomState = value.(int64)
			if lr.randomState >= 0 {
				lr.rand = rand.New(rand.NewSource(lr.randomState))
			}
		case "solver":
			lr.solver = value.(string)
		case "max_iter":
			lr.maxIter = value.(int)
		case "multi_class":
			lr.multiClass = value.(string)
		case "warm_start":
			lr.warmStart = value.(bool)
		case "tol":
			lr.tol = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

// StateSchema declares the attributes persisted for a fitted classifier.
func (lr *LogisticRegression) StateSchema() []model.Slot {
	return []model.Slot{
		{
			Name: "C",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return lr.C },
			Set: func(v interface{}) error {
				f, ok := v.(float64)
				if !ok {
					return errors.Newf("expected float64, got %T", v)
				}
				lr.C = f
				return nil
			},
		},
		{
			Name: "classes_",
			Kind: codec.KindInt,
			Get:  func() interface{} { return lr.classes_ },
			Set: func(v interface{}) error {
				classes, ok := v.([]int)
				if !ok {
					return errors.Newf("expected []int, got %T", v)
				}
				lr.classes_ = classes
				lr.nClasses_ = len(classes)
				return nil
			},
		},
		{
			Name: "coef_",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return lr.coef_ },
			Set: func(v interface{}) error {
				coef, ok := v.([][]float64)
				if !ok {
					return errors.Newf("expected [][]float64, got %T", v)
				}
				lr.coef_ = coef
				return nil
			},
		},
		{
			Name: "intercept_",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return lr.intercept_ },
			Set: func(v interface{}) error {
				intercept, ok := v.([]float64)
				if !ok {
					return errors.Newf("expected []float64, got %T", v)
				}
				lr.intercept_ = intercept
				return nil
			},
		},
		{
			Name: "n_iter_",
			Kind: codec.KindInt,
			Get:  func() interface{} { return lr.nIter_ },
			Set: func(v interface{}) error {
				iters, ok := v.([]int)
				if !ok {
					return errors.Newf("expected []int, got %T", v)
				}
				lr.nIter_ = iters
				return nil
			},
		},
		{
			Name: "n_features_in_",
			Kind: codec.KindInt,
			Get:  func() interface{} { return lr.nFeatures_ },
			Set: func(v interface{}) error {
				n, ok := v.(int)
				if !ok {
					return errors.Newf("expected int, got %T", v)
				}
				lr.nFeatures_ = n
				lr.state.SetDimensions(n, 0)
				lr.state.SetFitted()
				return nil
			},
		},
	}
}

// String returns the string representation of the model.
func (lr *LogisticRegression) String() string {
	if !lr.state.IsFitted() {
		return fmt.Sprintf("LogisticRegression(C=%g, penalty=%s, max_iter=%d)",
			lr.C, lr.penalty, lr.maxIter)
	}
	return fmt.Sprintf("LogisticRegression(C=%g, n_classes=%d, n_features=%d, fitted=true)",
		lr.C, lr.nClasses_, lr.nFeatures_)
}

// sigmoid computes the logistic function.
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
