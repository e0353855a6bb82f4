package linear_model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sklite/core/codec"
	"github.com/YuminosukeSato/sklite/core/model"
	"github.com/YuminosukeSato/sklite/pkg/errors"
)

var (
	_ model.Fitter          = (*LinearRegression)(nil)
	_ model.Predictor       = (*LinearRegression)(nil)
	_ model.ParameterGetter = (*LinearRegression)(nil)
	_ model.Serializable    = (*LinearRegression)(nil)
)

// LinearRegression is an ordinary least squares regression model compatible
// with scikit-learn's LinearRegression.
type LinearRegression struct {
	state *model.StateManager

	// Hyperparameters
	fitIntercept bool
	copyX        bool
	positive     bool

	// Learned parameters
	coef_      []float64
	intercept_ float64

	nFeatures_ int
	nSamples_  int
	rank_      int
}

// NewLinearRegression creates a LinearRegression model with the given
// options.
func NewLinearRegression(options ...LinearRegressionOption) *LinearRegression {
	lr := &LinearRegression{
		state:        model.NewStateManager(),
		fitIntercept: true,
		copyX:        true,
	}

	for _, opt := range options {
		opt(lr)
	}

	return lr
}

// LinearRegressionOption configures a LinearRegression model.
type LinearRegressionOption func(*LinearRegression)

// WithLRFitIntercept controls whether an intercept term is learned.
func WithLRFitIntercept(fit bool) LinearRegressionOption {
	return func(lr *LinearRegression) {
		lr.fitIntercept = fit
	}
}

// WithCopyX controls whether the training data is copied before fitting.
func WithCopyX(copy bool) LinearRegressionOption {
	return func(lr *LinearRegression) {
		lr.copyX = copy
	}
}

// WithPositive clamps learned coefficients to be non-negative.
func WithPositive(positive bool) LinearRegressionOption {
	return func(lr *LinearRegression) {
		lr.positive = positive
	}
}

// Fit learns the coefficients by QR decomposition of the design matrix.
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()

	if rows != yRows {
		return errors.NewDimensionError("LinearRegression.Fit", rows, yRows, 0)
	}

	if yCols != 1 {
		return errors.NewDimensionError("LinearRegression.Fit", 1, yCols, 1)
	}

	lr.nSamples_ = rows
	lr.nFeatures_ = cols

	var XWork mat.Matrix
	if lr.copyX {
		XWork = mat.DenseCopyOf(X)
	} else {
		XWork = X
	}

	var XFit mat.Matrix
	if lr.fitIntercept {
		// Prepend a bias column of ones.
		XWithIntercept := mat.NewDense(rows, cols+1, nil)
		for i := 0; i < rows; i++ {
			XWithIntercept.Set(i, 0, 1.0)
			for j := 0; j < cols; j++ {
				XWithIntercept.Set(i, j+1, XWork.At(i, j))
			}
		}
		XFit = XWithIntercept
	} else {
		XFit = XWork
	}

	// QR decomposition is numerically more stable than the normal
	// equations.
	var qr mat.QR
	qr.Factorize(XFit)

	lr.rank_ = cols
	if lr.fitIntercept {
		lr.rank_++
	}

	_, qrCols := XFit.Dims()
	coefficients := mat.NewDense(qrCols, 1, nil)
	if err := qr.SolveTo(coefficients, false, y); err != nil {
		return errors.Wrap(err, "LinearRegression.Fit: failed to solve linear system")
	}

	if lr.fitIntercept {
		lr.intercept_ = coefficients.At(0, 0)
		lr.coef_ = make([]float64, cols)
		for i := 0; i < cols; i++ {
			lr.coef_[i] = coefficients.At(i+1, 0)
		}
	} else {
		lr.intercept_ = 0.0
		lr.coef_ = make([]float64, cols)
		for i := 0; i < cols; i++ {
			lr.coef_[i] = coefficients.At(i, 0)
		}
	}

	if lr.positive {
		for i := range lr.coef_ {
			if lr.coef_[i] < 0 {
				lr.coef_[i] = 0
			}
		}
		if lr.intercept_ < 0 {
			lr.intercept_ = 0
		}
	}

	lr.state.SetFitted()
	lr.state.SetDimensions(lr.nFeatures_, lr.nSamples_)
	return nil
}

// Predict computes predictions for the input samples.
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}

	rows, cols := X.Dims()
	if cols != lr.nFeatures_ {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.nFeatures_, cols, 1)
	}

	predictions := mat.NewDense(rows, 1, nil)

	for i := 0; i < rows; i++ {
		pred := lr.intercept_
		for j := 0; j < cols; j++ {
			pred += X.At(i, j) * lr.coef_[j]
		}
		predictions.Set(i, 0, pred)
	}

	return predictions, nil
}

// Score computes the coefficient of determination (R²).
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	rows, _ := y.Dims()

	var yMean float64
	for i := 0; i < rows; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(rows)

	var ssTot, ssRes float64
	for i := 0; i < rows; i++ {
		yi := y.At(i, 0)
		predi := predictions.At(i, 0)

		ssTot += (yi - yMean) * (yi - yMean)
		ssRes += (yi - predi) * (yi - predi)
	}

	if ssTot == 0 {
		return 0, errors.NewValueError("LinearRegression.Score", "Cannot compute score with zero variance in y_true")
	}

	return 1.0 - (ssRes / ssTot), nil
}

// Coef returns a copy of the learned weight coefficients.
func (lr *LinearRegression) Coef() []float64 {
	if lr.coef_ == nil {
		return nil
	}
	coef := make([]float64, len(lr.coef_))
	copy(coef, lr.coef_)
	return coef
}

// Intercept returns the learned intercept.
func (lr *LinearRegression) Intercept() float64 {
	return lr.intercept_
}

// GetParams returns the model's hyperparameters.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"fit_intercept": lr.fitIntercept,
		"copy_X":        lr.copyX,
		"positive":      lr.positive,
	}
}

// SetParams sets the model's hyperparameters.
func (lr *LinearRegression) SetParams(params map[string]interface{}) error {
	if v, ok := params["fit_intercept"].(bool); ok {
		lr.fitIntercept = v
	}
	if v, ok := params["copy_X"].(bool); ok {
		lr.copyX = v
	}
	if v, ok := params["positive"].(bool); ok {
		lr.positive = v
	}

	return nil
}

// StateSchema declares the attributes persisted for a fitted model.
func (lr *LinearRegression) StateSchema() []model.Slot {
	return []model.Slot{
		{
			Name: "fit_intercept",
			Kind: codec.KindBool,
			Get:  func() interface{} { return lr.fitIntercept },
			Set: func(v interface{}) error {
				b, ok := v.(bool)
				if !ok {
					return errors.Newf("expected bool, got %T", v)
				}
				lr.fitIntercept = b
				return nil
			},
		},
		{
			Name: "positive",
			Kind: codec.KindBool,
			Get:  func() interface{} { return lr.positive },
			Set: func(v interface{}) error {
				b, ok := v.(bool)
				if !ok {
					return errors.Newf("expected bool, got %T", v)
				}
				lr.positive = b
				return nil
			},
		},
		{
			Name: "coef_",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return lr.coef_ },
			Set: func(v interface{}) error {
				coef, ok := v.([]float64)
				if !ok {
					return errors.Newf("expected []float64, got %T", v)
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
				f, ok := v.(float64)
				if !ok {
					return errors.Newf("expected float64, got %T", v)
				}
				lr.intercept_ = f
				return nil
			},
		},
		{
			Name: "rank_",
			Kind: codec.KindInt,
			Get:  func() interface{} { return lr.rank_ },
			Set: func(v interface{}) error {
				i, ok := v.(int)
				if !ok {
					return errors.Newf("expected int, got %T", v)
				}
				lr.rank_ = i
				return nil
			},
		},
		{
			Name: "n_features_in_",
			Kind: codec.KindInt,
			Get:  func() interface{} { return lr.nFeatures_ },
			Set: func(v interface{}) error {
				i, ok := v.(int)
				if !ok {
					return errors.Newf("expected int, got %T", v)
				}
				lr.nFeatures_ = i
				lr.state.SetDimensions(lr.nFeatures_, lr.nSamples_)
				lr.state.SetFitted()
				return nil
			},
		},
	}
}

// GetWeightHash returns a SHA-256 digest of the learned weights, used to
// verify that two models carry identical parameters.
func (lr *LinearRegression) GetWeightHash() string {
	if !lr.state.IsFitted() {
		return ""
	}

	data := append(lr.Coef(), lr.intercept_)
	jsonData, _ := json.Marshal(data)
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}

// IsFitted returns whether the model has been fitted.
func (lr *LinearRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// Clone creates an unfitted copy with the same hyperparameters.
func (lr *LinearRegression) Clone() *LinearRegression {
	return NewLinearRegression(
		WithLRFitIntercept(lr.fitIntercept),
		WithCopyX(lr.copyX),
		WithPositive(lr.positive),
	)
}

// String returns the string representation of the model.
func (lr *LinearRegression) String() string {
	if !lr.state.IsFitted() {
		return fmt.Sprintf("LinearRegression(fit_intercept=%t, copy_X=%t, positive=%t)",
			lr.fitIntercept, lr.copyX, lr.positive)
	}
	return fmt.Sprintf("LinearRegression(fit_intercept=%t, n_features=%d, fitted=true)",
		lr.fitIntercept, lr.nFeatures_)
}
