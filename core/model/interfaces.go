// Package model provides the shared estimator contracts, fitted-state
// management, and the attribute-bag serialization layer that estimators use
// to persist and restore their learned parameters exactly.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is a model that can be trained on data.
type Fitter interface {
	// Fit trains the model on the given samples and targets.
	Fit(X, y mat.Matrix) error
}

// Predictor is a model that can produce predictions.
type Predictor interface {
	// Predict returns predictions for the input samples.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Classifier is a supervised estimator that predicts discrete class labels.
type Classifier interface {
	Fitter
	Predictor

	// PredictProba returns per-class probability estimates.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique class labels seen during fitting.
	Classes() []int
}

// Transformer is a stateful data transformation such as a scaler.
type Transformer interface {
	// Fit learns the transformation parameters.
	Fit(X mat.Matrix) error

	// Transform applies the learned transformation.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits and transforms in one call.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter exposes a model's hyperparameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}
