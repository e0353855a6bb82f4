// Package sklite provides scikit-learn compatible machine learning models
// for Go, with exact-bit model serialization as a first-class concern.
//
// Fitted estimators expose their learned state as a flat attribute bag and
// can be saved and restored through JSON or CBOR without losing a single bit
// of floating-point precision: a model trained once, saved, and loaded
// produces bit-identical predictions.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/sklite/core/model"
//	    "github.com/YuminosukeSato/sklite/sklearn/linear_model"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
//	    y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})
//
//	    lr := linear_model.NewLinearRegression()
//	    if err := lr.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    if err := model.SaveStateToFile(lr, "model.json"); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    restored := linear_model.NewLinearRegression()
//	    if err := model.LoadStateFromFile(restored, "model.json"); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    predictions, err := restored.Predict(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(predictions)
//	}
//
// # Packages
//
//   - core/codec: tagged-value serialization with exact IEEE-754 bit
//     encoding
//   - core/model: attribute bags, state schemas, and JSON/CBOR persistence
//   - sklearn/linear_model: LinearRegression, LogisticRegression
//   - sklearn/tree: DecisionTreeClassifier
//   - preprocessing: StandardScaler, MinMaxScaler
//   - metrics: regression, classification, and ranking metrics
//   - pkg/errors: error types and the warning system
//   - pkg/log: structured logging helpers
package sklite
