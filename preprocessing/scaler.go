// Package preprocessing provides scikit-learn compatible data transformers.
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sklite/core/codec"
	"github.com/YuminosukeSato/sklite/core/model"
	"github.com/YuminosukeSato/sklite/pkg/errors"
)

var (
	_ model.Transformer     = (*StandardScaler)(nil)
	_ model.Transformer     = (*MinMaxScaler)(nil)
	_ model.ParameterGetter = (*StandardScaler)(nil)
	_ model.ParameterGetter = (*MinMaxScaler)(nil)
	_ model.Serializable    = (*StandardScaler)(nil)
	_ model.Serializable    = (*MinMaxScaler)(nil)
)

// StandardScaler standardizes features by removing the mean and scaling to
// unit variance, matching scikit-learn's StandardScaler.
type StandardScaler struct {
	state *model.StateManager

	// Mean holds the per-feature mean computed during fitting.
	Mean []float64

	// Scale holds the per-feature standard deviation.
	Scale []float64

	// NFeatures is the number of features seen during fitting.
	NFeatures int

	// WithMean controls whether the mean is subtracted (default true).
	WithMean bool

	// WithStd controls whether features are divided by the standard
	// deviation (default true).
	WithStd bool
}

// NewStandardScaler creates a StandardScaler with explicit centering and
// scaling switches.
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a StandardScaler that both centers and
// scales.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// IsFitted reports whether the scaler has been fitted.
func (s *StandardScaler) IsFitted() bool {
	return s.state.IsFitted()
}

// Fit computes the per-feature mean and standard deviation of X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	if s.WithMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}
	}

	if s.WithStd {
		for j := 0; j < c; j++ {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			variance := sumSquares / float64(r)
			s.Scale[j] = math.Sqrt(variance)

			// Constant feature: leave it unscaled instead of dividing
			// by zero.
			if math.Abs(s.Scale[j]) < 1e-8 {
				s.Scale[j] = 1.0
			}
		}
	} else {
		for j := 0; j < c; j++ {
			s.Scale[j] = 1.0
		}
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform standardizes X using the fitted statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}

	return result, nil
}

// FitTransform fits the scaler on X and returns the transformed data.
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized data back to the original scale.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}

	return result, nil
}

// GetParams returns the scaler's hyperparameters.
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// StateSchema declares the attributes persisted for a fitted scaler.
func (s *StandardScaler) StateSchema() []model.Slot {
	return []model.Slot{
		{
			Name: "with_mean",
			Kind: codec.KindBool,
			Get:  func() interface{} { return s.WithMean },
			Set:  func(v interface{}) error { return assignBool(&s.WithMean, v) },
		},
		{
			Name: "with_std",
			Kind: codec.KindBool,
			Get:  func() interface{} { return s.WithStd },
			Set:  func(v interface{}) error { return assignBool(&s.WithStd, v) },
		},
		{
			Name: "mean_",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return s.Mean },
			Set:  func(v interface{}) error { return assignFloats(&s.Mean, v) },
		},
		{
			Name: "scale_",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return s.Scale },
			Set:  func(v interface{}) error { return assignFloats(&s.Scale, v) },
		},
		{
			Name: "n_features_in_",
			Kind: codec.KindInt,
			Get:  func() interface{} { return s.NFeatures },
			Set: func(v interface{}) error {
				if err := assignInt(&s.NFeatures, v); err != nil {
					return err
				}
				s.state.SetDimensions(s.NFeatures, 0)
				s.state.SetFitted()
				return nil
			},
		},
	}
}

func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

// MinMaxScaler scales features to a target range, by default [0, 1].
type MinMaxScaler struct {
	state *model.StateManager

	// Min holds the per-feature additive offset after scaling.
	Min []float64

	// Max holds the per-feature upper offset after scaling.
	Max []float64

	// Scale holds the per-feature data range (max - min).
	Scale []float64

	// DataMin holds the per-feature minimum of the training data.
	DataMin []float64

	// DataMax holds the per-feature maximum of the training data.
	DataMax []float64

	// NFeatures is the number of features seen during fitting.
	NFeatures int

	// FeatureRange is the target range after scaling.
	FeatureRange [2]float64
}

// NewMinMaxScaler creates a MinMaxScaler with the given target range.
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault creates a MinMaxScaler targeting [0, 1].
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// IsFitted reports whether the scaler has been fitted.
func (m *MinMaxScaler) IsFitted() bool {
	return m.state.IsFitted()
}

// Fit computes the per-feature minimum and maximum of X.
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Min = make([]float64, c)
	m.Max = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		lo := X.At(0, j)
		hi := X.At(0, j)

		for i := 1; i < r; i++ {
			val := X.At(i, j)
			if val < lo {
				lo = val
			}
			if val > hi {
				hi = val
			}
		}

		m.DataMin[j] = lo
		m.DataMax[j] = hi

		dataRange := hi - lo
		if math.Abs(dataRange) < 1e-8 {
			// Constant feature.
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = dataRange
		}

		span := m.FeatureRange[1] - m.FeatureRange[0]
		m.Min[j] = m.FeatureRange[0] - lo*span/m.Scale[j]
		m.Max[j] = m.FeatureRange[1] - hi*span/m.Scale[j]
	}

	m.state.SetDimensions(c, r)
	m.state.SetFitted()
	return nil
}

// Transform scales X into the target range using the fitted statistics.
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	span := m.FeatureRange[1] - m.FeatureRange[0]
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			val := X.At(i, j)
			scaled := (val-m.DataMin[j])/m.Scale[j]*span + m.FeatureRange[0]
			result.Set(i, j, scaled)
		}
	}

	return result, nil
}

// FitTransform fits the scaler on X and returns the transformed data.
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform maps scaled data back to the original range.
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "InverseTransform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.InverseTransform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	span := m.FeatureRange[1] - m.FeatureRange[0]
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			val := X.At(i, j)
			original := (val-m.FeatureRange[0])/span*m.Scale[j] + m.DataMin[j]
			result.Set(i, j, original)
		}
	}

	return result, nil
}

// GetParams returns the scaler's hyperparameters.
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

// StateSchema declares the attributes persisted for a fitted scaler.
func (m *MinMaxScaler) StateSchema() []model.Slot {
	return []model.Slot{
		{
			Name: "feature_range",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return []float64{m.FeatureRange[0], m.FeatureRange[1]} },
			Set: func(v interface{}) error {
				var bounds []float64
				if err := assignFloats(&bounds, v); err != nil {
					return err
				}
				if len(bounds) != 2 {
					return errors.NewValueError("MinMaxScaler", "feature_range must have two bounds")
				}
				m.FeatureRange = [2]float64{bounds[0], bounds[1]}
				return nil
			},
		},
		{
			Name: "data_min_",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return m.DataMin },
			Set:  func(v interface{}) error { return assignFloats(&m.DataMin, v) },
		},
		{
			Name: "data_max_",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return m.DataMax },
			Set:  func(v interface{}) error { return assignFloats(&m.DataMax, v) },
		},
		{
			Name: "min_",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return m.Min },
			Set:  func(v interface{}) error { return assignFloats(&m.Min, v) },
		},
		{
			Name: "max_",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return m.Max },
			Set:  func(v interface{}) error { return assignFloats(&m.Max, v) },
		},
		{
			Name: "scale_",
			Kind: codec.KindFloat64,
			Get:  func() interface{} { return m.Scale },
			Set:  func(v interface{}) error { return assignFloats(&m.Scale, v) },
		},
		{
			Name: "n_features_in_",
			Kind: codec.KindInt,
			Get:  func() interface{} { return m.NFeatures },
			Set: func(v interface{}) error {
				if err := assignInt(&m.NFeatures, v); err != nil {
					return err
				}
				m.state.SetDimensions(m.NFeatures, 0)
				m.state.SetFitted()
				return nil
			},
		},
	}
}

func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}

func assignBool(dst *bool, v interface{}) error {
	b, ok := v.(bool)
	if !ok {
		return errors.Newf("expected bool, got %T", v)
	}
	*dst = b
	return nil
}

func assignInt(dst *int, v interface{}) error {
	i, ok := v.(int)
	if !ok {
		return errors.Newf("expected int, got %T", v)
	}
	*dst = i
	return nil
}

func assignFloats(dst *[]float64, v interface{}) error {
	fs, ok := v.([]float64)
	if !ok {
		return errors.Newf("expected []float64, got %T", v)
	}
	*dst = fs
	return nil
}
