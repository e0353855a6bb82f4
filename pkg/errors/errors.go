// Package errors provides error handling and the warning system for the whole
// project. It is inspired by scikit-learn's warning/exception hierarchy and
// carries structured error information for the serialization codec and the
// estimators built on top of it.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// Default handler logs to standard error.
		log.Printf("sklite-Warning: %v\n", w)
	}
	// zerolog logger, initialized lazily to avoid an import cycle.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the warning handler for the whole library.
// It controls how warnings such as ConvergenceWarning are processed.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // ignore warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc sets the zerolog warning function (kept separate to avoid
// an import cycle with pkg/log).
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn raises a warning. When zerolog is configured the warning is emitted as
// a structured log event, otherwise the plain handler is used.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Codec error types
//
// ===========================================================================

// UnsupportedValueKindError is returned when a value outside the catalog of
// supported kinds is passed to the scalar or container codec.
type UnsupportedValueKindError struct {
	Op     string
	GoType string // runtime type of the offending value, e.g. "complex128"
	Value  interface{}
}

func (e *UnsupportedValueKindError) Error() string {
	return fmt.Sprintf("sklite: %s: unsupported value kind %s (value: %v)", e.Op, e.GoType, e.Value)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *UnsupportedValueKindError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("go_type", e.GoType).
		Interface("value", e.Value).
		Str("type", "UnsupportedValueKindError")
}

// NewUnsupportedValueKindError creates a new UnsupportedValueKindError with a
// stack trace attached.
func NewUnsupportedValueKindError(op string, value interface{}) error {
	err := &UnsupportedValueKindError{Op: op, GoType: fmt.Sprintf("%T", value), Value: value}
	return errors.WithStack(err)
}

// UnknownTypeKindError is returned when decoding a type reference whose
// canonical name is not registered with the codec.
type UnknownTypeKindError struct {
	Op   string
	Name string
}

func (e *UnknownTypeKindError) Error() string {
	return fmt.Sprintf("sklite: %s: unknown type kind %q", e.Op, e.Name)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *UnknownTypeKindError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("name", e.Name).
		Str("type", "UnknownTypeKindError")
}

// NewUnknownTypeKindError creates a new UnknownTypeKindError with a stack
// trace attached.
func NewUnknownTypeKindError(op, name string) error {
	err := &UnknownTypeKindError{Op: op, Name: name}
	return errors.WithStack(err)
}

// NonStringKeyError is returned when a mapping with a non-string key is passed
// to the container codec. Composite keys are not representable in JSON and
// must be normalized (for example joined into a single string) before
// serialization.
type NonStringKeyError struct {
	Op  string
	Key interface{} // literal value of the offending key
}

func (e *NonStringKeyError) Error() string {
	return fmt.Sprintf("sklite: %s: mapping key must be a string, got %T (%v)", e.Op, e.Key, e.Key)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *NonStringKeyError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Interface("key", e.Key).
		Str("key_type", fmt.Sprintf("%T", e.Key)).
		Str("type", "NonStringKeyError")
}

// NewNonStringKeyError creates a new NonStringKeyError with a stack trace
// attached.
func NewNonStringKeyError(op string, key interface{}) error {
	err := &NonStringKeyError{Op: op, Key: key}
	return errors.WithStack(err)
}

// MissingTargetAttributeError is returned by Populate when a serialized
// attribute has no matching slot on the target object, or when a declared slot
// has no matching entry in the bag. Direction distinguishes the two cases.
type MissingTargetAttributeError struct {
	ModelName string
	Attribute string
	Direction string // "bag" (entry without slot) or "schema" (slot without entry)
}

func (e *MissingTargetAttributeError) Error() string {
	if e.Direction == "schema" {
		return fmt.Sprintf("sklite: %s: attribute %q declared in schema is missing from the serialized state", e.ModelName, e.Attribute)
	}
	return fmt.Sprintf("sklite: %s: serialized attribute %q has no matching slot on the target object", e.ModelName, e.Attribute)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *MissingTargetAttributeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("attribute", e.Attribute).
		Str("direction", e.Direction).
		Str("type", "MissingTargetAttributeError")
}

// NewMissingTargetAttributeError creates a new MissingTargetAttributeError
// with a stack trace attached.
func NewMissingTargetAttributeError(modelName, attribute, direction string) error {
	err := &MissingTargetAttributeError{ModelName: modelName, Attribute: attribute, Direction: direction}
	return errors.WithStack(err)
}

// TypeMismatchError is returned by Populate when a decoded value's kind is
// incompatible with the kind declared by the target attribute slot. Cause
// holds the underlying decode failure, reachable through Unwrap.
type TypeMismatchError struct {
	ModelName string
	Attribute string
	Expected  string
	Got       string
	Cause     error
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("sklite: %s: attribute %q: expected kind %s, got %s", e.ModelName, e.Attribute, e.Expected, e.Got)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the underlying decode failure.
func (e *TypeMismatchError) Unwrap() error { return e.Cause }

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *TypeMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("attribute", e.Attribute).
		Str("expected", e.Expected).
		Str("got", e.Got).
		Str("type", "TypeMismatchError")
}

// NewTypeMismatchError creates a new TypeMismatchError with a stack trace
// attached. cause may be nil when no underlying decode error exists.
func NewTypeMismatchError(modelName, attribute, expected, got string, cause error) error {
	err := &TypeMismatchError{ModelName: modelName, Attribute: attribute, Expected: expected, Got: got, Cause: cause}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	scikit-learn compatible warning types
//
// ===========================================================================

// ConvergenceWarning is raised when an optimization algorithm did not
// converge within its maximum number of iterations.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject adds structured warning information to a zerolog event.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning creates a new ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// DataConversionWarning is raised when data was implicitly converted from one
// type to another.
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("data converted from %s to %s. Reason: %s", w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject adds structured warning information to a zerolog event.
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning creates a new DataConversionWarning.
func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// ===========================================================================
//
//	Structured model error types
//
// ===========================================================================

// NotFittedError is returned when Predict or Transform is called on a model
// that has not been fitted.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("sklite: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a new NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError is returned when input data dimensions do not match the
// expected values.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("sklite: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError creates a new DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError is returned when input parameter validation fails. It is
// more specific than ValueError about which parameter was rejected.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sklite: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a new ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError is returned when an argument has an inappropriate or invalid
// value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("sklite: %s: %s", e.Op, e.Message)
}

// NewValueError creates a new ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError is a general error about a machine learning model.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sklite: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("sklite: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a new ModelError with a stack trace attached.
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches the target error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As reports whether err can be cast to the target type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to an error.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error variables
//
// ===========================================================================

var (
	// ErrEmptyData is returned when empty data is passed.
	ErrEmptyData = New("empty data")
)
