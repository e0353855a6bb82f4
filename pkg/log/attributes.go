// Package log defines standard attribute keys for model state serialization
// and the estimators built around it.
//
// Using these predefined keys keeps log output consistent across packages and
// makes structured log analysis (filtering by attribute name, codec kind, or
// operation) possible. The keys follow a hierarchical naming convention
// ("model.name", "state.attribute") like the rest of the project.

package log

// Model and Operation Context
// These attributes identify the model type, instance, and operation being performed.
const (
	// ModelNameKey identifies the type of model being serialized or trained.
	// Examples: "LinearRegression", "DecisionTreeClassifier", "StandardScaler"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific model instance.
	// Examples: "lr-001", "scaler-abc123", UUID strings
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "serialize", "populate", "save", "load"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "codec", "model", "tree", "preprocessing"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	// Examples: "training", "inference", "serialization"
	PhaseKey = "ml.phase"
)

// Serialization Context
// These attributes describe codec and attribute-bag operations.
const (
	// KindKey records the tagged-value kind being encoded or decoded.
	// Examples: "float64", "ndarray", "mapping"
	KindKey = "codec.kind"

	// AttributeKey names the attribute slot currently being processed.
	// Examples: "coef_", "intercept_", "classes_"
	AttributeKey = "state.attribute"

	// BagSizeKey records the number of attributes in a serialized bag.
	BagSizeKey = "state.attributes"

	// FormatKey records the persistence format in use ("json" or "cbor").
	FormatKey = "state.format"

	// BytesKey records the size of the serialized artifact in bytes.
	BytesKey = "state.bytes"

	// ChecksumKey records the SHA-256 checksum of exported weights.
	ChecksumKey = "state.checksum"
)

// Data Shape and Characteristics
// These attributes describe the structure of data being processed.
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ShapeKey records the dimension sizes of a multi-dimensional array.
	ShapeKey = "data.shape"

	// DataTypeKey specifies the element type of the data being processed.
	// Examples: "float64", "int", "string"
	DataTypeKey = "data.type"
)

// Performance Metrics
const (
	// DurationMsKey records elapsed time for an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy for score operations.
	AccuracyKey = "metrics.accuracy"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	// Examples: "NON_STRING_KEY", "NOT_FITTED", "TYPE_MISMATCH"
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	// Examples: "NonStringKeyError", "MissingTargetAttributeError"
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	// Automatically populated by the error logging handler.
	StacktraceKey = "error.stacktrace"
)

// Standard attribute value constants for common operations.
// Using these constants ensures consistency across the codebase.
const (
	// Standard operations
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationSerialize    = "serialize"
	OperationPopulate     = "populate"
	OperationSave         = "save"
	OperationLoad         = "load"

	// Standard phases
	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhaseSerialization = "serialization"

	// Standard error codes
	ErrorNotFitted              = "NOT_FITTED"
	ErrorDimensionMismatch      = "DIMENSION_MISMATCH"
	ErrorEmptyData              = "EMPTY_DATA"
	ErrorUnsupportedValueKind   = "UNSUPPORTED_VALUE_KIND"
	ErrorUnknownTypeKind        = "UNKNOWN_TYPE_KIND"
	ErrorNonStringKey           = "NON_STRING_KEY"
	ErrorMissingTargetAttribute = "MISSING_TARGET_ATTRIBUTE"
	ErrorTypeMismatch           = "TYPE_MISMATCH"
)
