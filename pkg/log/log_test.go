package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/YuminosukeSato/sklite/pkg/errors"
)

func TestTestLogger_CapturesStructuredFields(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Info("state serialized",
		ModelNameKey, "LinearRegression",
		OperationKey, OperationSerialize,
		BagSizeKey, 5,
	)

	if buffer.Len() == 0 {
		t.Fatal("Expected log output, got empty buffer")
	}
	if !testLogger.ContainsMessage("state serialized") {
		t.Error("Message not captured")
	}
	if !testLogger.ContainsField(ModelNameKey, "LinearRegression") {
		t.Error("Model name field not captured")
	}
	// JSON unmarshaling converts numbers to float64.
	if !testLogger.ContainsField(BagSizeKey, 5.0) {
		t.Error("Bag size field not captured")
	}
}

func TestTestLogger_With(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		ComponentKey, "codec",
		EstimatorIDKey, "scaler-001",
	)
	contextLogger.Info("attribute encoded", AttributeKey, "mean_")

	if !testLogger.ContainsField(ComponentKey, "codec") {
		t.Error("With() field not propagated")
	}
	if !testLogger.ContainsField(AttributeKey, "mean_") {
		t.Error("Call-site field not captured")
	}
}

func TestTestLogger_LevelFiltering(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelWarn)

	testLogger.Debug("should be dropped")
	testLogger.Info("should be dropped too")
	testLogger.Warn("kept")

	output := buffer.String()
	if strings.Contains(output, "dropped") {
		t.Errorf("Messages below level leaked: %s", output)
	}
	if !strings.Contains(output, "kept") {
		t.Error("Warn message missing")
	}
}

func TestToLogLevel(t *testing.T) {
	cases := map[string]string{
		"debug": "DEBUG",
		"info":  "INFO",
		"warn":  "WARN",
		"error": "ERROR",
	}
	for in, want := range cases {
		if got := ToLogLevel(in).String(); got != want {
			t.Errorf("ToLogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestInstallZerologWarnings(t *testing.T) {
	var buf bytes.Buffer
	InstallZerologWarnings(&buf)
	defer errors.SetZerologWarnFunc(nil)

	errors.Warn(errors.NewConvergenceWarning("LogisticRegression", 200, ""))

	output := buf.String()
	if !strings.Contains(output, "ConvergenceWarning") {
		t.Errorf("Structured warning type missing from output: %s", output)
	}
	if !strings.Contains(output, "LogisticRegression") {
		t.Errorf("Algorithm field missing from output: %s", output)
	}
}
