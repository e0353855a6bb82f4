// This file bridges the pkg/errors warning system to zerolog. Warnings that
// implement zerolog.LogObjectMarshaler are emitted with their structured
// fields; everything else falls back to the plain error message.

package log

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/sklite/pkg/errors"
)

// InstallZerologWarnings routes library warnings (ConvergenceWarning,
// DataConversionWarning, ...) to a zerolog logger writing to w. It returns
// the logger so callers can reuse it for their own events.
//
// Example:
//
//	logger := log.InstallZerologWarnings(os.Stderr)
//	logger.Info().Msg("warnings now structured")
func InstallZerologWarnings(w io.Writer) zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Logger()

	errors.SetZerologWarnFunc(func(warning error) {
		event := logger.Warn()
		if marshaler, ok := warning.(zerolog.LogObjectMarshaler); ok {
			event.EmbedObject(marshaler).Msg("sklite warning")
			return
		}
		event.Str("warning", warning.Error()).Msg("sklite warning")
	})

	return logger
}
