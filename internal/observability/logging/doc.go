// Package logging builds the process logger and carries request and
// correlation ids into log records.
//
// LOG_LEVEL selects debug, info, warn or error (default info). LOG_FORMAT=text
// switches from JSON to coloured tint output for local development.
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	logging.WithRequestID(ctx, slog.Default()).Info("processing request")
package logging
