// Package logging provides structured logging for the switch controller.
//
// It wraps log/slog with JSON (production) or text (development) output,
// level filtering, and service/version attributes on every entry.
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("session connected", "device_id", id)
//
// Never log secrets, tokens or client credentials.
package logging
