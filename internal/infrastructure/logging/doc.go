// Package logging provides structured logging for the smart house engine.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the application.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("house loaded", "rooms", 12)
//	logger.Error("failed to store reading", "error", err)
//
// Never log secrets such as the MQTT password or InfluxDB token.
package logging
