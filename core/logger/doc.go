// Package logger provides a structured logging facility based on Zap.
//
// It builds a configured logger for development (console) or production (json)
// and integrates with the Fiber web framework.
//
// # Context Awareness
//
// WithRayID extracts the RayID (request id) set by the rayid middleware from a
// Fiber context and attaches it to the log entry, so all logs of one request
// can be correlated.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Server started")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
