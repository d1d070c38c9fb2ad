// Package server holds the HTTP server configuration.
//
// The start command owns the fiber application; this package only defines the
// settings it needs (port, API key, timeouts, body limit) and validates them.
package server
