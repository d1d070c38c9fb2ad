// Package utils holds small parsing helpers shared by the HTTP handlers and
// the CLI: calendar dates, years, positive amounts and flag-like strings.
package utils
