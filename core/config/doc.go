// Package config loads the salary-tracker configuration.
//
// Values come from environment variables, optionally seeded from a .env file.
// Defaults live in the `default` struct tags of each section's Config type and
// are registered with Viper by reflection, so every key can be overridden by
// its upper-cased env name (bls.min_interval -> BLS_MIN_INTERVAL).
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, body limit
//   - Database: mysql or sqlite connection
//   - Storage: S3/MinIO credentials and bucket
//   - Log: level and format
//   - BLS: statistics API endpoint, key, rate gate, retry and breaker
//   - Inflation: default series, cache TTL, archive switch
//   - Sync: payroll source tag and import prefix
//   - Metrics: prometheus endpoint
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
