// Package metrics exposes pipeline telemetry through Prometheus.
//
// A Manager is passed as the recorder to the fetch client, the normalizer,
// the reconciliation engine and the inflation cache. The HTTP server mounts
// Manager.Handler on the configured path.
package metrics
