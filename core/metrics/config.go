package metrics

// Config holds configuration for the prometheus endpoint.
type Config struct {
	// Enabled mounts the metrics endpoint.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Path is the route the endpoint is served on.
	Path string `mapstructure:"path" default:"/metrics"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace" default:"salary_tracker"`
}
