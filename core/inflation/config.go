package inflation

import "time"

// DefaultSeries is the all-items CPI-U series, not seasonally adjusted.
const DefaultSeries = "CUUR0000SA0"

// Config holds configuration for the inflation service.
type Config struct {
	// Series is the series used when a request names none.
	Series string `mapstructure:"series" default:"CUUR0000SA0"`
	// CacheTTL is how long a normalized series stays cached. Zero disables caching.
	CacheTTL time.Duration `mapstructure:"cache_ttl" default:"6h"`
	// Archive enables archiving raw payloads to object storage.
	Archive bool `mapstructure:"archive" default:"true"`
}
