// Package inflation serves CPI based inflation figures over HTTP.
//
// The Service fetches a series through the rate-limited statistics client,
// normalizes it and answers rate, annual rate and purchasing power queries
// with the core inflation calculator.
//
// # Caching
//
// Normalized series are cached per (series, year range) for the configured
// TTL. Concurrent misses on the same key share one upstream fetch
// (singleflight), which matters because the upstream gate allows one call
// every few seconds.
//
// # Archive
//
// When enabled, every raw payload is written to object storage under
// series/<id>/<YYYYMMDDTHHMMSS>[_<start>-<end>].json. Archive failures are
// logged and never fail the request.
//
// # Year Ranges
//
// The upstream serves at most 20 years per request (10 without a registration
// key). Wider ranges are fetched in consecutive chunks and merged.
//
// # HTTP Endpoints
//
//   - GET    /inflation/series/:id : normalized points (?start_year=&end_year=).
//   - DELETE /inflation/series/:id/cache : drops cached ranges.
//   - GET    /inflation/rate : point-to-point rate (?start=&end=&series=).
//   - GET    /inflation/annual/:year : year-over-year rate.
//   - GET    /inflation/purchasing-power : adjusted salary (?salary=&start=&end=).
//
// Upstream failures map to 502, bad input to 400 and missing observations to 404.
package inflation
