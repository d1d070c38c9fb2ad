// Package inflation derives inflation rates and purchasing-power adjusted
// salaries from normalized CPI points.
//
// Rates are plain ratios: 0.05 means five percent. Lookups that cannot be
// resolved (no point at or before a date, zero base value) return ok=false
// rather than an error; that is the normal degraded case when a fetch failed
// or a series is short.
package inflation
