// Package compensation imports payroll provider records into the local store.
//
// It binds the reconciliation engine to a GORM backed store (GormStore) and
// exposes it over HTTP. Sync calls for the same owner are serialized, so two
// concurrent imports never race on the same natural key.
//
// # HTTP Endpoints
//
//   - GET  /compensation/:owner : lists stored records (?all=true for every source).
//   - POST /compensation/:owner/sync : reconciles inline records or a storage object.
//   - GET  /compensation/:owner/sync/status : import state and connection validity.
//
// # Import Format
//
// Exports are a JSON array of provider records, or an object wrapping the
// array under "compensations". Amounts may be strings or numbers.
//
//	[{"amount": "120000", "payment_unit": "per_year", "effective_date": "2024-01-15"}]
package compensation
