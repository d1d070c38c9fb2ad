// Package integrity validates the infrastructure the tracker depends on.
//
// # Checks
//
//   - Structure: the storage bucket exists and holds the "series" and
//     "imports" folders. Missing folders can be created with ?fix=true.
//   - Archive: the newest archived CPI payload of a series still decodes and
//     normalizes into points.
//   - Server: the compensation_records table matches the GORM model column
//     by column.
//
// # HTTP Endpoints
//
//   - GET /integrity : runs every check and returns a combined report.
//   - GET /integrity/structure
//   - GET /integrity/archive : ?series= overrides the configured series.
//   - GET /integrity/server
package integrity
