// Package middleware groups the HTTP middleware of the Fiber application.
//
// # Components
//
//   - auth: API key validation through the X-API-Key header.
//   - rayid: a request id (RayID) for every request, stored in the fiber
//     locals under "ray_id" and echoed in the X-Ray-ID response header.
//
// Register rayid first so every log line of a request carries its id.
package middleware
