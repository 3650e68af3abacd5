// Package server provides the HTTP surface for conversions, downloads and lookups.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # API Handler
//
// [API] implements the [Handler] interface and serves the JSON endpoints:
//
//   - POST /api/search : one-off provider search
//   - POST /api/convert : start an asynchronous conversion job from an uploaded CSV
//   - GET /api/jobs/{id} : poll a job's progress and result
//   - GET /api/playlists, /api/playlists/{id} : stored conversion results
//   - GET /api/history : recent downloads
//   - GET /api/lyrics : lyrics lookup by title/artist
//   - GET /api/downloads, /api/downloads/{file} : completed files on disk
//   - GET /api/health : liveness probe
//
// Conversion jobs run in a background goroutine and are tracked by a
// jobs.Registry; clients poll the job endpoint until the status is terminal.
package server
