// Package server provides HTTP routing, middleware and the JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally. Paths may use ServeMux wildcards
// ("/stream/{id}") and each path dispatches on a method table, answering 405 with an Allow header for
// methods it does not serve.
//
// # Middleware
//
//   - [RequestID] assigns or propagates X-Request-ID
//   - [Logging] writes one structured line per request
//   - [Recovery] converts handler panics into 500 responses
//   - [Metrics] counts requests by route pattern and status
//
// # API
//
// [API] registers the search, queue, stream, home and profile routes. Errors are written as
// {"error": ..., "detail": ..., "retryable": ...} with the status chosen from the shared error kind:
// invalid input 400, not found 404, provider timeout 504, provider unavailable 502, anything else 500.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple "METHOD /path" routes to encapsulate route definitions within the
// implementation. [MetricsEndpoint] is one.
package server
