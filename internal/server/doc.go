// Package server provides HTTP routing, middleware, and a local stand-in for the report backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging], [Recover] and [CORS] are provided. The logging middleware passes Hijack through so websocket upgrades
// still work behind it.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with per-path method dispatch.
//
// # Stub Backend
//
// [Stub] answers the same endpoints as the real backend:
//   - POST / runs a fake job, broadcasting status frames, and answers with a document id
//     (or "Processing" in async mode)
//   - POST /api/server/stop-selenium aborts the running job and answers with [StopResponse]
//
// [StatusHub] serves /ws/selenium-status and fans frames out to every connected client.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
