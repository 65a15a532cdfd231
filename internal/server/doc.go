// Package server provides HTTP routing, middleware, and OAuth state handling
// for the web application.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with
// method-qualified patterns, so the same path can serve different methods.
//
// # OAuth State Store
//
// [StateStore] issues single-use random state tokens for the OAuth2
// authorization code flow (CSRF protection). A token is consumed exactly
// once and expires if the callback never arrives.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib
// handler interface and adds routes, allowing handlers to register multiple
// routes to encapsulate route definitions within the implementation.
package server
