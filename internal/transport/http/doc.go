// Package http contains the HTTP transport layer of claimsight: Chi
// routers per resource, RFC 7807 problem responses on every error path,
// and the WebSocket upgrade endpoint for detection progress.
//
// Handlers depend on narrow service interfaces so tests can substitute
// fakes without standing up the full pipeline.
package http
