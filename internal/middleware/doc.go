// Package middleware supplies the HTTP wrappers the server stacks around
// its router: gzip compression for JSON and the static UI, access logging
// in W3C Extended Log Format, and Prometheus request metrics with path
// normalization to keep label cardinality bounded. Each wrapper takes a
// config struct and returns a func(http.Handler) http.Handler, so main
// composes them in whatever order it wants.
package middleware
