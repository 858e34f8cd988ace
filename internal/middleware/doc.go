// Package middleware provides the HTTP request logging and Prometheus
// instrumentation applied to every API route.
package middleware
