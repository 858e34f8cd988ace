// Package metrics defines the Prometheus metrics exported by the photo
// catalog engine. All metrics are registered with the default registry
// via promauto and served by the /metrics endpoint.
package metrics
