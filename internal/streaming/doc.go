// Package streaming delivers long-running synchronization progress to
// HTTP clients as server-sent events.
package streaming
