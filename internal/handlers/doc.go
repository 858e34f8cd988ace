// Package handlers implements the HTTP API: indexing and streaming
// synchronization, catalog queries, thumbnail serving, library and
// folder management, live watching, user settings and health probes.
package handlers
