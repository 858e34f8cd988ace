// Command reindex runs a one-shot synchronization of a folder against
// a catalog database, without starting the HTTP server. Useful for
// bulk imports and cron-driven refreshes.
package main
