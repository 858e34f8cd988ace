// Package workers provides helpers for sizing worker pools based on
// available CPU resources. The thumbnail pipeline uses ForCPU so that
// decode/resize/encode work never oversubscribes the host, while scan
// paths use ForIO.
package workers
