// Package startup loads configuration from the environment, validates
// the data and cache directories, and carries build-time version
// information.
package startup
