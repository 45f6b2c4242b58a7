// Package constants centralizes defaults shared across the CLI, the API
// server and the scan pipeline.
package constants
