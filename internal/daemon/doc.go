// Package daemon ties the scan controller, store, and HTTP API into the
// long-running photoscand process and enforces single-instance execution.
package daemon
