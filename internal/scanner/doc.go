// Package scanner runs the background scan pipeline: directory discovery,
// content fingerprinting, duplicate and screenshot triage, AI enrichment,
// and the per-file commit. One Controller serializes all scan work for
// the process.
package scanner
