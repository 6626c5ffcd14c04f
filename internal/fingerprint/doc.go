// Package fingerprint computes content hashes and the screenshot heuristic
// used to classify files before enrichment. Both are pure functions of file
// bytes and metadata with no side effects.
package fingerprint
